package executor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights-agent/internal/application/port/output"
	"insights-agent/internal/application/service"
	"insights-agent/internal/domain/entity"
	"insights-agent/internal/infrastructure/logger"
)

type scriptedLLM struct {
	responses []entity.Message
	requests  []output.ChatRequest
}

func (l *scriptedLLM) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	l.requests = append(l.requests, req)
	msg := l.responses[0]
	if len(l.responses) > 1 {
		l.responses = l.responses[1:]
	}
	return &output.ChatResponse{Message: msg}, nil
}

type echoTool struct {
	name   entity.ToolName
	result string
	calls  []string
}

func (t *echoTool) Name() entity.ToolName { return t.name }
func (t *echoTool) Description() string   { return "test tool" }
func (t *echoTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}

func (t *echoTool) Execute(ctx context.Context, args string) (string, error) {
	t.calls = append(t.calls, args)
	return t.result, nil
}

func TestExecuteDirectAnswer(t *testing.T) {
	llm := &scriptedLLM{responses: []entity.Message{
		{Role: entity.RoleAssistant, Content: "Win rate is 50%."},
	}}
	uc := New(llm, service.NewToolRegistry(), logger.NewNopLogger(), "system prompt")

	result, err := uc.Execute(context.Background(), "How is our win rate?")
	require.NoError(t, err)
	assert.Equal(t, "Win rate is 50%.", result.FinalAnswer)
	assert.Equal(t, 1, result.Iterations)

	// System prompt and task open the conversation.
	require.Len(t, llm.requests, 1)
	msgs := llm.requests[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, entity.RoleSystem, msgs[0].Role)
	assert.Equal(t, entity.RoleUser, msgs[1].Role)
}

func TestExecuteToolRoundTrip(t *testing.T) {
	tool := &echoTool{name: entity.ToolConversionMetrics, result: "Win rate: 50.0%"}
	registry := service.NewToolRegistry()
	registry.Register(tool)

	llm := &scriptedLLM{responses: []entity.Message{
		{
			Role: entity.RoleAssistant,
			ToolCalls: []entity.ToolCall{
				{ID: "call_1", Name: "conversion_metrics", Arguments: "{}"},
			},
		},
		{Role: entity.RoleAssistant, Content: "The win rate is 50%."},
	}}
	uc := New(llm, registry, logger.NewNopLogger(), "system prompt")

	result, err := uc.Execute(context.Background(), "How effectively are we converting?")
	require.NoError(t, err)
	assert.Equal(t, "The win rate is 50%.", result.FinalAnswer)
	assert.Equal(t, 2, result.Iterations)
	require.Len(t, tool.calls, 1)

	// The observation is fed back as a tool message.
	msgs := llm.requests[1].Messages
	last := msgs[len(msgs)-1]
	assert.Equal(t, entity.RoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Equal(t, "Win rate: 50.0%", last.Content)
}

func TestExecuteUnknownTool(t *testing.T) {
	llm := &scriptedLLM{responses: []entity.Message{
		{
			Role: entity.RoleAssistant,
			ToolCalls: []entity.ToolCall{
				{ID: "call_1", Name: "no_such_tool", Arguments: "{}"},
			},
		},
		{Role: entity.RoleAssistant, Content: "Done."},
	}}
	uc := New(llm, service.NewToolRegistry(), logger.NewNopLogger(), "system prompt")

	_, err := uc.Execute(context.Background(), "task")
	require.NoError(t, err)

	msgs := llm.requests[1].Messages
	last := msgs[len(msgs)-1]
	assert.Contains(t, last.Content, "unknown tool")
}

func TestExecuteTruncatesLongObservations(t *testing.T) {
	tool := &echoTool{
		name:   entity.ToolBoardRows,
		result: strings.Repeat("x", maxObservationLen+100),
	}
	registry := service.NewToolRegistry()
	registry.Register(tool)

	llm := &scriptedLLM{responses: []entity.Message{
		{
			Role: entity.RoleAssistant,
			ToolCalls: []entity.ToolCall{
				{ID: "call_1", Name: "board_rows", Arguments: `{"board":"deals"}`},
			},
		},
		{Role: entity.RoleAssistant, Content: "Done."},
	}}
	uc := New(llm, registry, logger.NewNopLogger(), "system prompt")

	_, err := uc.Execute(context.Background(), "dump the rows")
	require.NoError(t, err)

	msgs := llm.requests[1].Messages
	last := msgs[len(msgs)-1]
	assert.Less(t, len(last.Content), maxObservationLen+100)
	assert.Contains(t, last.Content, "truncated")
}
