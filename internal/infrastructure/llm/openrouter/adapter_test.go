package openrouter

import (
	"testing"

	"insights-agent/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestConvertResponseMessage_WithContent(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role:    "assistant",
		Content: "Revenue stands at 1.2M.",
	}

	result := convertResponseMessage(msg)

	assert.Equal(t, entity.RoleAssistant, result.Role)
	assert.Equal(t, "Revenue stands at 1.2M.", result.Content)
	assert.Empty(t, result.ToolCalls)
}

func TestConvertResponseMessage_WithToolCalls(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role:    "assistant",
		Content: "",
		ToolCalls: []openai.ToolCall{
			{
				ID:   "call_123",
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      "board_rows",
					Arguments: `{"board":"Deals Funnel","limit":10}`,
				},
			},
		},
	}

	result := convertResponseMessage(msg)

	assert.Equal(t, entity.RoleAssistant, result.Role)
	assert.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "call_123", result.ToolCalls[0].ID)
	assert.Equal(t, "board_rows", result.ToolCalls[0].Name)
}

func TestConvertMessages(t *testing.T) {
	messages := []entity.Message{
		{
			Role:    entity.RoleUser,
			Content: "How is the pipeline?",
		},
		{
			Role: entity.RoleAssistant,
			ToolCalls: []entity.ToolCall{
				{ID: "call_1", Name: "pipeline_funnel", Arguments: "{}"},
			},
		},
		{
			Role:       entity.RoleTool,
			ToolCallID: "call_1",
			Name:       "pipeline_funnel",
			Content:    "Open deals: 4",
		},
	}

	result := convertMessages(messages)

	assert.Len(t, result, 3)
	assert.Equal(t, "user", result[0].Role)
	assert.Equal(t, "How is the pipeline?", result[0].Content)
	assert.Len(t, result[1].ToolCalls, 1)
	assert.Equal(t, "pipeline_funnel", result[1].ToolCalls[0].Function.Name)
	assert.Equal(t, "call_1", result[2].ToolCallID)
	assert.Equal(t, "Open deals: 4", result[2].Content)
}

func TestConvertTools(t *testing.T) {
	tools := []entity.ToolDefinition{
		{
			Name:        "sector_breakdown",
			Description: "Breaks revenue down by sector",
			Parameters:  map[string]interface{}{"type": "object"},
		},
	}

	result := convertTools(tools)

	assert.Len(t, result, 1)
	assert.Equal(t, openai.ToolTypeFunction, result[0].Type)
	assert.Equal(t, "sector_breakdown", result[0].Function.Name)
}
