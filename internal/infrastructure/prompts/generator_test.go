package prompts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights-agent/internal/application/service"
	"insights-agent/internal/domain/entity"
)

type staticTool struct {
	name        entity.ToolName
	description string
}

func (t *staticTool) Name() entity.ToolName              { return t.name }
func (t *staticTool) Description() string                { return t.description }
func (t *staticTool) Parameters() map[string]interface{} { return map[string]interface{}{} }
func (t *staticTool) Execute(ctx context.Context, args string) (string, error) {
	return "", nil
}

func TestGenerateSystemPrompt(t *testing.T) {
	registry := service.NewToolRegistry()
	registry.Register(&staticTool{name: entity.ToolConversionMetrics, description: "Computes win rate"})

	ds := &entity.Dataset{
		WorkOrders: []entity.WorkOrder{{Sector: "Infrastructure"}},
		Deals: []entity.Deal{
			{Status: entity.DealStatusWon},
			{Status: entity.DealStatusOpen},
		},
		FetchedAt: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}

	prompt, err := GenerateSystemPrompt(DefaultSystemPrompt, registry, ds)
	require.NoError(t, err)

	assert.Contains(t, prompt, "business insights assistant")
	assert.Contains(t, prompt, "conversion_metrics: Computes win rate")
	assert.Contains(t, prompt, "1 work orders, 2 deals")
	assert.Contains(t, prompt, "1 won deals")
	assert.Contains(t, prompt, "1 open deals")
}

func TestGenerateSystemPromptNoData(t *testing.T) {
	prompt, err := GenerateSystemPrompt(DefaultSystemPrompt, service.NewToolRegistry(), nil)
	require.NoError(t, err)

	assert.NotContains(t, prompt, "Current data snapshot")
}

func TestCapText(t *testing.T) {
	short, err := capText("line one\nline two", 100)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", short)

	long := strings.Repeat("board row content\n", 500)
	capped, err := capText(long, 200)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(capped), 200)
	assert.NotEmpty(t, capped)
}
