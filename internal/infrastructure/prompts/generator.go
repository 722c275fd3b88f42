package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/tmc/langchaingo/textsplitter"

	"insights-agent/internal/application/port/output"
	"insights-agent/internal/domain/entity"
)

// maxDataContextChars bounds the dataset snapshot injected into the
// system prompt so large boards cannot blow up the context window.
const maxDataContextChars = 4000

type ToolInfo struct {
	Name        string
	Description string
}

type SystemPromptData struct {
	Tools       []ToolInfo
	DataContext string
}

// GenerateSystemPrompt renders the base template with the registered
// tools and a bounded summary of the current dataset. ds may be nil when
// no data has been fetched yet.
func GenerateSystemPrompt(baseTemplate string, tools output.ToolRegistry, ds *entity.Dataset) (string, error) {
	data := SystemPromptData{}

	if tools != nil {
		for _, def := range tools.Definitions() {
			data.Tools = append(data.Tools, ToolInfo{
				Name:        def.Name,
				Description: def.Description,
			})
		}
	}

	if ds != nil && !ds.Empty() {
		ctx, err := capText(datasetContext(ds), maxDataContextChars)
		if err != nil {
			return "", err
		}
		data.DataContext = ctx
	}

	tmpl, err := template.New("system").Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func datasetContext(ds *entity.Dataset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %d work orders, %d deals (fetched %s)\n",
		len(ds.WorkOrders), len(ds.Deals), ds.FetchedAt.Format("2006-01-02 15:04"))

	sectors := make(map[string]int)
	for _, wo := range ds.WorkOrders {
		if wo.Sector != "" {
			sectors[wo.Sector]++
		}
	}
	if len(sectors) > 0 {
		fmt.Fprintf(&b, "- %d sectors represented in work orders\n", len(sectors))
	}

	statuses := make(map[string]int)
	for _, d := range ds.Deals {
		if d.Status != "" {
			statuses[d.Status]++
		}
	}
	for _, status := range []string{entity.DealStatusOpen, entity.DealStatusWon, entity.DealStatusLost} {
		if n := statuses[status]; n > 0 {
			fmt.Fprintf(&b, "- %d %s deals\n", n, strings.ToLower(status))
		}
	}
	return b.String()
}

// capText trims text to at most limit characters, cutting on natural
// boundaries rather than mid-line.
func capText(text string, limit int) (string, error) {
	if len(text) <= limit {
		return text, nil
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(limit),
		textsplitter.WithChunkOverlap(0),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return "", fmt.Errorf("split data context: %w", err)
	}
	if len(chunks) == 0 {
		return "", nil
	}
	return chunks[0], nil
}
