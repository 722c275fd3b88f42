package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ysmood/gson"

	"insights-agent/internal/application/port/output"
	"insights-agent/internal/domain/entity"
)

var _ output.BoardPort = (*Client)(nil)

// ErrBoardNotFound is returned when no board matches a name pattern.
var ErrBoardNotFound = errors.New("board not found")

// Client is a read-only Monday.com GraphQL v2 client.
type Client struct {
	apiURL     string
	apiVersion string
	token      string
	httpClient *http.Client
	logger     output.LoggerPort

	// RecordCall, when set, is invoked once per API call with the
	// operation name. Used for metrics.
	RecordCall func(operation string)
}

type Config struct {
	APIURL     string
	APIVersion string
	Token      string
	Timeout    time.Duration
}

func DefaultConfig(token string) Config {
	return Config{
		APIURL:     "https://api.monday.com/v2",
		APIVersion: "2024-01",
		Token:      token,
		Timeout:    30 * time.Second,
	}
}

func NewClient(cfg Config, logger output.LoggerPort) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		apiURL:     cfg.APIURL,
		apiVersion: cfg.APIVersion,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

const listBoardsQuery = `
query {
  boards {
    id
    name
    description
    items_count
  }
}`

const boardColumnsQuery = `
query ($boardID: [ID!]!) {
  boards(ids: $boardID) {
    columns {
      id
      title
      type
    }
  }
}`

const boardRowsQuery = `
query ($boardID: [ID!]!) {
  boards(ids: $boardID) {
    items_page(limit: 500) {
      items {
        name
        column_values {
          column { title }
          text
        }
      }
    }
  }
}`

func (c *Client) ListBoards(ctx context.Context) ([]entity.Board, error) {
	data, err := c.execute(ctx, "list_boards", listBoardsQuery, nil)
	if err != nil {
		return nil, err
	}

	var boards []entity.Board
	for _, b := range data.Get("boards").Arr() {
		boards = append(boards, entity.Board{
			ID:          parseID(b.Get("id")),
			Name:        b.Get("name").Str(),
			Description: b.Get("description").Str(),
			ItemCount:   b.Get("items_count").Int(),
		})
	}
	return boards, nil
}

func (c *Client) BoardColumns(ctx context.Context, boardID int64) ([]entity.Column, error) {
	data, err := c.execute(ctx, "board_columns", boardColumnsQuery, map[string]any{
		"boardID": []string{strconv.FormatInt(boardID, 10)},
	})
	if err != nil {
		return nil, err
	}

	boards := data.Get("boards").Arr()
	if len(boards) == 0 {
		return nil, nil
	}

	var columns []entity.Column
	for _, col := range boards[0].Get("columns").Arr() {
		columns = append(columns, entity.Column{
			ID:    col.Get("id").Str(),
			Title: col.Get("title").Str(),
			Type:  col.Get("type").Str(),
		})
	}
	return columns, nil
}

// BoardRows fetches up to one items page and flattens every item into a
// Row keyed by column title. Null column values become empty strings.
func (c *Client) BoardRows(ctx context.Context, boardID int64) ([]entity.Row, error) {
	data, err := c.execute(ctx, "board_rows", boardRowsQuery, map[string]any{
		"boardID": []string{strconv.FormatInt(boardID, 10)},
	})
	if err != nil {
		return nil, err
	}

	boards := data.Get("boards").Arr()
	if len(boards) == 0 {
		return nil, nil
	}

	items := boards[0].Get("items_page").Get("items").Arr()
	rows := make([]entity.Row, 0, len(items))
	for _, item := range items {
		row := entity.Row{entity.RowItemName: item.Get("name").Str()}
		for _, cv := range item.Get("column_values").Arr() {
			title := cv.Get("column").Get("title").Str()
			if title == "" {
				continue
			}
			text := ""
			if cv.Has("text") && cv.Get("text").Val() != nil {
				text = cv.Get("text").Str()
			}
			row[title] = text
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (c *Client) FindBoard(ctx context.Context, namePattern string) (*entity.Board, error) {
	boards, err := c.ListBoards(ctx)
	if err != nil {
		return nil, err
	}

	pattern := strings.ToLower(namePattern)
	for _, b := range boards {
		if strings.Contains(strings.ToLower(b.Name), pattern) {
			board := b
			return &board, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrBoardNotFound, namePattern)
}

// execute posts one GraphQL request and returns the "data" node. An
// `errors` array in a 200 response is treated as a failure.
func (c *Client) execute(ctx context.Context, operation, query string, variables map[string]any) (gson.JSON, error) {
	if c.RecordCall != nil {
		c.RecordCall(operation)
	}

	payload := map[string]any{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return gson.JSON{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return gson.JSON{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Version", c.apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gson.JSON{}, fmt.Errorf("monday api request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gson.JSON{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return gson.JSON{}, fmt.Errorf("monday api status %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}

	parsed := gson.NewFrom(string(raw))
	if parsed.Has("errors") {
		msgs := make([]string, 0, 2)
		for _, e := range parsed.Get("errors").Arr() {
			msgs = append(msgs, e.Get("message").Str())
		}
		return gson.JSON{}, fmt.Errorf("monday api errors: %s", strings.Join(msgs, "; "))
	}

	if c.logger != nil {
		c.logger.Debug("Monday API call completed", "operation", operation, "bytes", len(raw))
	}
	return parsed.Get("data"), nil
}

func parseID(j gson.JSON) int64 {
	id, err := strconv.ParseInt(j.Str(), 10, 64)
	if err != nil {
		return int64(j.Int())
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
