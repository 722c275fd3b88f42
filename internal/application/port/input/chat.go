package input

import (
	"context"

	"insights-agent/internal/domain/entity"
)

// ChatResult is one assistant reply.
type ChatResult struct {
	SessionID string
	Reply     string
	Metadata  entity.AnswerMetadata
}

// ChatService drives a conversation: clarification handling, answer
// generation and history persistence.
type ChatService interface {
	// Ask answers a user message. An empty sessionID starts a new session.
	Ask(ctx context.Context, sessionID, message string) (*ChatResult, error)
	History(ctx context.Context, sessionID string) ([]entity.ChatMessage, error)
}

// ReportGenerator produces and persists leadership reports.
type ReportGenerator interface {
	Generate(ctx context.Context) (*entity.Report, error)
}
