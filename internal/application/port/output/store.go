package output

import (
	"context"
	"errors"

	"insights-agent/internal/domain/entity"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrReportNotFound  = errors.New("report not found")
)

// SessionStore persists chat sessions and their messages.
type SessionStore interface {
	CreateSession(ctx context.Context, s entity.Session) error
	GetSession(ctx context.Context, id string) (*entity.Session, error)
	AppendMessage(ctx context.Context, m entity.ChatMessage) error
	Messages(ctx context.Context, sessionID string) ([]entity.ChatMessage, error)
}

// ReportStore persists generated leadership reports.
type ReportStore interface {
	SaveReport(ctx context.Context, r entity.Report) error
	GetReport(ctx context.Context, id string) (*entity.Report, error)
	ListReports(ctx context.Context, limit int) ([]entity.Report, error)
}
