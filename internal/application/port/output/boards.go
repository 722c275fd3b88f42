package output

import (
	"context"

	"insights-agent/internal/domain/entity"
)

// BoardPort is read-only access to the work-management boards.
type BoardPort interface {
	ListBoards(ctx context.Context) ([]entity.Board, error)
	BoardColumns(ctx context.Context, boardID int64) ([]entity.Column, error)
	BoardRows(ctx context.Context, boardID int64) ([]entity.Row, error)
	FindBoard(ctx context.Context, namePattern string) (*entity.Board, error)
}

// DatasetPort serves cleaned snapshots of the two boards the agent reasons
// about.
type DatasetPort interface {
	Dataset(ctx context.Context) (*entity.Dataset, error)
	Refresh(ctx context.Context) (*entity.Dataset, error)
}
