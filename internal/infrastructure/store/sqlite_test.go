package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights-agent/internal/application/port/output"
	"insights-agent/internal/domain/entity"
	"insights-agent/internal/infrastructure/logger"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "insights.db"), logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.CreateSession(ctx, entity.Session{ID: "s1", CreatedAt: now, UpdatedAt: now}))

	sess, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)

	_, err = s.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, output.ErrSessionNotFound)
}

func TestMessagesWithMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, s.CreateSession(ctx, entity.Session{ID: "s1", CreatedAt: now, UpdatedAt: now}))

	require.NoError(t, s.AppendMessage(ctx, entity.ChatMessage{
		ID: "m1", SessionID: "s1", Role: entity.RoleUser,
		Content: "How is revenue?", CreatedAt: now,
	}))
	require.NoError(t, s.AppendMessage(ctx, entity.ChatMessage{
		ID: "m2", SessionID: "s1", Role: entity.RoleAssistant,
		Content: "Revenue is 1M.",
		Metadata: &entity.AnswerMetadata{
			Query:   "How is revenue?",
			Engine:  entity.EngineInsights,
			Intents: []string{"revenue"},
		},
		CreatedAt: now.Add(time.Second),
	}))

	msgs, err := s.Messages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, entity.RoleUser, msgs[0].Role)
	assert.Nil(t, msgs[0].Metadata)
	require.NotNil(t, msgs[1].Metadata)
	assert.Equal(t, entity.EngineInsights, msgs[1].Metadata.Engine)
	assert.Equal(t, []string{"revenue"}, msgs[1].Metadata.Intents)
}

func TestMessagesEmptySession(t *testing.T) {
	s := newTestStore(t)

	msgs, err := s.Messages(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestReportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := entity.Report{
		ID:          "r1",
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Markdown:    "# Report",
		HealthScore: 72.5,
		Revenue:     1000000,
		Pipeline:    2000000,
		Status:      "Healthy",
	}
	require.NoError(t, s.SaveReport(ctx, r))

	got, err := s.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, r.Markdown, got.Markdown)
	assert.Equal(t, r.HealthScore, got.HealthScore)

	_, err = s.GetReport(ctx, "missing")
	assert.ErrorIs(t, err, output.ErrReportNotFound)
}

func TestListReportsOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, s.SaveReport(ctx, entity.Report{
			ID:          id,
			GeneratedAt: base.Add(time.Duration(i) * time.Minute),
			Markdown:    "# Report",
			Status:      "Healthy",
		}))
	}

	reports, err := s.ListReports(ctx, 2)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "r3", reports[0].ID)
	assert.Equal(t, "r2", reports[1].ID)

	all, err := s.ListReports(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
