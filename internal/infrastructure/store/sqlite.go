package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"insights-agent/internal/application/port/output"
	"insights-agent/internal/domain/entity"
)

var (
	_ output.SessionStore = (*SQLiteStore)(nil)
	_ output.ReportStore  = (*SQLiteStore)(nil)
)

// SQLiteStore persists chat sessions, messages and generated reports.
// The schema is created on open.
type SQLiteStore struct {
	db     *sql.DB
	logger output.LoggerPort
}

// NewSQLiteStore opens (or creates) the database at path. Parent
// directories are created if needed.
func NewSQLiteStore(path string, logger output.LoggerPort) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL keeps readers unblocked while the chat handler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session_created
			ON messages(session_id, created_at);

		CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			generated_at DATETIME NOT NULL,
			markdown TEXT NOT NULL,
			health_score REAL NOT NULL,
			revenue REAL NOT NULL,
			pipeline REAL NOT NULL,
			status TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_reports_generated
			ON reports(generated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess entity.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)`,
		sess.ID, sess.CreatedAt.UTC(), sess.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	var sess entity.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, output.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return &sess, nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, m entity.ChatMessage) error {
	var metadata any
	if m.Metadata != nil {
		data, err := json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata: %w", err)
		}
		metadata = string(data)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, string(m.Role), m.Content, metadata, m.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`,
		time.Now().UTC(), m.SessionID)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) Messages(ctx context.Context, sessionID string) ([]entity.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, metadata, created_at
		 FROM messages WHERE session_id = ? ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []entity.ChatMessage
	for rows.Next() {
		var m entity.ChatMessage
		var role string
		var metadata sql.NullString
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = entity.MessageRole(role)
		if metadata.Valid && metadata.String != "" {
			var meta entity.AnswerMetadata
			if err := json.Unmarshal([]byte(metadata.String), &meta); err != nil {
				s.logger.Warn("Dropping unreadable message metadata", "message", m.ID, "error", err)
			} else {
				m.Metadata = &meta
			}
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *SQLiteStore) SaveReport(ctx context.Context, r entity.Report) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, generated_at, markdown, health_score, revenue, pipeline, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.GeneratedAt.UTC(), r.Markdown, r.HealthScore, r.Revenue, r.Pipeline, r.Status)
	if err != nil {
		return fmt.Errorf("inserting report: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*entity.Report, error) {
	var r entity.Report
	err := s.db.QueryRowContext(ctx,
		`SELECT id, generated_at, markdown, health_score, revenue, pipeline, status
		 FROM reports WHERE id = ?`, id).
		Scan(&r.ID, &r.GeneratedAt, &r.Markdown, &r.HealthScore, &r.Revenue, &r.Pipeline, &r.Status)
	if err == sql.ErrNoRows {
		return nil, output.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying report: %w", err)
	}
	return &r, nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, limit int) ([]entity.Report, error) {
	query := `SELECT id, generated_at, markdown, health_score, revenue, pipeline, status
		 FROM reports ORDER BY generated_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var reports []entity.Report
	for rows.Next() {
		var r entity.Report
		if err := rows.Scan(&r.ID, &r.GeneratedAt, &r.Markdown, &r.HealthScore, &r.Revenue, &r.Pipeline, &r.Status); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
