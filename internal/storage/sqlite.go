package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shakil/hookpipe/internal/models"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS webhook_events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			delivery_id TEXT NOT NULL DEFAULT '',
			project_name TEXT,
			work_item_number INTEGER,
			payload TEXT NOT NULL,
			trigger_verification INTEGER NOT NULL DEFAULT 0,
			processed INTEGER NOT NULL DEFAULT 0,
			processed_at DATETIME,
			error_message TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_unprocessed ON webhook_events(processed, created_at) WHERE processed = 0`,
		`CREATE INDEX IF NOT EXISTS idx_events_work_item ON webhook_events(project_name, work_item_number, created_at)`,
	}

	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- Events ---

func (s *SQLiteStorage) CreateEvent(ctx context.Context, evt *models.WebhookEvent) error {
	trigger := 0
	if evt.TriggerVerification {
		trigger = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO webhook_events (id, event_type, delivery_id, project_name, work_item_number, payload, trigger_verification, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		evt.ID, evt.EventType, evt.DeliveryID, evt.ProjectName, evt.WorkItemNumber, string(evt.Payload), trigger, evt.CreatedAt,
	)
	return err
}

const eventColumns = `id, event_type, delivery_id, project_name, work_item_number, payload, trigger_verification, processed, processed_at, error_message, created_at`

func (s *SQLiteStorage) scanEvent(row interface{ Scan(...interface{}) error }) (*models.WebhookEvent, error) {
	var evt models.WebhookEvent
	var payload string
	var trigger, processed int
	err := row.Scan(&evt.ID, &evt.EventType, &evt.DeliveryID, &evt.ProjectName, &evt.WorkItemNumber,
		&payload, &trigger, &processed, &evt.ProcessedAt, &evt.ErrorMessage, &evt.CreatedAt)
	if err != nil {
		return nil, err
	}
	evt.Payload = json.RawMessage(payload)
	evt.TriggerVerification = trigger == 1
	evt.Processed = processed == 1
	return &evt, nil
}

func (s *SQLiteStorage) GetEvent(ctx context.Context, id string) (*models.WebhookEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM webhook_events WHERE id = ?`, id)
	evt, err := s.scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return evt, err
}

func (s *SQLiteStorage) ListEvents(ctx context.Context, limit, offset int, unprocessedOnly bool) ([]models.WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + eventColumns + ` FROM webhook_events`
	if unprocessedOnly {
		query += ` WHERE processed = 0`
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.WebhookEvent
	for rows.Next() {
		evt, err := s.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *evt)
	}
	return events, rows.Err()
}

func (s *SQLiteStorage) GetUnprocessedEvents(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM webhook_events WHERE processed = 0 ORDER BY created_at ASC LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.WebhookEvent
	for rows.Next() {
		evt, err := s.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *evt)
	}
	return events, rows.Err()
}

// MarkEventProcessed records the terminal processing attempt. The
// processed = 0 predicate makes a second mark for the same id a no-op, so
// the first attempt's outcome is never overwritten.
func (s *SQLiteStorage) MarkEventProcessed(ctx context.Context, id, errorMessage string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE webhook_events SET processed = 1, processed_at = ?, error_message = ? WHERE id = ? AND processed = 0`,
		time.Now().UTC(), errorMessage, id,
	)
	return err
}

func (s *SQLiteStorage) GetFirstEventForWorkItem(ctx context.Context, projectName string, workItemNumber int) (*models.WebhookEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM webhook_events
		 WHERE project_name = ? AND work_item_number = ?
		 ORDER BY created_at ASC LIMIT 1`,
		projectName, workItemNumber)
	evt, err := s.scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return evt, err
}

// --- Stats ---

func (s *SQLiteStorage) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_events`).Scan(&stats.TotalEvents)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_events WHERE processed = 1`).Scan(&stats.ProcessedEvents)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_events WHERE processed = 0`).Scan(&stats.PendingEvents)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_events WHERE trigger_verification = 1`).Scan(&stats.TriggerEvents)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_events WHERE processed = 1 AND error_message != ''`).Scan(&stats.FailedEvents)

	if stats.ProcessedEvents > 0 {
		stats.SuccessRate = float64(stats.ProcessedEvents-stats.FailedEvents) / float64(stats.ProcessedEvents) * 100
	}

	return stats, nil
}
