package storage

import (
	"context"

	"github.com/shakil/hookpipe/internal/models"
)

type Storage interface {
	// Events
	CreateEvent(ctx context.Context, evt *models.WebhookEvent) error
	GetEvent(ctx context.Context, id string) (*models.WebhookEvent, error)
	ListEvents(ctx context.Context, limit, offset int, unprocessedOnly bool) ([]models.WebhookEvent, error)
	GetUnprocessedEvents(ctx context.Context, limit int) ([]models.WebhookEvent, error)
	MarkEventProcessed(ctx context.Context, id, errorMessage string) error
	GetFirstEventForWorkItem(ctx context.Context, projectName string, workItemNumber int) (*models.WebhookEvent, error)

	// Stats
	GetStats(ctx context.Context) (*Stats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

type Stats struct {
	TotalEvents     int64   `json:"total_events"`
	ProcessedEvents int64   `json:"processed_events"`
	PendingEvents   int64   `json:"pending_events"`
	TriggerEvents   int64   `json:"trigger_events"`
	FailedEvents    int64   `json:"failed_events"`
	SuccessRate     float64 `json:"success_rate"`
}
