package models

import (
	"encoding/json"
	"time"
)

// WebhookEvent is one stored webhook delivery. Every accepted delivery
// produces a row, whether or not it triggers verification; the payload is
// kept verbatim so owner/repo addressing can be recovered later.
type WebhookEvent struct {
	ID                  string          `json:"id"`
	EventType           string          `json:"event_type"`
	DeliveryID          string          `json:"delivery_id,omitempty"`
	ProjectName         *string         `json:"project_name,omitempty"`
	WorkItemNumber      *int            `json:"work_item_number,omitempty"`
	Payload             json.RawMessage `json:"payload"`
	TriggerVerification bool            `json:"trigger_verification"`
	Processed           bool            `json:"processed"`
	ProcessedAt         *time.Time      `json:"processed_at,omitempty"`
	ErrorMessage        string          `json:"error_message,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}
