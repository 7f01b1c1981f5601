package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/shakil/hookpipe/internal/classify"
	"github.com/shakil/hookpipe/internal/models"
	"github.com/shakil/hookpipe/internal/signing"
	"github.com/shakil/hookpipe/internal/storage"
)

const maxPayloadSize = 1024 * 1024 // 1MB, generous for GitHub payloads

// WebhookHandler is the ingest receiver: it authenticates, classifies and
// stores every delivery, returning before any verification work happens.
type WebhookHandler struct {
	validator  *signing.Validator
	classifier *classify.Classifier
	store      storage.Storage
	log        zerolog.Logger
}

func NewWebhookHandler(validator *signing.Validator, classifier *classify.Classifier, store storage.Storage, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		validator:  validator,
		classifier: classifier,
		store:      store,
		log:        log,
	}
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if h.validator == nil {
		writeError(w, http.StatusInternalServerError, "configuration_error", "webhook secret is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadSize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return
	}

	if err := h.validator.Validate(r.Header, body); err != nil {
		if errors.Is(err, signing.ErrMissingSignature) || errors.Is(err, signing.ErrInvalidSignature) {
			writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "signature validation failed")
		return
	}

	eventType := signing.EventType(r.Header)
	deliveryID := signing.DeliveryID(r.Header)

	payload, err := classify.ParsePayload(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed_payload", "request body is not valid JSON")
		return
	}

	result := h.classifier.Classify(eventType, payload)

	evt := &models.WebhookEvent{
		ID:                  models.NewID("evt"),
		EventType:           eventType,
		DeliveryID:          deliveryID,
		ProjectName:         result.ProjectName,
		WorkItemNumber:      result.WorkItemNumber,
		Payload:             body,
		TriggerVerification: result.Trigger,
		CreatedAt:           time.Now().UTC(),
	}

	if err := h.store.CreateEvent(r.Context(), evt); err != nil {
		h.log.Error().Err(err).Str("delivery_id", deliveryID).Msg("failed to store webhook event")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to store event")
		return
	}

	h.log.Info().
		Str("event_id", evt.ID).
		Str("event_type", eventType).
		Str("delivery_id", deliveryID).
		Bool("trigger", result.Trigger).
		Msg("webhook received")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      evt.ID,
		"trigger": result.Trigger,
	})
}
