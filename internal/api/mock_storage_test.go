package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shakil/hookpipe/internal/models"
	"github.com/shakil/hookpipe/internal/storage"
)

// MockStorage is a mock implementation of storage.Storage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateEvent(ctx context.Context, evt *models.WebhookEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockStorage) GetEvent(ctx context.Context, id string) (*models.WebhookEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WebhookEvent), args.Error(1)
}

func (m *MockStorage) ListEvents(ctx context.Context, limit, offset int, unprocessedOnly bool) ([]models.WebhookEvent, error) {
	args := m.Called(ctx, limit, offset, unprocessedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WebhookEvent), args.Error(1)
}

func (m *MockStorage) GetUnprocessedEvents(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WebhookEvent), args.Error(1)
}

func (m *MockStorage) MarkEventProcessed(ctx context.Context, id, errorMessage string) error {
	args := m.Called(ctx, id, errorMessage)
	return args.Error(0)
}

func (m *MockStorage) GetFirstEventForWorkItem(ctx context.Context, projectName string, workItemNumber int) (*models.WebhookEvent, error) {
	args := m.Called(ctx, projectName, workItemNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WebhookEvent), args.Error(1)
}

func (m *MockStorage) GetStats(ctx context.Context) (*storage.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Stats), args.Error(1)
}

func (m *MockStorage) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStorage) Close() error {
	args := m.Called()
	return args.Error(0)
}
