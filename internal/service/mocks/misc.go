package mocks

import (
	"context"
	"time"

	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	args := m.Called(ctx, keys)
	out, _ := args.Get(0).(map[string]string)
	return out, args.Error(1)
}

func (m *MockSettingRepository) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationRepository) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit, offset)
	list, _ := args.Get(0).([]models.Notification)
	return list, args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID uint, at time.Time) error {
	return m.Called(ctx, id, userID, at).Error(0)
}

type MockOverviewReader struct {
	mock.Mock
}

func (m *MockOverviewReader) Stats(ctx context.Context) (*repository.OverviewStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*repository.OverviewStats)
	return s, args.Error(1)
}

func (m *MockOverviewReader) RecentTransactions(ctx context.Context, limit uint64) ([]repository.TransactionRow, error) {
	args := m.Called(ctx, limit)
	rows, _ := args.Get(0).([]repository.TransactionRow)
	return rows, args.Error(1)
}

func (m *MockOverviewReader) PendingActions(ctx context.Context, limit uint64) ([]repository.TransactionRow, error) {
	args := m.Called(ctx, limit)
	rows, _ := args.Get(0).([]repository.TransactionRow)
	return rows, args.Error(1)
}

func (m *MockOverviewReader) TriangleCounts(ctx context.Context, statuses ...string) ([]repository.PlanCount, error) {
	args := m.Called(ctx, statuses)
	out, _ := args.Get(0).([]repository.PlanCount)
	return out, args.Error(1)
}

// MockNotifier records every notification it is asked to send.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID uint, kind, title, body string, data map[string]interface{}) {
	m.Called(ctx, userID, kind, title, body, data)
}

type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) BroadcastToUser(userID uint, payload interface{}) {
	m.Called(userID, payload)
}

func (m *MockBroadcaster) BroadcastAdmins(payload interface{}) {
	m.Called(payload)
}
