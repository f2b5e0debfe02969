package mocks

import (
	"context"
	"time"

	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*models.Transaction)
	return t, args.Error(1)
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	list, _ := args.Get(0).([]models.Transaction)
	return list, args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, f repository.TransactionFilter) ([]models.Transaction, int64, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]models.Transaction)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) Transition(ctx context.Context, id uint, from, to string, settledAt *time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, settledAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) SumByUser(ctx context.Context, userID uint, txType, status string) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, txType, status)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
