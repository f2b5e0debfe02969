package mocks

import (
	"context"

	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) user(args mock.Arguments) (*models.User, error) {
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserRepository) GetForUpdate(ctx context.Context, id uint) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.user(m.Called(ctx, username))
}

func (m *MockUserRepository) FindByUsernameOrWallet(ctx context.Context, username, wallet string) (*models.User, error) {
	return m.user(m.Called(ctx, username, wallet))
}

func (m *MockUserRepository) FindReferrer(ctx context.Context, ident string) (*models.User, error) {
	return m.user(m.Called(ctx, ident))
}

func (m *MockUserRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) AdjustBalance(ctx context.Context, id uint, balanceDelta, earnedDelta decimal.Decimal) error {
	return m.Called(ctx, id, balanceDelta, earnedDelta).Error(0)
}

func (m *MockUserRepository) SetActive(ctx context.Context, id uint, active bool, loginAttempts int) error {
	return m.Called(ctx, id, active, loginAttempts).Error(0)
}

func (m *MockUserRepository) IncrementLoginAttempts(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) ResetLoginAttempts(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) ListByUpline(ctx context.Context, uplineID uint, p repository.Page) ([]models.User, int64, error) {
	args := m.Called(ctx, uplineID, p)
	list, _ := args.Get(0).([]models.User)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) List(ctx context.Context, f repository.UserFilter) ([]models.User, int64, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]models.User)
	return list, args.Get(1).(int64), args.Error(2)
}

type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) GetByName(ctx context.Context, name string) (*models.Plan, error) {
	args := m.Called(ctx, name)
	p, _ := args.Get(0).(*models.Plan)
	return p, args.Error(1)
}

func (m *MockPlanRepository) List(ctx context.Context) ([]models.Plan, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Plan)
	return list, args.Error(1)
}
