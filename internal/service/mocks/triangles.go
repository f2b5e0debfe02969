package mocks

import (
	"context"
	"time"

	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockTriangleRepository struct {
	mock.Mock
}

func (m *MockTriangleRepository) triangle(args mock.Arguments) (*models.Triangle, error) {
	t, _ := args.Get(0).(*models.Triangle)
	return t, args.Error(1)
}

func (m *MockTriangleRepository) position(args mock.Arguments) (*models.Position, error) {
	p, _ := args.Get(0).(*models.Position)
	return p, args.Error(1)
}

func (m *MockTriangleRepository) GetByID(ctx context.Context, id uint) (*models.Triangle, error) {
	return m.triangle(m.Called(ctx, id))
}

func (m *MockTriangleRepository) FindOpenForUpdate(ctx context.Context, plan string) (*models.Triangle, error) {
	return m.triangle(m.Called(ctx, plan))
}

func (m *MockTriangleRepository) Create(ctx context.Context, plan string) (*models.Triangle, error) {
	return m.triangle(m.Called(ctx, plan))
}

func (m *MockTriangleRepository) NextFreePosition(ctx context.Context, triangleID uint) (*models.Position, error) {
	return m.position(m.Called(ctx, triangleID))
}

func (m *MockTriangleRepository) FillPosition(ctx context.Context, positionID, userID uint, at time.Time) (bool, error) {
	args := m.Called(ctx, positionID, userID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockTriangleRepository) CountFilled(ctx context.Context, triangleID uint) (int64, error) {
	args := m.Called(ctx, triangleID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTriangleRepository) Transition(ctx context.Context, id uint, from, to string, updates map[string]interface{}) (bool, error) {
	args := m.Called(ctx, id, from, to, updates)
	return args.Bool(0), args.Error(1)
}

func (m *MockTriangleRepository) LatestPositionForUser(ctx context.Context, userID uint) (*models.Position, error) {
	return m.position(m.Called(ctx, userID))
}

func (m *MockTriangleRepository) LatestPositionsForUsers(ctx context.Context, userIDs []uint) (map[uint]models.Position, error) {
	args := m.Called(ctx, userIDs)
	out, _ := args.Get(0).(map[uint]models.Position)
	return out, args.Error(1)
}

func (m *MockTriangleRepository) ListPositions(ctx context.Context, triangleID uint) ([]models.Position, error) {
	args := m.Called(ctx, triangleID)
	list, _ := args.Get(0).([]models.Position)
	return list, args.Error(1)
}

func (m *MockTriangleRepository) OccupantIDs(ctx context.Context, triangleID uint) ([]uint, error) {
	args := m.Called(ctx, triangleID)
	ids, _ := args.Get(0).([]uint)
	return ids, args.Error(1)
}

func (m *MockTriangleRepository) List(ctx context.Context, f repository.TriangleFilter) ([]repository.TriangleFill, int64, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]repository.TriangleFill)
	return list, args.Get(1).(int64), args.Error(2)
}
