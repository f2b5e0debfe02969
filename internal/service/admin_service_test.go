package service

import (
	"context"
	"testing"

	"royaltriangle/internal/domain"
	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"
	"royaltriangle/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdminService_ApplyUserAction(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		action   string
		active   bool
		attempts int
		status   string
	}{
		{domain.UserActionSuspend, false, domain.LockedLoginAttempts, domain.UserStatusSuspended},
		{domain.UserActionDelete, false, domain.LockedLoginAttempts, domain.UserStatusSuspended},
		{domain.UserActionActivate, true, 0, domain.UserStatusActive},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			r := newTestRepos()
			svc := NewAdminService(r.repos(), &mocks.MockOverviewReader{})
			r.users.On("SetActive", ctx, uint(5), tt.active, tt.attempts).Return(nil)
			r.users.On("GetByID", ctx, uint(5)).Return(&models.User{ID: 5, IsActive: tt.active, LoginAttempts: tt.attempts}, nil)

			u, err := svc.ApplyUserAction(ctx, 5, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.status, u.Status())
			r.assertExpectations(t)
		})
	}

	t.Run("suspend then activate", func(t *testing.T) {
		r := newTestRepos()
		svc := NewAdminService(r.repos(), &mocks.MockOverviewReader{})
		r.users.On("SetActive", ctx, uint(5), false, domain.LockedLoginAttempts).Return(nil).Once()
		r.users.On("GetByID", ctx, uint(5)).Return(&models.User{ID: 5, IsActive: false, LoginAttempts: 5}, nil).Once()
		r.users.On("SetActive", ctx, uint(5), true, 0).Return(nil).Once()
		r.users.On("GetByID", ctx, uint(5)).Return(&models.User{ID: 5, IsActive: true}, nil).Once()

		u, err := svc.ApplyUserAction(ctx, 5, domain.UserActionSuspend)
		require.NoError(t, err)
		assert.Equal(t, domain.UserStatusSuspended, u.Status())
		u, err = svc.ApplyUserAction(ctx, 5, domain.UserActionActivate)
		require.NoError(t, err)
		assert.Equal(t, domain.UserStatusActive, u.Status())
		r.assertExpectations(t)
	})

	t.Run("unknown action", func(t *testing.T) {
		r := newTestRepos()
		svc := NewAdminService(r.repos(), &mocks.MockOverviewReader{})
		_, err := svc.ApplyUserAction(ctx, 5, "ban")
		assert.ErrorIs(t, err, ErrInvalidAction)
		r.users.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		r := newTestRepos()
		svc := NewAdminService(r.repos(), &mocks.MockOverviewReader{})
		r.users.On("SetActive", ctx, uint(404), false, domain.LockedLoginAttempts).Return(repository.ErrNotFound)
		_, err := svc.ApplyUserAction(ctx, 404, domain.UserActionSuspend)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestAdminService_ListUsers(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos()
	svc := NewAdminService(r.repos(), &mocks.MockOverviewReader{})

	filter := repository.UserFilter{Search: "bo", Page: repository.Page{Page: 1, Limit: 20}}
	r.users.On("List", ctx, filter).Return([]models.User{
		{ID: 1, Username: "bob", IsActive: true, LoginAttempts: 5},
		{ID: 2, Username: "bonnie", IsActive: true},
	}, int64(2), nil)
	r.triangles.On("LatestPositionsForUsers", ctx, []uint{1, 2}).Return(map[uint]models.Position{
		1: {ID: 10, TriangleID: 3, Slot: 4},
	}, nil)

	page, err := svc.ListUsers(ctx, repository.UserFilter{Search: "bo", Status: "all"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Users, 2)
	assert.Equal(t, domain.UserStatusLocked, page.Users[0].Status)
	require.NotNil(t, page.Users[0].PositionKey)
	assert.Equal(t, "E", *page.Users[0].PositionKey)
	assert.Equal(t, uint(3), *page.Users[0].TriangleID)
	assert.Equal(t, 4, *page.Users[0].TrianglePosition)
	assert.Nil(t, page.Users[1].TriangleID)
	r.assertExpectations(t)
}

func TestAdminService_Overview(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos()
	ov := &mocks.MockOverviewReader{}
	svc := NewAdminService(r.repos(), ov)

	ov.On("Stats", ctx).Return(&repository.OverviewStats{TotalUsers: 3, PendingDeposits: 1, TotalRevenue: dec("150")}, nil)
	ov.On("RecentTransactions", ctx, uint64(overviewRecentLimit)).Return([]repository.TransactionRow{
		{ID: 9, Username: "bob", Type: domain.TxTypeDeposit, Plan: domain.PlanKing, Amount: dec("100"), Status: domain.TxStatusPending},
	}, nil)
	ov.On("PendingActions", ctx, uint64(overviewPendingLimit)).Return([]repository.TransactionRow{
		{ID: 9, Username: "bob", Type: domain.TxTypeDeposit, Amount: dec("100")},
		{ID: 11, Username: "carol", Type: domain.TxTypePayout, Amount: dec("20")},
	}, nil)
	ov.On("TriangleCounts", ctx, []string{domain.TriangleOpen}).Return([]repository.PlanCount{{PlanType: domain.PlanKing, Count: 2}}, nil)
	ov.On("TriangleCounts", ctx, []string{domain.TriangleFull, domain.TrianglePayoutPending, domain.TriangleSettled}).Return([]repository.PlanCount{}, nil)

	out, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Stats.TotalUsers)
	require.Len(t, out.RecentTransactions, 1)
	assert.Equal(t, "deposit", out.RecentTransactions[0].Type)
	assert.Equal(t, "pending", out.RecentTransactions[0].Status)
	require.Len(t, out.PendingActions, 2)
	assert.Equal(t, "deposit_approval", out.PendingActions[0].Type)
	assert.Equal(t, "payout_approval", out.PendingActions[1].Type)
	assert.Len(t, out.Triangles.Active, 1)
	assert.Empty(t, out.Triangles.Completed)
	ov.AssertExpectations(t)
}

func TestAdminService_ListTransactionsRejectsUnknownStatus(t *testing.T) {
	r := newTestRepos()
	svc := NewAdminService(r.repos(), &mocks.MockOverviewReader{})
	_, err := svc.ListTransactions(context.Background(), repository.TransactionFilter{Status: "lost"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
