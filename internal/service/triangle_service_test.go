package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"royaltriangle/internal/domain"
	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"
	"royaltriangle/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPlaceUser_OpensTriangleWhenNoneOpen(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos()

	r.triangles.On("FindOpenForUpdate", ctx, domain.PlanQueen).Return(nil, repository.ErrNotFound)
	r.triangles.On("Create", ctx, domain.PlanQueen).Return(&models.Triangle{ID: 9, PlanType: domain.PlanQueen, Status: domain.TriangleOpen}, nil)
	r.triangles.On("NextFreePosition", ctx, uint(9)).Return(&models.Position{ID: 90, TriangleID: 9, Slot: 0}, nil)
	r.triangles.On("FillPosition", ctx, uint(90), uint(42), fixedNow).Return(true, nil)
	r.triangles.On("CountFilled", ctx, uint(9)).Return(int64(1), nil)

	p, err := placeUser(ctx, r.repos(), 42, domain.PlanQueen, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, uint(9), p.TriangleID)
	assert.Equal(t, "A", p.PositionKey)
	assert.False(t, p.Full)
	assert.Empty(t, p.Occupants)
	r.assertExpectations(t)
}

func TestPlaceUser_FifteenthFillsTriangle(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos()

	occupants := make([]uint, domain.PositionsPerTriangle)
	for i := range occupants {
		occupants[i] = uint(100 + i)
	}
	r.triangles.On("FindOpenForUpdate", ctx, domain.PlanKing).Return(&models.Triangle{ID: 3, PlanType: domain.PlanKing, Status: domain.TriangleOpen}, nil)
	r.triangles.On("NextFreePosition", ctx, uint(3)).Return(&models.Position{ID: 44, TriangleID: 3, Slot: 14}, nil)
	r.triangles.On("FillPosition", ctx, uint(44), uint(114), fixedNow).Return(true, nil)
	r.triangles.On("CountFilled", ctx, uint(3)).Return(int64(15), nil)
	r.triangles.On("Transition", ctx, uint(3), domain.TriangleOpen, domain.TriangleFull,
		map[string]interface{}{"completed_at": fixedNow}).Return(true, nil)
	r.triangles.On("OccupantIDs", ctx, uint(3)).Return(occupants, nil)

	p, err := placeUser(ctx, r.repos(), 114, domain.PlanKing, fixedNow)
	require.NoError(t, err)
	assert.True(t, p.Full)
	assert.Equal(t, "O", p.PositionKey)
	assert.Equal(t, occupants, p.Occupants)
	r.assertExpectations(t)

	events := placementEvents(114, p)
	assert.Len(t, events, 1+domain.PositionsPerTriangle)
	assert.Equal(t, domain.NotifyPlaced, events[0].kind)
	for _, e := range events[1:] {
		assert.Equal(t, domain.NotifyTriangleFull, e.kind)
	}
}

func TestPlaceUser_SlotTakenConcurrently(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos()
	r.triangles.On("FindOpenForUpdate", ctx, domain.PlanKing).Return(&models.Triangle{ID: 3, PlanType: domain.PlanKing}, nil)
	r.triangles.On("NextFreePosition", ctx, uint(3)).Return(&models.Position{ID: 31, Slot: 2}, nil)
	r.triangles.On("FillPosition", ctx, uint(31), uint(42), fixedNow).Return(false, nil)

	_, err := placeUser(ctx, r.repos(), 42, domain.PlanKing, fixedNow)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
	r.triangles.AssertNotCalled(t, "CountFilled", mock.Anything, mock.Anything)
}

func TestPlaceUser_ClosesOpenTriangleWithoutFreeSlot(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos()

	occupants := make([]uint, domain.PositionsPerTriangle)
	for i := range occupants {
		occupants[i] = uint(100 + i)
	}
	r.triangles.On("FindOpenForUpdate", ctx, domain.PlanKing).Return(&models.Triangle{ID: 3, PlanType: domain.PlanKing, Status: domain.TriangleOpen}, nil)
	r.triangles.On("NextFreePosition", ctx, uint(3)).Return(nil, repository.ErrNotFound)
	r.triangles.On("Transition", ctx, uint(3), domain.TriangleOpen, domain.TriangleFull,
		map[string]interface{}{"completed_at": fixedNow}).Return(true, nil)
	r.triangles.On("OccupantIDs", ctx, uint(3)).Return(occupants, nil)
	r.triangles.On("Create", ctx, domain.PlanKing).Return(&models.Triangle{ID: 4, PlanType: domain.PlanKing, Status: domain.TriangleOpen}, nil)
	r.triangles.On("NextFreePosition", ctx, uint(4)).Return(&models.Position{ID: 60, TriangleID: 4, Slot: 0}, nil)
	r.triangles.On("FillPosition", ctx, uint(60), uint(200), fixedNow).Return(true, nil)
	r.triangles.On("CountFilled", ctx, uint(4)).Return(int64(1), nil)

	p, err := placeUser(ctx, r.repos(), 200, domain.PlanKing, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, uint(4), p.TriangleID)
	assert.Equal(t, "A", p.PositionKey)
	assert.False(t, p.Full)
	require.NotNil(t, p.Recovered)
	assert.Equal(t, uint(3), p.Recovered.TriangleID)
	assert.Equal(t, occupants, p.Recovered.Occupants)
	r.assertExpectations(t)

	events := placementEvents(200, p)
	require.Len(t, events, 1+domain.PositionsPerTriangle)
	assert.Equal(t, uint(200), events[0].userID)
	for i, e := range events[1:] {
		assert.Equal(t, domain.NotifyTriangleFull, e.kind)
		assert.Equal(t, occupants[i], e.userID)
	}
}

func TestPlaceUser_FullTriangleClosedConcurrently(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos()
	r.triangles.On("FindOpenForUpdate", ctx, domain.PlanKing).Return(&models.Triangle{ID: 3, PlanType: domain.PlanKing}, nil)
	r.triangles.On("NextFreePosition", ctx, uint(3)).Return(nil, repository.ErrNotFound)
	r.triangles.On("Transition", ctx, uint(3), domain.TriangleOpen, domain.TriangleFull, mock.Anything).Return(false, nil)

	_, err := placeUser(ctx, r.repos(), 200, domain.PlanKing, fixedNow)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
	r.triangles.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func newTestTriangleService(r *testRepos) (*TriangleService, *mocks.MockNotifier) {
	n := &mocks.MockNotifier{}
	anyNotify(n)
	svc := NewTriangleService(r.repos(), r.uow(), n)
	svc.now = func() time.Time { return fixedNow }
	return svc, n
}

func TestTriangleService_Advance(t *testing.T) {
	ctx := context.Background()

	t.Run("queue payout", func(t *testing.T) {
		r := newTestRepos()
		svc, n := newTestTriangleService(r)
		r.triangles.On("GetByID", ctx, uint(5)).Return(&models.Triangle{ID: 5, PlanType: domain.PlanKing, Status: domain.TriangleFull}, nil)
		r.triangles.On("Transition", ctx, uint(5), domain.TriangleFull, domain.TrianglePayoutPending, map[string]interface{}{}).Return(true, nil)

		tri, err := svc.Advance(ctx, 5, domain.TrianglePayoutPending)
		require.NoError(t, err)
		assert.Equal(t, domain.TrianglePayoutPending, tri.Status)
		assert.False(t, tri.PayoutProcessed)
		r.users.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("settle credits every occupant once", func(t *testing.T) {
		r := newTestRepos()
		svc, n := newTestTriangleService(r)
		completed := fixedNow.Add(-time.Hour)
		r.triangles.On("GetByID", ctx, uint(5)).Return(&models.Triangle{
			ID: 5, PlanType: domain.PlanKing, Status: domain.TrianglePayoutPending, CompletedAt: &completed,
		}, nil)
		r.triangles.On("Transition", ctx, uint(5), domain.TrianglePayoutPending, domain.TriangleSettled,
			map[string]interface{}{"payout_processed": true, "payout_settled_at": fixedNow}).Return(true, nil)
		r.plans.On("GetByName", ctx, domain.PlanKing).Return(&models.Plan{Name: domain.PlanKing, Price: dec("100"), Payout: dec("700")}, nil)
		r.triangles.On("OccupantIDs", ctx, uint(5)).Return([]uint{1, 2, 3}, nil)
		for _, id := range []uint{1, 2, 3} {
			r.users.On("AdjustBalance", ctx, id, decEq("700"), decEq("0")).Return(nil).Once()
		}
		r.txs.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
			return tx.Type == domain.TxTypeEarning &&
				tx.Status == domain.TxStatusCompleted &&
				tx.Amount.Equal(dec("700")) &&
				strings.HasPrefix(tx.TransactionID, "EARN_")
		})).Return(nil).Times(3)

		tri, err := svc.Advance(ctx, 5, domain.TriangleSettled)
		require.NoError(t, err)
		assert.Equal(t, domain.TriangleSettled, tri.Status)
		assert.True(t, tri.PayoutProcessed)
		assert.False(t, tri.PayoutOwed())
		r.assertExpectations(t)
		n.AssertNumberOfCalls(t, "Notify", 3)
	})

	t.Run("rejects skipping a step", func(t *testing.T) {
		r := newTestRepos()
		svc, _ := newTestTriangleService(r)
		r.triangles.On("GetByID", ctx, uint(5)).Return(&models.Triangle{ID: 5, Status: domain.TriangleOpen}, nil)

		_, err := svc.Advance(ctx, 5, domain.TriangleSettled)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		r.triangles.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("full is reserved for placement", func(t *testing.T) {
		r := newTestRepos()
		svc, _ := newTestTriangleService(r)
		_, err := svc.Advance(ctx, 5, domain.TriangleFull)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("unknown triangle", func(t *testing.T) {
		r := newTestRepos()
		svc, _ := newTestTriangleService(r)
		r.triangles.On("GetByID", ctx, uint(8)).Return(nil, repository.ErrNotFound)
		_, err := svc.Advance(ctx, 8, domain.TrianglePayoutPending)
		assert.ErrorIs(t, err, ErrTriangleNotFound)
	})
}

func boardPositions(triangleID uint, occupied map[int]*models.User) []models.Position {
	out := make([]models.Position, domain.PositionsPerTriangle)
	for i := range out {
		out[i] = models.Position{ID: triangleID*100 + uint(i), TriangleID: triangleID, Slot: i}
		if u, ok := occupied[i]; ok {
			id := u.ID
			out[i].UserID = &id
			out[i].User = u
		}
	}
	return out
}

func TestTriangleService_PositionReport(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos()
	svc, _ := newTestTriangleService(r)

	tri := &models.Triangle{ID: 3, PlanType: domain.PlanKing, Status: domain.TriangleOpen}
	r.triangles.On("LatestPositionForUser", ctx, uint(42)).Return(&models.Position{ID: 302, TriangleID: 3, Slot: 2, Triangle: tri}, nil)
	r.triangles.On("ListPositions", ctx, uint(3)).Return(boardPositions(3, map[int]*models.User{
		0: {ID: 1, Username: "alice", Plan: domain.PlanKing},
		1: {ID: 2, Username: "bob", Plan: domain.PlanKing},
		2: {ID: 42, Username: "me", Plan: domain.PlanKing},
	}), nil)

	rep, err := svc.PositionReport(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "C", rep.PositionKey)
	assert.Equal(t, 3, rep.FilledPositions)
	assert.InDelta(t, 20.0, rep.Completion, 0.0001)
	assert.False(t, rep.Triangle.IsComplete)
	require.Len(t, rep.Triangle.Positions, domain.PositionsPerTriangle)
	require.NotNil(t, rep.Triangle.Positions[2].Username)
	assert.Equal(t, "me", *rep.Triangle.Positions[2].Username)
	assert.Equal(t, "D", rep.Triangle.Positions[3].PositionKey)
	assert.Nil(t, rep.Triangle.Positions[3].Username)
	assert.Nil(t, rep.Triangle.Positions[3].PlanType)
	r.triangles.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTriangleService_PositionReportSettledTriangle(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos()
	svc, _ := newTestTriangleService(r)

	tri := &models.Triangle{ID: 5, PlanType: domain.PlanKing, Status: domain.TriangleSettled}
	occupied := map[int]*models.User{}
	for i := 0; i < domain.PositionsPerTriangle; i++ {
		occupied[i] = &models.User{ID: uint(i + 1), Username: "u", Plan: domain.PlanKing}
	}
	r.triangles.On("LatestPositionForUser", ctx, uint(1)).Return(&models.Position{ID: 500, TriangleID: 5, Slot: 0, Triangle: tri}, nil)
	r.triangles.On("ListPositions", ctx, uint(5)).Return(boardPositions(5, occupied), nil)

	rep, err := svc.PositionReport(ctx, 1)
	require.NoError(t, err)
	assert.True(t, rep.Triangle.IsComplete)
	assert.Equal(t, domain.PositionsPerTriangle, rep.FilledPositions)
}

func TestTriangleService_NoPosition(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos()
	svc, _ := newTestTriangleService(r)
	r.triangles.On("LatestPositionForUser", ctx, uint(42)).Return(nil, repository.ErrNotFound)

	_, err := svc.PositionReport(ctx, 42)
	assert.ErrorIs(t, err, ErrNoPosition)
	_, err = svc.Snapshot(ctx, 42)
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestTriangleService_Snapshot(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos()
	svc, _ := newTestTriangleService(r)

	r.triangles.On("LatestPositionForUser", ctx, uint(2)).Return(&models.Position{ID: 31, TriangleID: 3, Slot: 1}, nil)
	r.triangles.On("GetByID", ctx, uint(3)).Return(&models.Triangle{ID: 3, PlanType: domain.PlanBishop, Status: domain.TriangleOpen}, nil)
	r.triangles.On("ListPositions", ctx, uint(3)).Return(boardPositions(3, map[int]*models.User{
		0: {ID: 1, Username: "alice", Plan: domain.PlanBishop},
		1: {ID: 2, Username: "bob", Plan: domain.PlanBishop},
	}), nil)

	snap, err := svc.Snapshot(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(3), snap.TriangleID)
	assert.Equal(t, 1, snap.CurrentUserPosition)
	assert.Equal(t, "B", snap.CurrentUserPositionKey)
	require.NotNil(t, snap.Positions[0])
	assert.Equal(t, "alice", snap.Positions[0].Username)
	assert.Nil(t, snap.Positions[2])
	assert.InDelta(t, 13.3333, snap.Completion, 0.001)
}
