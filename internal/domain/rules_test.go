package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPositionKey(t *testing.T) {
	assert.Equal(t, "A", PositionKey(0))
	assert.Equal(t, "B", PositionKey(1))
	assert.Equal(t, "O", PositionKey(14))
	assert.Equal(t, "", PositionKey(15))
	assert.Equal(t, "", PositionKey(-1))
}

func TestCompletion(t *testing.T) {
	tests := []struct {
		filled int
		want   float64
	}{
		{filled: -3, want: 0},
		{filled: 0, want: 0},
		{filled: 3, want: 20},
		{filled: 14, want: float64(14) / 15 * 100},
		{filled: 15, want: 100},
		{filled: 20, want: 100},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Completion(tt.filled), 1e-9, "filled=%d", tt.filled)
	}

	for filled := 0; filled < PositionsPerTriangle; filled++ {
		assert.Less(t, Completion(filled), 100.0)
	}
}

func TestCanTransitionTriangle(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{TriangleOpen, TriangleFull, true},
		{TriangleFull, TrianglePayoutPending, true},
		{TrianglePayoutPending, TriangleSettled, true},
		{TriangleOpen, TrianglePayoutPending, false},
		{TriangleFull, TriangleSettled, false},
		{TriangleSettled, TriangleOpen, false},
		{TriangleFull, TriangleOpen, false},
		{TrianglePayoutPending, TrianglePayoutPending, false},
		{"UNKNOWN", TriangleFull, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransitionTriangle(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestUserStatus(t *testing.T) {
	assert.Equal(t, UserStatusActive, UserStatus(true, 0))
	assert.Equal(t, UserStatusActive, UserStatus(true, 4))
	assert.Equal(t, UserStatusLocked, UserStatus(true, 5))
	assert.Equal(t, UserStatusSuspended, UserStatus(false, 5))
	assert.Equal(t, UserStatusSuspended, UserStatus(false, 0))
}

func TestValidators(t *testing.T) {
	for _, p := range []string{"King", "Queen", "Bishop", "Knight"} {
		assert.True(t, IsValidPlan(p), p)
	}
	assert.False(t, IsValidPlan("king"))
	assert.False(t, IsValidPlan("Pawn"))

	for _, s := range []string{"PENDING", "CONFIRMED", "REJECTED", "COMPLETED", "CONSOLIDATED"} {
		assert.True(t, IsValidTransactionStatus(s), s)
	}
	assert.False(t, IsValidTransactionStatus("DONE"))

	assert.True(t, IsValidUserAction("delete"))
	assert.False(t, IsValidUserAction("ban"))
}

func TestIsTriangleComplete(t *testing.T) {
	assert.False(t, IsTriangleComplete(TriangleOpen))
	for _, s := range []string{TriangleFull, TrianglePayoutPending, TriangleSettled} {
		assert.True(t, IsTriangleComplete(s), s)
	}
}

func TestReferralCode(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "ALICE_1700000000123", ReferralCode("alice", at))
}
