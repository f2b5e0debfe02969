package domain

import (
	"fmt"
	"strings"
	"time"
)

func IsValidPlan(name string) bool {
	for _, p := range Plans {
		if p == name {
			return true
		}
	}
	return false
}

func IsValidTransactionStatus(status string) bool {
	for _, s := range TransactionStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsValidUserAction(action string) bool {
	switch action {
	case UserActionSuspend, UserActionActivate, UserActionDelete:
		return true
	}
	return false
}

// PositionKey maps a slot index to its display letter (0 -> A, 14 -> O).
func PositionKey(slot int) string {
	if slot < 0 || slot >= PositionsPerTriangle {
		return ""
	}
	return string(rune('A' + slot))
}

// Completion returns the fill percentage of a triangle, clamped to [0, 100].
func Completion(filled int) float64 {
	switch {
	case filled <= 0:
		return 0
	case filled >= PositionsPerTriangle:
		return 100
	}
	return float64(filled) / PositionsPerTriangle * 100
}

var triangleNext = map[string]string{
	TriangleOpen:          TriangleFull,
	TriangleFull:          TrianglePayoutPending,
	TrianglePayoutPending: TriangleSettled,
}

// CanTransitionTriangle allows exactly one forward step of the payout lifecycle.
func CanTransitionTriangle(from, to string) bool {
	next, ok := triangleNext[from]
	return ok && next == to
}

// IsTriangleComplete is true once all slots were filled, whatever the payout state.
func IsTriangleComplete(status string) bool {
	switch status {
	case TriangleFull, TrianglePayoutPending, TriangleSettled:
		return true
	}
	return false
}

// UserStatus derives the admin-facing account status.
func UserStatus(isActive bool, loginAttempts int) string {
	if !isActive {
		return UserStatusSuspended
	}
	if loginAttempts >= LockedLoginAttempts {
		return UserStatusLocked
	}
	return UserStatusActive
}

func ReferralCode(username string, at time.Time) string {
	return fmt.Sprintf("%s_%d", strings.ToUpper(username), at.UnixMilli())
}
