package service

import (
	"errors"

	"royaltriangle/internal/repository"
)

// Validation failures.
var (
	ErrUserExists           = errors.New("username or wallet address already registered")
	ErrInvalidPlan          = errors.New("invalid plan type")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrInvalidWalletAddress = errors.New("invalid wallet address")
	ErrInvalidStatus        = errors.New("invalid transaction status")
	ErrInvalidAction        = errors.New("invalid action")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInsufficientBalance  = repository.ErrInsufficientBalance
	ErrInvalidTransition    = errors.New("invalid triangle status transition")
	ErrInvalidSettings      = errors.New("invalid settings")
)

// Authentication failures.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account locked after too many failed attempts")
	ErrAccountDisabled    = errors.New("account is suspended")
)

// Missing records.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrTriangleNotFound     = errors.New("triangle not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoPosition           = errors.New("User has not joined any triangle yet")
)

var (
	ErrConcurrentUpdate     = errors.New("record was modified concurrently, retry")
	ErrDepositNotConfigured = errors.New("deposit wallet is not configured")
)

// notFound maps repository.ErrNotFound to target and passes other errors through.
func notFound(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}
