package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"royaltriangle/internal/domain"
	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"
	"royaltriangle/pkg/logger"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ReferralBonusSource interface {
	ReferralBonusPercent(ctx context.Context) (decimal.Decimal, error)
}

// SettlementService applies admin status changes to transactions. The balance
// effect of a transaction is applied on its first transition to COMPLETED only.
type SettlementService struct {
	uow      UnitOfWork
	bonus    ReferralBonusSource
	notifier Notifier
	now      func() time.Time
}

func NewSettlementService(uow UnitOfWork, bonus ReferralBonusSource, notifier Notifier) *SettlementService {
	return &SettlementService{uow: uow, bonus: bonus, notifier: notifier, now: time.Now}
}

func (s *SettlementService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Transaction, error) {
	if !domain.IsValidTransactionStatus(status) {
		return nil, ErrInvalidStatus
	}
	pct, err := s.bonus.ReferralBonusPercent(ctx)
	if err != nil {
		return nil, err
	}

	var (
		result *models.Transaction
		events []event
	)
	err = s.uow.Do(ctx, func(r Repos) error {
		events = nil
		tx, err := r.Transactions.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrTransactionNotFound)
		}
		if tx.Status == status {
			result = tx
			return nil
		}

		var settledAt *time.Time
		apply := status == domain.TxStatusCompleted && tx.SettledAt == nil
		now := s.now()
		if apply {
			settledAt = &now
		}
		ok, err := r.Transactions.Transition(ctx, tx.ID, tx.Status, status, settledAt)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConcurrentUpdate
		}
		tx.Status = status
		if apply {
			tx.SettledAt = settledAt
			if events, err = s.apply(ctx, r, tx, pct, now); err != nil {
				return err
			}
		} else {
			events = append(events, event{
				userID: tx.UserID,
				kind:   domain.NotifyTransaction,
				title:  "Transaction updated",
				body:   fmt.Sprintf("Your %s %s is now %s", tx.Type, tx.TransactionID, status),
				data:   map[string]interface{}{"transactionId": tx.TransactionID, "status": status},
			})
		}
		result = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	dispatch(ctx, s.notifier, events)
	return result, nil
}

func (s *SettlementService) apply(ctx context.Context, r Repos, tx *models.Transaction, pct decimal.Decimal, now time.Time) ([]event, error) {
	switch tx.Type {
	case domain.TxTypeDeposit:
		return s.settleDeposit(ctx, r, tx, pct, now)
	case domain.TxTypePayout:
		if err := r.Users.AdjustBalance(ctx, tx.UserID, tx.Amount.Neg(), tx.Amount); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		return []event{{
			userID: tx.UserID,
			kind:   domain.NotifyPayoutCompleted,
			title:  "Payout sent",
			body:   fmt.Sprintf("Your payout of %s has been completed", tx.Amount.String()),
			data:   map[string]interface{}{"transactionId": tx.TransactionID, "amount": tx.Amount},
		}}, nil
	}
	return nil, nil
}

func (s *SettlementService) settleDeposit(ctx context.Context, r Repos, tx *models.Transaction, pct decimal.Decimal, now time.Time) ([]event, error) {
	if err := r.Users.AdjustBalance(ctx, tx.UserID, tx.Amount, decimal.Zero); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	user, err := r.Users.GetByID(ctx, tx.UserID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	events := []event{{
		userID: user.ID,
		kind:   domain.NotifyDepositConfirmed,
		title:  "Deposit confirmed",
		body:   fmt.Sprintf("Your deposit of %s has been confirmed", tx.Amount.String()),
		data:   map[string]interface{}{"transactionId": tx.TransactionID, "amount": tx.Amount},
	}}

	placement, err := placeUser(ctx, r, user.ID, user.Plan, now)
	if err != nil {
		return nil, errors.Wrapf(err, "place user %d", user.ID)
	}
	events = append(events, placementEvents(user.ID, placement)...)

	bonusEvents, err := creditReferral(ctx, r, user, tx, pct, now)
	if err != nil {
		return nil, err
	}
	return append(events, bonusEvents...), nil
}

// creditReferral pays the upline pct percent of a settled deposit. A missing
// upline or a zero percent pays nothing.
func creditReferral(ctx context.Context, r Repos, user *models.User, deposit *models.Transaction, pct decimal.Decimal, now time.Time) ([]event, error) {
	if user.UplineID == nil || !pct.IsPositive() {
		return nil, nil
	}
	bonus := deposit.Amount.Mul(pct).Div(decimal.NewFromInt(100)).Round(8)
	if !bonus.IsPositive() {
		return nil, nil
	}
	uplineID := *user.UplineID
	err := r.Users.AdjustBalance(ctx, uplineID, bonus, decimal.Zero)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Logger().Info("upline no longer exists, skipping referral bonus",
			zap.Uint("user_id", user.ID), zap.Uint("upline_id", uplineID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	meta, _ := json.Marshal(map[string]interface{}{
		"referredUserId": user.ID,
		"depositId":      deposit.TransactionID,
		"percent":        pct,
	})
	settled := now
	err = r.Transactions.Create(ctx, &models.Transaction{
		UserID:        uplineID,
		Type:          domain.TxTypeReferral,
		Amount:        bonus,
		Status:        domain.TxStatusCompleted,
		TransactionID: newReference(domain.RefPrefixReferral),
		Description:   fmt.Sprintf("Referral bonus from %s", user.Username),
		Metadata:      string(meta),
		SettledAt:     &settled,
	})
	if err != nil {
		return nil, err
	}
	return []event{{
		userID: uplineID,
		kind:   domain.NotifyReferralBonus,
		title:  "Referral bonus",
		body:   fmt.Sprintf("You earned %s from %s's deposit", bonus.String(), user.Username),
		data:   map[string]interface{}{"amount": bonus, "referredUser": user.Username},
	}}, nil
}
