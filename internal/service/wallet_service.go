package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"royaltriangle/internal/domain"
	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	walletHistoryLimit      = 100
	defaultTransactionLimit = 50
	maxTransactionLimit     = 200
)

type WalletService struct {
	repos    Repos
	uow      UnitOfWork
	notifier Notifier
}

func NewWalletService(repos Repos, uow UnitOfWork, notifier Notifier) *WalletService {
	return &WalletService{repos: repos, uow: uow, notifier: notifier}
}

type PositionInfo struct {
	PositionKey        string          `json:"positionKey"`
	TriangleComplete   bool            `json:"triangleComplete"`
	EarnedFromPosition decimal.Decimal `json:"earnedFromPosition"`
	FilledPositions    int64           `json:"filledPositions"`
}

type HistoryEntry struct {
	ID            uint            `json:"id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transactionId,omitempty"`
	Date          string          `json:"date"`
}

type WalletReport struct {
	Balance         decimal.Decimal `json:"balance"`
	PendingEarnings decimal.Decimal `json:"pendingEarnings"`
	TotalEarned     decimal.Decimal `json:"totalEarned"`
	ReferralBonus   decimal.Decimal `json:"referralBonus"`
	PositionInfo    *PositionInfo   `json:"positionInfo"`
	History         []HistoryEntry  `json:"history"`
}

func (s *WalletService) Wallet(ctx context.Context, userID uint) (*WalletReport, error) {
	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	referral, err := s.repos.Transactions.SumByUser(ctx, userID, domain.TxTypeReferral, domain.TxStatusCompleted)
	if err != nil {
		return nil, err
	}
	report := &WalletReport{
		Balance:         u.Balance,
		PendingEarnings: decimal.Zero,
		TotalEarned:     u.TotalEarned,
		ReferralBonus:   referral,
	}

	pos, err := s.repos.Triangles.LatestPositionForUser(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		if report.PositionInfo, report.PendingEarnings, err = s.positionInfo(ctx, pos); err != nil {
			return nil, err
		}
	}

	txs, err := s.repos.Transactions.ListByUser(ctx, userID, walletHistoryLimit)
	if err != nil {
		return nil, err
	}
	report.History = make([]HistoryEntry, len(txs))
	for i, t := range txs {
		report.History[i] = HistoryEntry{
			ID:            t.ID,
			Type:          strings.ToLower(t.Type),
			Amount:        t.Amount,
			Status:        strings.ToLower(t.Status),
			TransactionID: t.TransactionID,
			Date:          t.CreatedAt.Format("2006-01-02"),
		}
	}
	return report, nil
}

// positionInfo reports the current position and the payout still owed for it.
func (s *WalletService) positionInfo(ctx context.Context, pos *models.Position) (*PositionInfo, decimal.Decimal, error) {
	tri := pos.Triangle
	if tri == nil {
		var err error
		if tri, err = s.repos.Triangles.GetByID(ctx, pos.TriangleID); err != nil {
			return nil, decimal.Zero, notFound(err, ErrTriangleNotFound)
		}
	}
	filled, err := s.repos.Triangles.CountFilled(ctx, tri.ID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	payout := decimal.Zero
	plan, err := s.repos.Plans.GetByName(ctx, tri.PlanType)
	switch {
	case err == nil:
		payout = plan.Payout
	case !errors.Is(err, repository.ErrNotFound):
		return nil, decimal.Zero, err
	}

	info := &PositionInfo{
		PositionKey:        domain.PositionKey(pos.Slot),
		TriangleComplete:   tri.CompletedAt != nil,
		EarnedFromPosition: decimal.Zero,
		FilledPositions:    filled,
	}
	if info.TriangleComplete {
		info.EarnedFromPosition = payout
	}
	pending := decimal.Zero
	if tri.PayoutOwed() {
		pending = payout
	}
	return info, pending, nil
}

// RequestPayout records a pending payout. The amount may not exceed the
// balance minus payouts already requested but not yet completed.
func (s *WalletService) RequestPayout(ctx context.Context, userID uint, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	amount = amount.Round(8)
	var tx *models.Transaction
	err := s.uow.Do(ctx, func(r Repos) error {
		u, err := r.Users.GetForUpdate(ctx, userID)
		if err != nil {
			return notFound(err, ErrUserNotFound)
		}
		available := u.Balance
		for _, status := range []string{domain.TxStatusPending, domain.TxStatusConfirmed} {
			held, err := r.Transactions.SumByUser(ctx, userID, domain.TxTypePayout, status)
			if err != nil {
				return err
			}
			available = available.Sub(held)
		}
		if amount.GreaterThan(available) {
			return ErrInsufficientBalance
		}
		tx = &models.Transaction{
			UserID:        userID,
			Type:          domain.TxTypePayout,
			Amount:        amount,
			Status:        domain.TxStatusPending,
			TransactionID: newReference(domain.RefPrefixPayout),
			Description:   fmt.Sprintf("Payout to %s", u.WalletAddress),
		}
		return r.Transactions.Create(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	dispatch(ctx, s.notifier, []event{{
		userID: userID,
		kind:   domain.NotifyTransaction,
		title:  "Payout requested",
		body:   fmt.Sprintf("Your payout request of %s is pending review", amount.String()),
		data:   map[string]interface{}{"transactionId": tx.TransactionID, "amount": amount},
	}})
	return tx, nil
}

func (s *WalletService) Transactions(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	if limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}
	list, err := s.repos.Transactions.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Transaction{}
	}
	return list, nil
}

type Downline struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReferralReport struct {
	ReferralCode string          `json:"referralCode"`
	TotalBonus   decimal.Decimal `json:"totalBonus"`
	Referrals    []Downline      `json:"referrals"`
	Total        int64           `json:"total"`
	Page         int             `json:"page"`
	Limit        int             `json:"limit"`
}

func (s *WalletService) Referrals(ctx context.Context, userID uint, p repository.Page) (*ReferralReport, error) {
	p = p.Normalize()
	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	users, total, err := s.repos.Users.ListByUpline(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	bonus, err := s.repos.Transactions.SumByUser(ctx, userID, domain.TxTypeReferral, domain.TxStatusCompleted)
	if err != nil {
		return nil, err
	}
	out := &ReferralReport{
		ReferralCode: u.ReferralCode,
		TotalBonus:   bonus,
		Referrals:    make([]Downline, len(users)),
		Total:        total,
		Page:         p.Page,
		Limit:        p.Limit,
	}
	for i := range users {
		out.Referrals[i] = Downline{
			ID:        users[i].ID,
			Username:  users[i].Username,
			Plan:      users[i].Plan,
			Status:    users[i].Status(),
			CreatedAt: users[i].CreatedAt,
		}
	}
	return out, nil
}
