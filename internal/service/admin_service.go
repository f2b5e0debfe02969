package service

import (
	"context"
	"strings"
	"time"

	"royaltriangle/internal/domain"
	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	overviewRecentLimit  = 10
	overviewPendingLimit = 20
)

type AdminService struct {
	repos    Repos
	overview OverviewReader
}

func NewAdminService(repos Repos, overview OverviewReader) *AdminService {
	return &AdminService{repos: repos, overview: overview}
}

// UserRow is one line of the admin user table.
type UserRow struct {
	ID               uint            `json:"id"`
	Username         string          `json:"username"`
	WalletAddress    string          `json:"walletAddress"`
	Plan             string          `json:"plan"`
	TrianglePosition *int            `json:"trianglePosition"`
	PositionKey      *string         `json:"positionKey"`
	TriangleID       *uint           `json:"triangleId"`
	ReferralCode     string          `json:"referralCode"`
	Balance          decimal.Decimal `json:"balance"`
	TotalEarned      decimal.Decimal `json:"totalEarned"`
	CreatedAt        time.Time       `json:"createdAt"`
	Status           string          `json:"status"`
}

type UserPage struct {
	Users []UserRow `json:"users"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

func (s *AdminService) ListUsers(ctx context.Context, f repository.UserFilter) (*UserPage, error) {
	f.Page = f.Page.Normalize()
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.Status == "all" {
		f.Status = ""
	}
	users, total, err := s.repos.Users.List(ctx, f)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	positions, err := s.repos.Triangles.LatestPositionsForUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &UserPage{Users: make([]UserRow, len(users)), Total: total, Page: f.Page.Page, Limit: f.Page.Limit}
	for i := range users {
		u := &users[i]
		row := UserRow{
			ID:            u.ID,
			Username:      u.Username,
			WalletAddress: u.WalletAddress,
			Plan:          u.Plan,
			ReferralCode:  u.ReferralCode,
			Balance:       u.Balance,
			TotalEarned:   u.TotalEarned,
			CreatedAt:     u.CreatedAt,
			Status:        u.Status(),
		}
		if p, ok := positions[u.ID]; ok {
			slot, key, tid := p.Slot, domain.PositionKey(p.Slot), p.TriangleID
			row.TrianglePosition, row.PositionKey, row.TriangleID = &slot, &key, &tid
		}
		out.Users[i] = row
	}
	return out, nil
}

// ApplyUserAction suspends, reactivates or soft-deletes an account. Suspended
// and deleted accounts are also locked so they cannot log in.
func (s *AdminService) ApplyUserAction(ctx context.Context, id uint, action string) (*models.User, error) {
	if !domain.IsValidUserAction(action) {
		return nil, ErrInvalidAction
	}
	active, attempts := false, domain.LockedLoginAttempts
	if action == domain.UserActionActivate {
		active, attempts = true, 0
	}
	if err := s.repos.Users.SetActive(ctx, id, active, attempts); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	u, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

type AdminTransaction struct {
	ID            uint            `json:"id"`
	UserID        uint            `json:"userId"`
	Username      string          `json:"username"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transactionId"`
	Description   string          `json:"description"`
	SettledAt     *time.Time      `json:"settledAt"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type TransactionPage struct {
	Transactions []AdminTransaction `json:"transactions"`
	Total        int64              `json:"total"`
	Page         int                `json:"page"`
	Limit        int                `json:"limit"`
}

func (s *AdminService) ListTransactions(ctx context.Context, f repository.TransactionFilter) (*TransactionPage, error) {
	f.Page = f.Page.Normalize()
	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	f.Status = strings.ToUpper(strings.TrimSpace(f.Status))
	if f.Status != "" && !domain.IsValidTransactionStatus(f.Status) {
		return nil, ErrInvalidStatus
	}
	list, total, err := s.repos.Transactions.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &TransactionPage{
		Transactions: make([]AdminTransaction, len(list)),
		Total:        total,
		Page:         f.Page.Page,
		Limit:        f.Page.Limit,
	}
	for i, t := range list {
		row := AdminTransaction{
			ID:            t.ID,
			UserID:        t.UserID,
			Type:          t.Type,
			Amount:        t.Amount,
			Status:        t.Status,
			TransactionID: t.TransactionID,
			Description:   t.Description,
			SettledAt:     t.SettledAt,
			CreatedAt:     t.CreatedAt,
		}
		if t.User != nil {
			row.Username = t.User.Username
		}
		out.Transactions[i] = row
	}
	return out, nil
}

type ActivityItem struct {
	ID     uint            `json:"id"`
	User   string          `json:"user"`
	Type   string          `json:"type"`
	Plan   string          `json:"plan"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
	Time   time.Time       `json:"time"`
}

type PendingAction struct {
	ID       uint            `json:"id"`
	Type     string          `json:"type"`
	User     string          `json:"user"`
	Amount   decimal.Decimal `json:"amount"`
	Priority string          `json:"priority"`
	Since    time.Time       `json:"since"`
}

type TriangleSummary struct {
	Active    []repository.PlanCount `json:"active"`
	Completed []repository.PlanCount `json:"completed"`
}

type Overview struct {
	Stats              repository.OverviewStats `json:"stats"`
	RecentTransactions []ActivityItem           `json:"recentTransactions"`
	PendingActions     []PendingAction          `json:"pendingActions"`
	Triangles          TriangleSummary          `json:"triangles"`
}

func (s *AdminService) Overview(ctx context.Context) (*Overview, error) {
	stats, err := s.overview.Stats(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.overview.RecentTransactions(ctx, overviewRecentLimit)
	if err != nil {
		return nil, err
	}
	pending, err := s.overview.PendingActions(ctx, overviewPendingLimit)
	if err != nil {
		return nil, err
	}
	active, err := s.overview.TriangleCounts(ctx, domain.TriangleOpen)
	if err != nil {
		return nil, err
	}
	completed, err := s.overview.TriangleCounts(ctx, domain.TriangleFull, domain.TrianglePayoutPending, domain.TriangleSettled)
	if err != nil {
		return nil, err
	}

	out := &Overview{
		Stats:              *stats,
		RecentTransactions: make([]ActivityItem, len(recent)),
		PendingActions:     make([]PendingAction, len(pending)),
		Triangles:          TriangleSummary{Active: active, Completed: completed},
	}
	for i, r := range recent {
		out.RecentTransactions[i] = ActivityItem{
			ID:     r.ID,
			User:   r.Username,
			Type:   strings.ToLower(r.Type),
			Plan:   r.Plan,
			Amount: r.Amount,
			Status: strings.ToLower(r.Status),
			Time:   r.CreatedAt,
		}
	}
	for i, r := range pending {
		a := PendingAction{ID: r.ID, User: r.Username, Amount: r.Amount, Since: r.CreatedAt}
		if r.Type == domain.TxTypePayout {
			a.Type, a.Priority = "payout_approval", "medium"
		} else {
			a.Type, a.Priority = "deposit_approval", "high"
		}
		out.PendingActions[i] = a
	}
	return out, nil
}

func (s *AdminService) Plans(ctx context.Context) ([]models.Plan, error) {
	return s.repos.Plans.List(ctx)
}
