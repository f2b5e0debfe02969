package repository

import (
	"context"
	"time"

	"royaltriangle/internal/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// OverviewRepository runs the admin dashboard aggregates as plain SQL over
// the same connection pool gorm uses.
type OverviewRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

func NewOverviewRepository(db *sqlx.DB, placeholder sq.PlaceholderFormat) *OverviewRepository {
	return &OverviewRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

type OverviewStats struct {
	TotalUsers      int64           `json:"totalUsers"`
	ActiveTriangles int64           `json:"activeTriangles"`
	PendingDeposits int64           `json:"pendingDeposits"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
}

type TransactionRow struct {
	ID        uint            `db:"id"`
	Username  string          `db:"username"`
	Type      string          `db:"type"`
	Plan      string          `db:"plan"`
	Amount    decimal.Decimal `db:"amount"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
}

type PlanCount struct {
	PlanType string `db:"plan_type" json:"planType"`
	Count    int64  `db:"count" json:"count"`
}

func (r *OverviewRepository) get(ctx context.Context, dest interface{}, b sq.SelectBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "build query")
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *OverviewRepository) Stats(ctx context.Context) (*OverviewStats, error) {
	var s OverviewStats
	if err := r.get(ctx, &s.TotalUsers, r.sb.Select("COUNT(*)").From("users")); err != nil {
		return nil, errors.Wrap(err, "count users")
	}
	activeQ := r.sb.Select("COUNT(*)").From("triangles").Where(sq.Eq{"status": domain.TriangleOpen})
	if err := r.get(ctx, &s.ActiveTriangles, activeQ); err != nil {
		return nil, errors.Wrap(err, "count active triangles")
	}
	pendingQ := r.sb.Select("COUNT(*)").From("transactions").
		Where(sq.Eq{"type": domain.TxTypeDeposit, "status": domain.TxStatusPending})
	if err := r.get(ctx, &s.PendingDeposits, pendingQ); err != nil {
		return nil, errors.Wrap(err, "count pending deposits")
	}
	revenueQ := r.sb.Select("COALESCE(SUM(amount), 0)").From("transactions").
		Where(sq.Eq{"type": domain.TxTypeDeposit, "status": domain.TxStatusCompleted})
	if err := r.get(ctx, &s.TotalRevenue, revenueQ); err != nil {
		return nil, errors.Wrap(err, "sum revenue")
	}
	return &s, nil
}

func (r *OverviewRepository) transactionRows() sq.SelectBuilder {
	return r.sb.Select("t.id", "u.username", "t.type", "u.plan", "t.amount", "t.status", "t.created_at").
		From("transactions t").
		Join("users u ON u.id = t.user_id")
}

// RecentTransactions returns the newest transactions of any kind.
func (r *OverviewRepository) RecentTransactions(ctx context.Context, limit uint64) ([]TransactionRow, error) {
	query, args, err := r.transactionRows().OrderBy("t.created_at DESC", "t.id DESC").Limit(limit).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	rows := []TransactionRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "recent transactions")
	}
	return rows, nil
}

// PendingActions returns deposits and payouts awaiting an admin, oldest first.
func (r *OverviewRepository) PendingActions(ctx context.Context, limit uint64) ([]TransactionRow, error) {
	query, args, err := r.transactionRows().
		Where(sq.Eq{
			"t.status": domain.TxStatusPending,
			"t.type":   []string{domain.TxTypeDeposit, domain.TxTypePayout},
		}).
		OrderBy("t.created_at ASC", "t.id ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	rows := []TransactionRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "pending actions")
	}
	return rows, nil
}

// TriangleCounts groups triangles in the given states by plan.
func (r *OverviewRepository) TriangleCounts(ctx context.Context, statuses ...string) ([]PlanCount, error) {
	query, args, err := r.sb.Select("plan_type", "COUNT(*) AS count").
		From("triangles").
		Where(sq.Eq{"status": statuses}).
		GroupBy("plan_type").
		OrderBy("plan_type").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	counts := []PlanCount{}
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, errors.Wrap(err, "triangle counts")
	}
	return counts, nil
}
