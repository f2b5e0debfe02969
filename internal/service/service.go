package service

import (
	"context"
	"strings"
	"time"

	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetForUpdate(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	FindByUsernameOrWallet(ctx context.Context, username, wallet string) (*models.User, error)
	FindReferrer(ctx context.Context, ident string) (*models.User, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	AdjustBalance(ctx context.Context, id uint, balanceDelta, earnedDelta decimal.Decimal) error
	SetActive(ctx context.Context, id uint, active bool, loginAttempts int) error
	IncrementLoginAttempts(ctx context.Context, id uint) error
	ResetLoginAttempts(ctx context.Context, id uint) error
	ListByUpline(ctx context.Context, uplineID uint, p repository.Page) ([]models.User, int64, error)
	List(ctx context.Context, f repository.UserFilter) ([]models.User, int64, error)
}

type PlanRepository interface {
	GetByName(ctx context.Context, name string) (*models.Plan, error)
	List(ctx context.Context) ([]models.Plan, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction) error
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Transaction, error)
	List(ctx context.Context, f repository.TransactionFilter) ([]models.Transaction, int64, error)
	Transition(ctx context.Context, id uint, from, to string, settledAt *time.Time) (bool, error)
	SumByUser(ctx context.Context, userID uint, txType, status string) (decimal.Decimal, error)
}

type TriangleRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Triangle, error)
	FindOpenForUpdate(ctx context.Context, plan string) (*models.Triangle, error)
	Create(ctx context.Context, plan string) (*models.Triangle, error)
	NextFreePosition(ctx context.Context, triangleID uint) (*models.Position, error)
	FillPosition(ctx context.Context, positionID, userID uint, at time.Time) (bool, error)
	CountFilled(ctx context.Context, triangleID uint) (int64, error)
	Transition(ctx context.Context, id uint, from, to string, updates map[string]interface{}) (bool, error)
	LatestPositionForUser(ctx context.Context, userID uint) (*models.Position, error)
	LatestPositionsForUsers(ctx context.Context, userIDs []uint) (map[uint]models.Position, error)
	ListPositions(ctx context.Context, triangleID uint) ([]models.Position, error)
	OccupantIDs(ctx context.Context, triangleID uint) ([]uint, error)
	List(ctx context.Context, f repository.TriangleFilter) ([]repository.TriangleFill, int64, error)
}

type SettingRepository interface {
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uint, at time.Time) error
}

type OverviewReader interface {
	Stats(ctx context.Context) (*repository.OverviewStats, error)
	RecentTransactions(ctx context.Context, limit uint64) ([]repository.TransactionRow, error)
	PendingActions(ctx context.Context, limit uint64) ([]repository.TransactionRow, error)
	TriangleCounts(ctx context.Context, statuses ...string) ([]repository.PlanCount, error)
}

// Notifier delivers user notifications. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, userID uint, kind, title, body string, data map[string]interface{})
}

// Repos is the set of repositories bound to one connection or transaction.
type Repos struct {
	Users        UserRepository
	Plans        PlanRepository
	Transactions TransactionRepository
	Triangles    TriangleRepository
}

// UnitOfWork runs fn with repositories bound to a single database transaction.
// Returning an error from fn rolls everything back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repos) error) error
}

// newReference returns "<prefix>_<32 hex chars>".
func newReference(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// event is a notification collected inside a unit of work and sent after commit.
type event struct {
	userID uint
	kind   string
	title  string
	body   string
	data   map[string]interface{}
}

func dispatch(ctx context.Context, n Notifier, events []event) {
	if n == nil {
		return
	}
	for _, e := range events {
		n.Notify(ctx, e.userID, e.kind, e.title, e.body, e.data)
	}
}
