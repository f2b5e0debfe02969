package repository

import (
	"context"
	"strconv"
	"strings"

	"royaltriangle/internal/domain"
	"royaltriangle/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UserFilter drives the admin user listing. Status is one of the derived
// domain.UserStatus values.
type UserFilter struct {
	Search string
	Plan   string
	Status string
	Page
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return wrap(r.db.WithContext(ctx).Create(u).Error, "create user %s", u.Username)
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, wrap(err, "get user %d", id)
	}
	return &u, nil
}

// GetForUpdate reads the user row and holds a write lock on it until the
// surrounding transaction ends.
func (r *UserRepository) GetForUpdate(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error
	if err != nil {
		return nil, wrap(err, "lock user %d", id)
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, wrap(err, "get user by username")
	}
	return &u, nil
}

// FindByUsernameOrWallet returns any user holding either identifier.
func (r *UserRepository) FindByUsernameOrWallet(ctx context.Context, username, wallet string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).
		Where("username = ? OR wallet_address = ?", username, wallet).
		Order("id ASC").
		First(&u).Error
	if err != nil {
		return nil, wrap(err, "find user by username or wallet")
	}
	return &u, nil
}

// FindReferrer resolves a referrer by numeric id, then by username or referral code.
func (r *UserRepository) FindReferrer(ctx context.Context, ident string) (*models.User, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return nil, ErrNotFound
	}
	if id, err := strconv.ParseUint(ident, 10, 64); err == nil {
		u, err := r.GetByID(ctx, uint(id))
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	var u models.User
	err := r.db.WithContext(ctx).
		Where("username = ? OR referral_code = ?", ident, ident).
		Order("id ASC").
		First(&u).Error
	if err != nil {
		return nil, wrap(err, "find referrer %q", ident)
	}
	return &u, nil
}

func (r *UserRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("referral_code = ?", code).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count referral code")
	}
	return count > 0, nil
}

// AdjustBalance adds balanceDelta to balance and earnedDelta to total_earned in
// a single statement. A debit that would take the balance below zero matches no
// row and returns ErrInsufficientBalance.
func (r *UserRepository) AdjustBalance(ctx context.Context, id uint, balanceDelta, earnedDelta decimal.Decimal) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.User{}).
		Where("id = ? AND balance + ? >= 0", id, balanceDelta).
		Updates(map[string]interface{}{
			"balance":      gorm.Expr("balance + ?", balanceDelta),
			"total_earned": gorm.Expr("total_earned + ?", earnedDelta),
		})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "adjust balance of user %d", id)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return errors.Wrapf(err, "check user %d", id)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrInsufficientBalance
}

func (r *UserRepository) SetActive(ctx context.Context, id uint, active bool, loginAttempts int) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_active":      active,
		"login_attempts": loginAttempts,
	})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "set active on user %d", id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) IncrementLoginAttempts(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("login_attempts", gorm.Expr("login_attempts + 1")).Error
	return errors.Wrapf(err, "increment login attempts of user %d", id)
}

func (r *UserRepository) ResetLoginAttempts(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("login_attempts", 0).Error
	return errors.Wrapf(err, "reset login attempts of user %d", id)
}

func (r *UserRepository) ListByUpline(ctx context.Context, uplineID uint, p Page) ([]models.User, int64, error) {
	p = p.Normalize()
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("upline_id = ?", uplineID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count downline")
	}
	var list []models.User
	err := q.Order("created_at DESC, id DESC").Limit(p.Limit).Offset(p.Offset()).Find(&list).Error
	return list, total, errors.Wrap(err, "list downline")
}

// List returns users with search, plan, status filter, and pagination.
func (r *UserRepository) List(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	p := f.Page.Normalize()
	q := r.db.WithContext(ctx).Model(&models.User{})
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(username) LIKE ? OR LOWER(wallet_address) LIKE ? OR LOWER(referral_code) LIKE ?)", like, like, like)
	}
	if f.Plan != "" {
		q = q.Where("plan = ?", f.Plan)
	}
	switch f.Status {
	case domain.UserStatusActive:
		q = q.Where("is_active = ? AND login_attempts < ?", true, domain.LockedLoginAttempts)
	case domain.UserStatusLocked:
		q = q.Where("is_active = ? AND login_attempts >= ?", true, domain.LockedLoginAttempts)
	case domain.UserStatusSuspended:
		q = q.Where("is_active = ?", false)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count users")
	}
	var list []models.User
	err := q.Order("created_at DESC, id DESC").Limit(p.Limit).Offset(p.Offset()).Find(&list).Error
	return list, total, errors.Wrap(err, "list users")
}
