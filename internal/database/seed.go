package database

import (
	"context"
	"fmt"
	"strings"

	"royaltriangle/config"
	"royaltriangle/internal/domain"
	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"
	"royaltriangle/pkg/logger"
	"royaltriangle/pkg/walletaddr"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedPlans upserts every configured plan. Unknown plan names are rejected.
func SeedPlans(ctx context.Context, db *gorm.DB, plans []config.PlanSeed) error {
	repo := repository.NewPlanRepository(db)
	for _, p := range plans {
		if !domain.IsValidPlan(p.Name) {
			return fmt.Errorf("unknown plan %q", p.Name)
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return errors.Wrapf(err, "plan %s price", p.Name)
		}
		payout, err := decimal.NewFromString(p.Payout)
		if err != nil {
			return errors.Wrapf(err, "plan %s payout", p.Name)
		}
		if !price.IsPositive() || !payout.IsPositive() {
			return fmt.Errorf("plan %s needs a positive price and payout", p.Name)
		}
		if err := repo.Upsert(ctx, &models.Plan{Name: p.Name, Price: price, Payout: payout}); err != nil {
			return err
		}
	}
	return nil
}

// SeedSettings stores the configured deposit defaults for keys not set yet.
func SeedSettings(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	defaults := map[string]string{
		domain.SettingDepositCoin:          cfg.Deposit.Coin,
		domain.SettingDepositNetwork:       cfg.Deposit.Network,
		domain.SettingReferralBonusPercent: cfg.Referral.BonusPercent,
	}
	if cfg.Deposit.Wallet != "" {
		defaults[domain.SettingDepositWallet] = cfg.Deposit.Wallet
	}
	return repository.NewSettingRepository(db).SeedDefaults(ctx, defaults)
}

// SeedAdmin creates the configured admin account when no user holds that
// username. It is skipped when no admin credentials are configured.
func SeedAdmin(ctx context.Context, db *gorm.DB, admin config.AdminSeed, bcryptCost int) error {
	username := strings.TrimSpace(admin.Username)
	if username == "" || admin.Password == "" {
		logger.Logger().Info("admin seed skipped, no credentials configured")
		return nil
	}
	users := repository.NewUserRepository(db)
	_, err := users.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if err := walletaddr.Validate(admin.WalletAddress); err != nil {
		return errors.Wrap(err, "admin wallet address")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcryptCost)
	if err != nil {
		return err
	}
	u := &models.User{
		Username:      username,
		PasswordHash:  string(hash),
		WalletAddress: admin.WalletAddress,
		Plan:          domain.PlanKing,
		ReferralCode:  strings.ToUpper(username) + "_ADMIN",
		Balance:       decimal.Zero,
		TotalEarned:   decimal.Zero,
		IsAdmin:       true,
		IsActive:      true,
	}
	if err := users.Create(ctx, u); err != nil {
		return err
	}
	logger.Logger().Info("admin user created", zap.String("username", username))
	return nil
}
