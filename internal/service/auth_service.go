package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"royaltriangle/internal/auth"
	"royaltriangle/internal/domain"
	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"
	"royaltriangle/pkg/logger"
	"royaltriangle/pkg/walletaddr"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type SettingsReader interface {
	Current(ctx context.Context) (RuntimeSettings, error)
}

type TokenIssuer interface {
	Issue(u auth.SessionUser) (string, time.Time, error)
}

type RegisterInput struct {
	Username      string
	Password      string
	WalletAddress string
	PlanType      string
	ReferrerID    string
}

// DepositInstructions tell a new user where and how much to pay.
type DepositInstructions struct {
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Coin          string          `json:"coin"`
	Network       string          `json:"network"`
	WalletAddress string          `json:"walletAddress"`
	PositionID    uint            `json:"positionId"`
	PositionKey   string          `json:"positionKey"`
}

type Registration struct {
	User    *models.User
	Deposit DepositInstructions
}

type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	repos      Repos
	uow        UnitOfWork
	settings   SettingsReader
	tokens     TokenIssuer
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(repos Repos, uow UnitOfWork, settings SettingsReader, tokens TokenIssuer, bcryptCost int) *AuthService {
	return &AuthService{
		repos:      repos,
		uow:        uow,
		settings:   settings,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register creates the user and its single pending initial deposit.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	username := strings.TrimSpace(in.Username)
	wallet := strings.TrimSpace(in.WalletAddress)

	if !domain.IsValidPlan(in.PlanType) {
		return nil, ErrInvalidPlan
	}
	if err := walletaddr.Validate(wallet); err != nil {
		return nil, ErrInvalidWalletAddress
	}
	_, err := s.repos.Users.FindByUsernameOrWallet(ctx, username, wallet)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	plan, err := s.repos.Plans.GetByName(ctx, in.PlanType)
	if err != nil {
		return nil, notFound(err, ErrPlanNotFound)
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	if settings.DepositWallet == "" {
		return nil, ErrDepositNotConfigured
	}

	uplineID := s.resolveUpline(ctx, in.ReferrerID)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	code, err := s.referralCode(ctx, username)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Username:      username,
		PasswordHash:  string(hash),
		WalletAddress: wallet,
		Plan:          plan.Name,
		ReferralCode:  code,
		UplineID:      uplineID,
		Balance:       decimal.Zero,
		TotalEarned:   decimal.Zero,
		IsActive:      true,
	}
	var deposit DepositInstructions
	err = s.uow.Do(ctx, func(r Repos) error {
		if err := r.Users.Create(ctx, u); err != nil {
			return err
		}
		deposit = DepositInstructions{
			TransactionID: newReference(domain.RefPrefixDeposit),
			Amount:        plan.Price,
			Coin:          settings.DepositCoin,
			Network:       settings.DepositNetwork,
			WalletAddress: settings.DepositWallet,
			PositionID:    u.ID,
			PositionKey:   u.ReferralCode,
		}
		meta, err := json.Marshal(deposit)
		if err != nil {
			return err
		}
		return r.Transactions.Create(ctx, &models.Transaction{
			UserID:        u.ID,
			Type:          domain.TxTypeDeposit,
			Amount:        plan.Price,
			Status:        domain.TxStatusPending,
			TransactionID: deposit.TransactionID,
			Description:   fmt.Sprintf("Initial deposit for %s plan", plan.Name),
			Metadata:      string(meta),
		})
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// lost a race with a concurrent registration
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, err
	}
	return &Registration{User: u, Deposit: deposit}, nil
}

// resolveUpline never fails registration: an unknown referrer means no upline.
func (s *AuthService) resolveUpline(ctx context.Context, ident string) *uint {
	if strings.TrimSpace(ident) == "" {
		return nil
	}
	ref, err := s.repos.Users.FindReferrer(ctx, ident)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Logger().Warn("referrer lookup failed", zap.String("referrer", ident), zap.Error(err))
		}
		return nil
	}
	id := ref.ID
	return &id
}

const referralCodeAttempts = 5

// referralCode derives UPPER(username)_<millis>, bumping the millis on collision.
// The unique index on referral_code still guards concurrent registrations.
func (s *AuthService) referralCode(ctx context.Context, username string) (string, error) {
	at := s.now()
	for i := 0; i < referralCodeAttempts; i++ {
		code := domain.ReferralCode(username, at)
		taken, err := s.repos.Users.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
		at = at.Add(time.Millisecond)
	}
	return "", fmt.Errorf("no free referral code for %s after %d attempts", username, referralCodeAttempts)
}

// Login verifies credentials and issues a session token. Wrong passwords count
// towards the lock threshold; a successful login resets the counter.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.repos.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, notFound(err, ErrInvalidCredentials)
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	if u.Locked() {
		return nil, ErrAccountLocked
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if err := s.repos.Users.IncrementLoginAttempts(ctx, u.ID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}
	if u.LoginAttempts > 0 {
		if err := s.repos.Users.ResetLoginAttempts(ctx, u.ID); err != nil {
			return nil, err
		}
		u.LoginAttempts = 0
	}
	token, exp, err := s.tokens.Issue(auth.SessionUser{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin})
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: u, Token: token, ExpiresAt: exp}, nil
}
