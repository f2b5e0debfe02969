package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"royaltriangle/config"
	"royaltriangle/internal/domain"
	"royaltriangle/pkg/logger"
	"royaltriangle/pkg/walletaddr"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RuntimeSettings is the admin-editable configuration: where deposits are sent
// and how much an upline earns from a referred deposit.
type RuntimeSettings struct {
	DepositWallet        string          `json:"depositWallet"`
	DepositCoin          string          `json:"depositCoin"`
	DepositNetwork       string          `json:"depositNetwork"`
	ReferralBonusPercent decimal.Decimal `json:"referralBonusPercent"`
}

// SettingsUpdate holds the fields an admin wants to change; nil fields are kept.
type SettingsUpdate struct {
	DepositWallet        *string          `json:"depositWallet"`
	DepositCoin          *string          `json:"depositCoin"`
	DepositNetwork       *string          `json:"depositNetwork"`
	ReferralBonusPercent *decimal.Decimal `json:"referralBonusPercent"`
}

var settingKeys = []string{
	domain.SettingDepositWallet,
	domain.SettingDepositCoin,
	domain.SettingDepositNetwork,
	domain.SettingReferralBonusPercent,
}

// SettingsService is the accessor for RuntimeSettings. Values stored in
// system_settings override the configured defaults. A loaded snapshot is served
// for ttl and then reloaded; Update replaces it immediately.
type SettingsService struct {
	repo     SettingRepository
	defaults RuntimeSettings
	ttl      time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	cached   *RuntimeSettings
	loadedAt time.Time
}

func NewSettingsService(repo SettingRepository, deposit config.DepositConfig, referral config.ReferralConfig) *SettingsService {
	bonus, err := decimal.NewFromString(referral.BonusPercent)
	if err != nil {
		bonus = decimal.Zero
	}
	return &SettingsService{
		repo: repo,
		defaults: RuntimeSettings{
			DepositWallet:        deposit.Wallet,
			DepositCoin:          deposit.Coin,
			DepositNetwork:       deposit.Network,
			ReferralBonusPercent: bonus,
		},
		ttl: deposit.ReloadInterval,
		now: time.Now,
	}
}

func (s *SettingsService) Current(ctx context.Context) (RuntimeSettings, error) {
	s.mu.RLock()
	if s.cached != nil && s.now().Sub(s.loadedAt) < s.ttl {
		out := *s.cached
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()
	return s.reload(ctx)
}

// ReferralBonusPercent is a shortcut used by deposit settlement.
func (s *SettingsService) ReferralBonusPercent(ctx context.Context) (decimal.Decimal, error) {
	cur, err := s.Current(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return cur.ReferralBonusPercent, nil
}

func (s *SettingsService) reload(ctx context.Context) (RuntimeSettings, error) {
	stored, err := s.repo.GetMany(ctx, settingKeys)
	if err != nil {
		return RuntimeSettings{}, errors.Wrap(err, "load runtime settings")
	}
	cur := s.defaults
	if v := stored[domain.SettingDepositWallet]; v != "" {
		cur.DepositWallet = v
	}
	if v := stored[domain.SettingDepositCoin]; v != "" {
		cur.DepositCoin = v
	}
	if v := stored[domain.SettingDepositNetwork]; v != "" {
		cur.DepositNetwork = v
	}
	if v := stored[domain.SettingReferralBonusPercent]; v != "" {
		if pct, err := decimal.NewFromString(v); err == nil {
			cur.ReferralBonusPercent = pct
		} else {
			logger.Logger().Warn("ignoring malformed referral bonus setting", zap.String("value", v))
		}
	}

	s.mu.Lock()
	s.cached = &cur
	s.loadedAt = s.now()
	s.mu.Unlock()
	return cur, nil
}

func (s *SettingsService) Update(ctx context.Context, in SettingsUpdate) (RuntimeSettings, error) {
	writes := make(map[string]string, len(settingKeys))
	if in.DepositWallet != nil {
		w := strings.TrimSpace(*in.DepositWallet)
		if err := walletaddr.Validate(w); err != nil {
			return RuntimeSettings{}, errors.Wrap(ErrInvalidSettings, "deposit wallet")
		}
		writes[domain.SettingDepositWallet] = w
	}
	if in.DepositCoin != nil {
		c := strings.ToUpper(strings.TrimSpace(*in.DepositCoin))
		if c == "" {
			return RuntimeSettings{}, errors.Wrap(ErrInvalidSettings, "deposit coin")
		}
		writes[domain.SettingDepositCoin] = c
	}
	if in.DepositNetwork != nil {
		n := strings.TrimSpace(*in.DepositNetwork)
		if n == "" {
			return RuntimeSettings{}, errors.Wrap(ErrInvalidSettings, "deposit network")
		}
		writes[domain.SettingDepositNetwork] = n
	}
	if in.ReferralBonusPercent != nil {
		p := *in.ReferralBonusPercent
		if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
			return RuntimeSettings{}, errors.Wrap(ErrInvalidSettings, "referral bonus percent")
		}
		writes[domain.SettingReferralBonusPercent] = p.String()
	}

	for _, k := range settingKeys {
		v, ok := writes[k]
		if !ok {
			continue
		}
		if err := s.repo.Set(ctx, k, v); err != nil {
			return RuntimeSettings{}, err
		}
	}
	return s.reload(ctx)
}
