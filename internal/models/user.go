package models

import (
	"time"

	"royaltriangle/internal/domain"

	"github.com/shopspring/decimal"
)

func init() {
	// Money leaves the API as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type User struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Username      string          `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PasswordHash  string          `gorm:"size:255;not null" json:"-"`
	WalletAddress string          `gorm:"uniqueIndex;size:128;not null" json:"walletAddress"`
	Plan          string          `gorm:"size:20;not null;index" json:"plan"`
	ReferralCode  string          `gorm:"uniqueIndex;size:100;not null" json:"referralCode"`
	UplineID      *uint           `gorm:"index" json:"uplineId"` // referrer, weak reference
	Balance       decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"balance"`
	TotalEarned   decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"totalEarned"`
	IsAdmin       bool            `gorm:"not null;default:false" json:"isAdmin"`
	IsActive      bool            `gorm:"not null;default:true" json:"isActive"`
	LoginAttempts int             `gorm:"not null;default:0" json:"loginAttempts"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) Status() string { return domain.UserStatus(u.IsActive, u.LoginAttempts) }

func (u *User) Locked() bool { return u.LoginAttempts >= domain.LockedLoginAttempts }
