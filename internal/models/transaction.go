package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"userId"`
	Type          string          `gorm:"size:20;not null;index" json:"type"`   // DEPOSIT | PAYOUT | REFERRAL | EARNING
	Amount        decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Status        string          `gorm:"size:20;not null;index" json:"status"`
	TransactionID string          `gorm:"uniqueIndex;size:100;not null" json:"transactionId"`
	Description   string          `gorm:"size:255" json:"description"`
	Metadata      string          `gorm:"type:text" json:"metadata,omitempty"` // JSON
	// SettledAt is stamped when the balance side effect is applied; never cleared.
	SettledAt *time.Time `json:"settledAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Transaction) TableName() string { return "transactions" }
