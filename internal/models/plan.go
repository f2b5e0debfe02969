package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is seeded reference data: the deposit price of a tier and the payout
// each occupant is owed once a triangle of that tier fills.
type Plan struct {
	Name      string          `gorm:"primaryKey;size:20" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"price"`
	Payout    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"payout"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (Plan) TableName() string { return "plans" }
