package models

import "time"

type Triangle struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	PlanType        string     `gorm:"size:20;not null;index:idx_triangle_plan_status" json:"planType"`
	Status          string     `gorm:"size:20;not null;index:idx_triangle_plan_status" json:"status"`
	CompletedAt     *time.Time `json:"completedAt"`
	PayoutProcessed bool       `gorm:"not null;default:false" json:"payoutProcessed"`
	PayoutSettledAt *time.Time `json:"payoutSettledAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	Positions []Position `gorm:"foreignKey:TriangleID" json:"positions,omitempty"`
}

func (Triangle) TableName() string { return "triangles" }

// PayoutOwed is true while a filled triangle has not been settled.
func (t *Triangle) PayoutOwed() bool {
	return t.CompletedAt != nil && !t.PayoutProcessed
}

type Position struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	TriangleID uint       `gorm:"not null;uniqueIndex:idx_position_slot" json:"triangleId"`
	Slot       int        `gorm:"not null;uniqueIndex:idx_position_slot" json:"slot"`
	UserID     *uint      `gorm:"index" json:"userId"`
	FilledAt   *time.Time `gorm:"index" json:"filledAt"`
	CreatedAt  time.Time  `json:"createdAt"`

	Triangle *Triangle `gorm:"foreignKey:TriangleID" json:"-"`
	User     *User     `gorm:"foreignKey:UserID" json:"-"`
}

func (Position) TableName() string { return "positions" }
