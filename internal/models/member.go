package models

import (
	"time"

	"gorm.io/gorm"
)

// Member status values
const (
	MemberStatusActive    = "active"
	MemberStatusFrozen    = "frozen"
	MemberStatusCancelled = "cancelled"
)

// Member represents a gym member belonging to a branch
type Member struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	BranchID  uint   `gorm:"index;not null" json:"branch_id"`
	Name      string `gorm:"not null" json:"name"`
	Email     string `gorm:"index" json:"email"`
	Phone     string `json:"phone"`
	CardNo    string `json:"card_no"`
	PlanID    *uint  `json:"plan_id"`
	Status    string `gorm:"default:'active'" json:"status"`
	JoinedAt  time.Time      `json:"joined_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Member) TableName() string {
	return "members"
}

// MembershipPlan represents a purchasable membership tier
type MembershipPlan struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"not null" json:"name"`
	Description  string  `json:"description"`
	Price        float64 `gorm:"not null" json:"price"`
	DurationDays int     `gorm:"not null" json:"duration_days"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (MembershipPlan) TableName() string {
	return "membership_plans"
}
