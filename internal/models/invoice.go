package models

import (
	"time"
)

// Invoice status values
const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusVoid    = "void"
)

// Invoice represents a billing record for a member
type Invoice struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	BranchID  uint    `gorm:"index;not null" json:"branch_id"`
	MemberID  uint    `gorm:"index;not null" json:"member_id"`
	Amount    float64 `gorm:"not null" json:"amount"`
	Concept   string  `json:"concept"`
	Status    string  `gorm:"default:'pending'" json:"status"`
	DueDate   time.Time  `json:"due_date"`
	PaidAt    *time.Time `json:"paid_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}
