package models

import (
	"time"
)

// GymClass represents a scheduled class at a branch
type GymClass struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	BranchID  uint   `gorm:"index;not null" json:"branch_id"`
	Name      string `gorm:"not null" json:"name"`
	Trainer   string `json:"trainer"`
	Capacity  int    `gorm:"default:20" json:"capacity"`
	StartsAt  time.Time `gorm:"index" json:"starts_at"`
	Duration  int       `gorm:"default:60" json:"duration_minutes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GymClass) TableName() string {
	return "gym_classes"
}

// ClassBooking links a member to a class. A member can hold at most one
// booking per class.
type ClassBooking struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ClassID   uint `gorm:"uniqueIndex:idx_class_member;not null" json:"class_id"`
	MemberID  uint `gorm:"uniqueIndex:idx_class_member;not null" json:"member_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ClassBooking) TableName() string {
	return "class_bookings"
}
