package models

import (
	"time"

	"gorm.io/gorm"
)

// Branch represents one physical gym location. Branches are the unit of
// access-control credential and device scoping.
type Branch struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null" json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Timezone  string `gorm:"default:'UTC'" json:"timezone"`
	Active    bool   `gorm:"default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Branch) TableName() string {
	return "branches"
}
