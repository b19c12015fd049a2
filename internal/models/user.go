package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a staff account (admin or front-desk staff) for the management API
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null" json:"-"`
	Name      string
	Role      string `gorm:"default:'staff'"`
	BranchID  *uint  // nil for head-office accounts with cross-branch access
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HashPassword replaces the plain-text password with its bcrypt hash
func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword verifies a plain-text password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}
