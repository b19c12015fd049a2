package models

import (
	"time"
)

// Device type tags. Cloud devices are managed through the vendor platform;
// local devices are addressed directly on the branch network.
const (
	DeviceTypeCloud = "cloud"
	DeviceTypeLocal = "local"
)

// Branch sync status values written by the polling engine
const (
	SyncStatusOK     = "ok"
	SyncStatusFailed = "failed"
)

// BranchAccessSettings holds the access-control vendor configuration for one
// branch: API credentials, configured devices and the polling engine's cursor
// state (subscription id + message offset). One row per branch; administrators
// write the credential/device fields, the polling engine writes the sync state.
type BranchAccessSettings struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	BranchID       uint   `gorm:"uniqueIndex;not null" json:"branch_id"`
	BaseURL        string `gorm:"not null" json:"base_url"`
	AppKey         string `gorm:"not null" json:"app_key"`
	AppSecret      string `gorm:"not null" json:"-"`
	Active         bool   `gorm:"default:true" json:"active"`
	SubscriptionID string `json:"subscription_id"`
	MessageOffset  string `json:"message_offset"`
	LastSyncAt     *time.Time `json:"last_sync_at"`
	LastSyncStatus string     `json:"last_sync_status"`
	Devices        []AccessDevice `gorm:"foreignKey:SettingsID" json:"devices"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (BranchAccessSettings) TableName() string {
	return "branch_access_settings"
}

// AccessDevice is one configured door controller for a branch. Cloud devices
// are reached through the vendor platform by serial number; local devices
// carry their own host/port and credentials for direct calls.
type AccessDevice struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	SettingsID   uint   `gorm:"index;not null" json:"settings_id"`
	BranchID     uint   `gorm:"index;not null" json:"branch_id"`
	SerialNumber string `gorm:"uniqueIndex;not null" json:"serial_number"`
	Name         string `json:"name"`
	Type         string `gorm:"not null;default:'cloud'" json:"type"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (AccessDevice) TableName() string {
	return "access_devices"
}

// AccessToken caches the vendor access token for one branch. At most one live
// token per branch; replaced by upsert when the token lifecycle manager
// refreshes it.
type AccessToken struct {
	ID        uint      `gorm:"primaryKey"`
	BranchID  uint      `gorm:"uniqueIndex;not null"`
	Token     string    `gorm:"not null"`
	Domain    string
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AccessToken) TableName() string {
	return "access_tokens"
}
