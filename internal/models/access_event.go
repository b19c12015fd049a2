package models

import (
	"time"
)

// Canonical access event types
const (
	EventTypeEntry   = "entry"
	EventTypeExit    = "exit"
	EventTypeUnknown = "unknown"
)

// AccessEvent is the canonical record of one door/access occurrence reported
// by the vendor platform. The (branch_id, vendor_event_id) pair is unique, so
// redelivery of the same vendor message never duplicates a row.
type AccessEvent struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	BranchID      uint   `gorm:"uniqueIndex:idx_branch_vendor_event;not null" json:"branch_id"`
	VendorEventID string `gorm:"uniqueIndex:idx_branch_vendor_event;not null" json:"vendor_event_id"`
	DeviceID      string `gorm:"index" json:"device_id"`
	DoorID        string `json:"door_id,omitempty"`
	DoorName      string `json:"door_name,omitempty"`
	PersonID      string `gorm:"index" json:"person_id,omitempty"`
	CardNo        string `json:"card_no,omitempty"`
	EventType     string `gorm:"not null;default:'unknown'" json:"event_type"`
	EventTime     time.Time `gorm:"index" json:"event_time"`
	RawPayload    string    `json:"-"`
	Processed     bool      `gorm:"default:false" json:"processed"`
	CreatedAt     time.Time `json:"created_at"`
}

func (AccessEvent) TableName() string {
	return "access_events"
}

// Sync log levels and statuses
const (
	SyncLogLevelInfo  = "info"
	SyncLogLevelError = "error"

	SyncLogStatusPending = "pending"
	SyncLogStatusSuccess = "success"
	SyncLogStatusFailed  = "failed"
)

// SyncLogEntry is an append-only audit row describing one integration
// activity (poll tick, enrollment attempt, failure). Never mutated after
// creation except for the pending -> success|failed transition of enrollment
// attempts, which append a closing row rather than rewriting the opening one.
type SyncLogEntry struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	BranchID   uint   `gorm:"index;not null" json:"branch_id"`
	AttemptID  string `gorm:"index" json:"attempt_id,omitempty"`
	Level      string `gorm:"not null;default:'info'" json:"level"`
	Message    string `gorm:"not null" json:"message"`
	Detail     string `json:"detail,omitempty"`
	Status     string `json:"status,omitempty"`
	EntityType string `json:"entity_type,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (SyncLogEntry) TableName() string {
	return "sync_log_entries"
}
