package models

import (
	"time"
)

// Privilege assignment sync statuses. Revocation is the "revoked" status
// transition, never a row deletion, so the audit trail survives.
const (
	PrivilegeStatusPending = "pending"
	PrivilegeStatusSynced  = "synced"
	PrivilegeStatusFailed  = "failed"
	PrivilegeStatusRevoked = "revoked"
)

// AccessPerson maps one gym member to one vendor-platform identity per
// branch. PersonID holds the identifier the vendor returned; when the vendor
// omits one we fall back to the member id and leave IDConfirmed false so the
// degraded row can be found and reconciled later.
type AccessPerson struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	BranchID    uint   `gorm:"uniqueIndex:idx_branch_member;not null" json:"branch_id"`
	MemberID    uint   `gorm:"uniqueIndex:idx_branch_member;not null" json:"member_id"`
	PersonID    string `gorm:"index;not null" json:"person_id"`
	IDConfirmed bool   `gorm:"default:false" json:"id_confirmed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (AccessPerson) TableName() string {
	return "access_persons"
}

// PrivilegeAssignment grants one person access to one device, optionally
// time-bounded, with a per-assignment sync status tracking propagation to the
// physical controller.
type PrivilegeAssignment struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	PersonRefID  uint   `gorm:"uniqueIndex:idx_person_device;not null" json:"person_ref_id"`
	DeviceSerial string `gorm:"uniqueIndex:idx_person_device;not null" json:"device_serial"`
	Privilege    int    `gorm:"default:1" json:"privilege"`
	ValidFrom    *time.Time `json:"valid_from,omitempty"`
	ValidTo      *time.Time `json:"valid_to,omitempty"`
	SyncStatus   string     `gorm:"default:'pending'" json:"sync_status"`
	LastError    string     `json:"last_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (PrivilegeAssignment) TableName() string {
	return "privilege_assignments"
}
