package access

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nexofit/gym-api/internal/models"
)

// Store is the persistence arm of the access integration: branch settings,
// cached tokens, events, sync log, persons and privileges. All writes are
// upserts or insert-with-uniqueness-on-conflict; the storage constraints do
// the locking.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ActiveSettings lists every branch with active access settings, devices
// preloaded. The scheduler drives one tick per returned row.
func (s *Store) ActiveSettings() ([]models.BranchAccessSettings, error) {
	var settings []models.BranchAccessSettings
	if err := s.db.Preload("Devices").Where("active = ?", true).Find(&settings).Error; err != nil {
		return nil, &PersistenceError{Op: "ActiveSettings", Err: err}
	}
	return settings, nil
}

// SettingsForBranch returns the branch's active settings or a
// ConfigurationError when the branch has none.
func (s *Store) SettingsForBranch(branchID uint) (*models.BranchAccessSettings, error) {
	var settings models.BranchAccessSettings
	err := s.db.Preload("Devices").Where("branch_id = ?", branchID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ConfigurationError{BranchID: branchID, Reason: "no access settings"}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "SettingsForBranch", Err: err}
	}
	if !settings.Active {
		return nil, &ConfigurationError{BranchID: branchID, Reason: "access settings inactive"}
	}
	return &settings, nil
}

// UpsertSettings writes administrator-provided settings keyed by branch.
// Devices are replaced wholesale; sync cursor fields are preserved.
func (s *Store) UpsertSettings(settings *models.BranchAccessSettings) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.BranchAccessSettings
		err := tx.Where("branch_id = ?", settings.BranchID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(settings).Error; err != nil {
				return &PersistenceError{Op: "UpsertSettings create", Err: err}
			}
			return nil
		case err != nil:
			return &PersistenceError{Op: "UpsertSettings lookup", Err: err}
		}

		updates := map[string]any{
			"base_url":   settings.BaseURL,
			"app_key":    settings.AppKey,
			"app_secret": settings.AppSecret,
			"active":     settings.Active,
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return &PersistenceError{Op: "UpsertSettings update", Err: err}
		}
		if err := tx.Where("settings_id = ?", existing.ID).Delete(&models.AccessDevice{}).Error; err != nil {
			return &PersistenceError{Op: "UpsertSettings devices", Err: err}
		}
		for i := range settings.Devices {
			settings.Devices[i].ID = 0
			settings.Devices[i].SettingsID = existing.ID
			settings.Devices[i].BranchID = settings.BranchID
		}
		if len(settings.Devices) > 0 {
			if err := tx.Create(&settings.Devices).Error; err != nil {
				return &PersistenceError{Op: "UpsertSettings devices", Err: err}
			}
		}
		settings.ID = existing.ID
		return nil
	})
}

// TokenForBranch returns the cached token row, or nil when none exists yet
func (s *Store) TokenForBranch(branchID uint) (*models.AccessToken, error) {
	var token models.AccessToken
	err := s.db.Where("branch_id = ?", branchID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "TokenForBranch", Err: err}
	}
	return &token, nil
}

// SaveToken upserts the branch's token row. A branch has exactly one live
// token row at any time.
func (s *Store) SaveToken(token *models.AccessToken) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "branch_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "domain", "expires_at", "updated_at"}),
	}).Create(token).Error
	if err != nil {
		return &PersistenceError{Op: "SaveToken", Err: err}
	}
	return nil
}

// SaveSubscription persists a freshly created subscription id
func (s *Store) SaveSubscription(branchID uint, subscriptionID string) error {
	err := s.db.Model(&models.BranchAccessSettings{}).
		Where("branch_id = ?", branchID).
		Update("subscription_id", subscriptionID).Error
	if err != nil {
		return &PersistenceError{Op: "SaveSubscription", Err: err}
	}
	return nil
}

// CommitPage appends every event of a polled page and advances the branch
// offset in one transaction. Redelivered events (same branch + vendor event
// id) are ignored on conflict, not errors. If any event fails to persist the
// whole page rolls back and the offset stays put.
func (s *Store) CommitPage(branchID uint, events []models.AccessEvent, offset string, at time.Time) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range events {
			if events[i].VendorEventID == "" {
				return fmt.Errorf("event %d has no vendor event id", i)
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "branch_id"}, {Name: "vendor_event_id"}},
				DoNothing: true,
			}).Create(&events[i]).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(&models.BranchAccessSettings{}).
			Where("branch_id = ?", branchID).
			Updates(map[string]any{
				"message_offset":   offset,
				"last_sync_at":     at,
				"last_sync_status": models.SyncStatusOK,
			}).Error
	})
	if err != nil {
		return &PersistenceError{Op: "CommitPage", Err: err}
	}
	return nil
}

// MarkSynced records a successful tick that had nothing to commit
func (s *Store) MarkSynced(branchID uint, at time.Time) error {
	err := s.db.Model(&models.BranchAccessSettings{}).
		Where("branch_id = ?", branchID).
		Updates(map[string]any{
			"last_sync_at":     at,
			"last_sync_status": models.SyncStatusOK,
		}).Error
	if err != nil {
		return &PersistenceError{Op: "MarkSynced", Err: err}
	}
	return nil
}

// MarkSyncFailed flags the branch until the next tick self-heals it
func (s *Store) MarkSyncFailed(branchID uint) error {
	err := s.db.Model(&models.BranchAccessSettings{}).
		Where("branch_id = ?", branchID).
		Update("last_sync_status", models.SyncStatusFailed).Error
	if err != nil {
		return &PersistenceError{Op: "MarkSyncFailed", Err: err}
	}
	return nil
}

// AppendLog writes one append-only sync log row
func (s *Store) AppendLog(entry *models.SyncLogEntry) error {
	if err := s.db.Create(entry).Error; err != nil {
		return &PersistenceError{Op: "AppendLog", Err: err}
	}
	return nil
}

// UpsertPerson writes the member's vendor identity keyed by (branch, member)
func (s *Store) UpsertPerson(person *models.AccessPerson) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "branch_id"}, {Name: "member_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"person_id", "id_confirmed", "updated_at"}),
	}).Create(person).Error
	if err != nil {
		return &PersistenceError{Op: "UpsertPerson", Err: err}
	}
	return nil
}

// PersonForMember returns the member's vendor identity, or nil when the
// member was never enrolled.
func (s *Store) PersonForMember(branchID, memberID uint) (*models.AccessPerson, error) {
	var person models.AccessPerson
	err := s.db.Where("branch_id = ? AND member_id = ?", branchID, memberID).First(&person).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "PersonForMember", Err: err}
	}
	return &person, nil
}

// SavePrivilege upserts one privilege assignment keyed by (person, device)
func (s *Store) SavePrivilege(assignment *models.PrivilegeAssignment) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "person_ref_id"}, {Name: "device_serial"}},
		DoUpdates: clause.AssignmentColumns([]string{"privilege", "valid_from", "valid_to", "sync_status", "last_error", "updated_at"}),
	}).Create(assignment).Error
	if err != nil {
		return &PersistenceError{Op: "SavePrivilege", Err: err}
	}
	return nil
}

// PrivilegesForPerson lists a person's assignments, newest first
func (s *Store) PrivilegesForPerson(personRefID uint) ([]models.PrivilegeAssignment, error) {
	var assignments []models.PrivilegeAssignment
	err := s.db.Where("person_ref_id = ?", personRefID).
		Order("updated_at DESC").Find(&assignments).Error
	if err != nil {
		return nil, &PersistenceError{Op: "PrivilegesForPerson", Err: err}
	}
	return assignments, nil
}

// RevokePrivileges transitions all of a person's assignments to revoked.
// Rows are never deleted; revocation is a status change so the audit history
// survives.
func (s *Store) RevokePrivileges(personRefID uint) (int64, error) {
	result := s.db.Model(&models.PrivilegeAssignment{}).
		Where("person_ref_id = ? AND sync_status <> ?", personRefID, models.PrivilegeStatusRevoked).
		Update("sync_status", models.PrivilegeStatusRevoked)
	if result.Error != nil {
		return 0, &PersistenceError{Op: "RevokePrivileges", Err: result.Error}
	}
	return result.RowsAffected, nil
}

// EventsForBranch lists recent access events, newest first
func (s *Store) EventsForBranch(branchID uint, limit int) ([]models.AccessEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []models.AccessEvent
	err := s.db.Where("branch_id = ?", branchID).
		Order("event_time DESC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, &PersistenceError{Op: "EventsForBranch", Err: err}
	}
	return events, nil
}

// LogsForBranch lists recent sync log entries, newest first
func (s *Store) LogsForBranch(branchID uint, limit int) ([]models.SyncLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []models.SyncLogEntry
	err := s.db.Where("branch_id = ?", branchID).
		Order("id DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, &PersistenceError{Op: "LogsForBranch", Err: err}
	}
	return entries, nil
}
