package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexofit/gym-api/internal/models"
)

func TestSettingsForBranchWithoutRow(t *testing.T) {
	store := NewStore(setupAccessDB(t))

	_, err := store.SettingsForBranch(99)
	require.Error(t, err)
	assert.Equal(t, ClassConfiguration, Classify(err))
}

func TestSettingsForBranchInactive(t *testing.T) {
	store := NewStore(setupAccessDB(t))
	settings := seedSettings(t, store, 5)
	settings.Active = false
	require.NoError(t, store.UpsertSettings(settings))

	_, err := store.SettingsForBranch(5)
	require.Error(t, err)
	assert.Equal(t, ClassConfiguration, Classify(err))
}

func TestUpsertSettingsPreservesCursor(t *testing.T) {
	store := NewStore(setupAccessDB(t))
	seedSettings(t, store, 6)

	// Polling engine advances the cursor
	require.NoError(t, store.SaveSubscription(6, "sub-42"))
	require.NoError(t, store.CommitPage(6, nil, "offset-9", time.Now().UTC()))

	// Administrator rewrites credentials; cursor state must survive
	updated := &models.BranchAccessSettings{
		BranchID:  6,
		BaseURL:   "https://vendor2.example.com",
		AppKey:    "new-key",
		AppSecret: "new-secret",
		Active:    true,
		Devices: []models.AccessDevice{
			{SerialNumber: "SN-1", Type: models.DeviceTypeCloud, Name: "Front door"},
		},
	}
	require.NoError(t, store.UpsertSettings(updated))

	settings, err := store.SettingsForBranch(6)
	require.NoError(t, err)
	assert.Equal(t, "https://vendor2.example.com", settings.BaseURL)
	assert.Equal(t, "new-key", settings.AppKey)
	assert.Equal(t, "sub-42", settings.SubscriptionID)
	assert.Equal(t, "offset-9", settings.MessageOffset)
	require.Len(t, settings.Devices, 1)
	assert.Equal(t, "SN-1", settings.Devices[0].SerialNumber)
}

func TestUpsertSettingsReplacesDevices(t *testing.T) {
	store := NewStore(setupAccessDB(t))
	seedSettings(t, store, 7,
		models.AccessDevice{SerialNumber: "OLD-1", Type: models.DeviceTypeCloud},
		models.AccessDevice{SerialNumber: "OLD-2", Type: models.DeviceTypeLocal, Host: "10.0.0.2", Port: 80},
	)

	updated := &models.BranchAccessSettings{
		BranchID:  7,
		BaseURL:   "https://vendor.example.com",
		AppKey:    "app-key",
		AppSecret: "app-secret",
		Active:    true,
		Devices: []models.AccessDevice{
			{SerialNumber: "NEW-1", Type: models.DeviceTypeCloud},
		},
	}
	require.NoError(t, store.UpsertSettings(updated))

	settings, err := store.SettingsForBranch(7)
	require.NoError(t, err)
	require.Len(t, settings.Devices, 1)
	assert.Equal(t, "NEW-1", settings.Devices[0].SerialNumber)
}

func TestCommitPageIsIdempotent(t *testing.T) {
	store := NewStore(setupAccessDB(t))
	seedSettings(t, store, 8)

	events := []models.AccessEvent{
		{BranchID: 8, VendorEventID: "ev-1", EventType: models.EventTypeEntry, EventTime: time.Now().UTC()},
		{BranchID: 8, VendorEventID: "ev-2", EventType: models.EventTypeExit, EventTime: time.Now().UTC()},
	}
	require.NoError(t, store.CommitPage(8, events, "o1", time.Now().UTC()))

	// Vendor redelivers the same page plus one new event
	redelivered := []models.AccessEvent{
		{BranchID: 8, VendorEventID: "ev-1", EventType: models.EventTypeEntry, EventTime: time.Now().UTC()},
		{BranchID: 8, VendorEventID: "ev-2", EventType: models.EventTypeExit, EventTime: time.Now().UTC()},
		{BranchID: 8, VendorEventID: "ev-3", EventType: models.EventTypeEntry, EventTime: time.Now().UTC()},
	}
	require.NoError(t, store.CommitPage(8, redelivered, "o2", time.Now().UTC()))

	stored, err := store.EventsForBranch(8, 0)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	settings, err := store.SettingsForBranch(8)
	require.NoError(t, err)
	assert.Equal(t, "o2", settings.MessageOffset)
	assert.Equal(t, models.SyncStatusOK, settings.LastSyncStatus)
}

func TestCommitPageRollsBackOnBadEvent(t *testing.T) {
	store := NewStore(setupAccessDB(t))
	seedSettings(t, store, 9)

	events := []models.AccessEvent{
		{BranchID: 9, VendorEventID: "ev-1", EventType: models.EventTypeEntry, EventTime: time.Now().UTC()},
		{BranchID: 9, VendorEventID: "", EventType: models.EventTypeEntry, EventTime: time.Now().UTC()},
	}
	err := store.CommitPage(9, events, "o1", time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, ClassPersistence, Classify(err))

	// Neither the valid event nor the offset may survive a failed page
	stored, err := store.EventsForBranch(9, 0)
	require.NoError(t, err)
	assert.Empty(t, stored)

	settings, err := store.SettingsForBranch(9)
	require.NoError(t, err)
	assert.Empty(t, settings.MessageOffset)
}

func TestSaveTokenUpserts(t *testing.T) {
	store := NewStore(setupAccessDB(t))

	first := &models.AccessToken{BranchID: 10, Token: "tok-a", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.SaveToken(first))

	second := &models.AccessToken{BranchID: 10, Token: "tok-b", ExpiresAt: time.Now().Add(2 * time.Hour)}
	require.NoError(t, store.SaveToken(second))

	var count int64
	require.NoError(t, store.db.Model(&models.AccessToken{}).Where("branch_id = ?", 10).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	cached, err := store.TokenForBranch(10)
	require.NoError(t, err)
	assert.Equal(t, "tok-b", cached.Token)
}

func TestUpsertPersonKeyedByBranchAndMember(t *testing.T) {
	store := NewStore(setupAccessDB(t))

	require.NoError(t, store.UpsertPerson(&models.AccessPerson{BranchID: 11, MemberID: 1, PersonID: "p-1", IDConfirmed: true}))
	require.NoError(t, store.UpsertPerson(&models.AccessPerson{BranchID: 11, MemberID: 1, PersonID: "p-1b", IDConfirmed: false}))

	person, err := store.PersonForMember(11, 1)
	require.NoError(t, err)
	require.NotNil(t, person)
	assert.Equal(t, "p-1b", person.PersonID)
	assert.False(t, person.IDConfirmed)

	missing, err := store.PersonForMember(11, 2)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRevokePrivilegesTransitionsStatus(t *testing.T) {
	store := NewStore(setupAccessDB(t))

	require.NoError(t, store.UpsertPerson(&models.AccessPerson{BranchID: 12, MemberID: 3, PersonID: "p-3", IDConfirmed: true}))
	person, err := store.PersonForMember(12, 3)
	require.NoError(t, err)

	require.NoError(t, store.SavePrivilege(&models.PrivilegeAssignment{
		PersonRefID: person.ID, DeviceSerial: "SN-A", SyncStatus: models.PrivilegeStatusSynced,
	}))
	require.NoError(t, store.SavePrivilege(&models.PrivilegeAssignment{
		PersonRefID: person.ID, DeviceSerial: "SN-B", SyncStatus: models.PrivilegeStatusFailed,
	}))

	revoked, err := store.RevokePrivileges(person.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), revoked)

	// Rows survive as audit history, all in revoked status
	assignments, err := store.PrivilegesForPerson(person.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	for _, a := range assignments {
		assert.Equal(t, models.PrivilegeStatusRevoked, a.SyncStatus)
	}

	// Revoking again touches nothing
	revoked, err = store.RevokePrivileges(person.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), revoked)
}
