package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexofit/gym-api/internal/access/vendorapi"
	"github.com/nexofit/gym-api/internal/models"
)

func newTestEnroller(store *Store, api *fakeVendorAPI) *Enroller {
	tokens := NewTokenManager(store, api, testLogger())
	return NewEnroller(store, tokens, api, testLogger())
}

func cloudDevice(serial string) models.AccessDevice {
	return models.AccessDevice{SerialNumber: serial, Name: "Door " + serial, Type: models.DeviceTypeCloud}
}

func localDevice(serial, host string) models.AccessDevice {
	return models.AccessDevice{SerialNumber: serial, Type: models.DeviceTypeLocal, Host: host, Port: 80, Username: "admin", Password: "pw"}
}

func TestEnrollMemberAllCloudDevicesSucceed(t *testing.T) {
	store := NewStore(setupAccessDB(t))
	api := newFakeVendorAPI()
	api.addPerson = func(baseURL, token string, req vendor.AddPersonRequest) (string, error) {
		assert.Equal(t, "41", req.EmployeeID)
		assert.ElementsMatch(t, []string{"SN-1", "SN-2"}, req.GroupSerials)
		return "person-41", nil
	}
	enroller := newTestEnroller(store, api)
	seedSettings(t, store, 1, cloudDevice("SN-1"), cloudDevice("SN-2"))

	result := enroller.EnrollMember(context.Background(), 41, "Ada Lovelace", "+34600000000", 1, "")

	assert.True(t, result.Success)
	assert.Equal(t, "person-41", result.PersonID)
	assert.NotEmpty(t, result.AttemptID)
	require.Len(t, result.Devices, 2)
	for _, out := range result.Devices {
		assert.True(t, out.OK)
		assert.False(t, out.Simulated)
	}

	// Registration happens once for the whole group, privileges per device
	assert.Equal(t, 1, api.callCount("AddPerson"))
	assert.Equal(t, 2, api.callCount("ApplyPrivilege"))

	person, err := store.PersonForMember(1, 41)
	require.NoError(t, err)
	require.NotNil(t, person)
	assert.Equal(t, "person-41", person.PersonID)
	assert.True(t, person.IDConfirmed)

	assignments, err := store.PrivilegesForPerson(person.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	for _, a := range assignments {
		assert.Equal(t, models.PrivilegeStatusSynced, a.SyncStatus)
	}
}

func TestEnrollMemberPartialSuccess(t *testing.T) {
	store := NewStore(setupAccessDB(t))
	api := newFakeVendorAPI()
	api.applyPrivilege = func(baseURL, token, personID string, serials []string) error {
		if len(serials) == 1 && serials[0] == "SN-BAD" {
			return &vendor.ProtocolError{Op: "applyPrivilege", Code: "5", Msg: "device offline"}
		}
		return nil
	}
	enroller := newTestEnroller(store, api)
	seedSettings(t, store, 2, cloudDevice("SN-OK"), cloudDevice("SN-BAD"))

	result := enroller.EnrollMember(context.Background(), 42, "Grace Hopper", "", 2, "")

	// One device accepting the member is still a success, with the failed
	// serial called out.
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "1 of 2")
	assert.Contains(t, result.Message, "SN-BAD")

	person, err := store.PersonForMember(2, 42)
	require.NoError(t, err)
	require.NotNil(t, person)

	assignments, err := store.PrivilegesForPerson(person.ID)
	require.NoError(t, err)
	statuses := map[string]string{}
	for _, a := range assignments {
		statuses[a.DeviceSerial] = a.SyncStatus
	}
	assert.Equal(t, models.PrivilegeStatusSynced, statuses["SN-OK"])
	assert.Equal(t, models.PrivilegeStatusFailed, statuses["SN-BAD"])
}

func TestEnrollMemberPersonIDFallback(t *testing.T) {
	store := NewStore(setupAccessDB(t))
	api := newFakeVendorAPI()
	api.addPerson = func(baseURL, token string, req vendor.AddPersonRequest) (string, error) {
		return "", nil // platform version that omits the person id
	}
	enroller := newTestEnroller(store, api)
	seedSettings(t, store, 3, cloudDevice("SN-1"))

	result := enroller.EnrollMember(context.Background(), 77, "Edsger", "", 3, "")

	assert.True(t, result.Success)
	assert.Equal(t, "77", result.PersonID)

	person, err := store.PersonForMember(3, 77)
	require.NoError(t, err)
	require.NotNil(t, person)
	assert.Equal(t, "77", person.PersonID)
	assert.False(t, person.IDConfirmed)
}

func TestEnrollMemberLocalDeviceSimulated(t *testing.T) {
	store := NewStore(setupAccessDB(t))
	api := newFakeVendorAPI()
	api.addLocalUser = func(dev vendor.LocalDevice, user vendor.LocalUser) (bool, error) {
		assert.Equal(t, "10.0.0.5", dev.Host)
		assert.Equal(t, "55", user.ID)
		return true, nil
	}
	enroller := newTestEnroller(store, api)
	seedSettings(t, store, 4, localDevice("SN-L", "10.0.0.5"))

	result := enroller.EnrollMember(context.Background(), 55, "Barbara", "", 4, "")

	assert.True(t, result.Success)
	require.Len(t, result.Devices, 1)
	assert.True(t, result.Devices[0].OK)
	assert.True(t, result.Devices[0].Simulated)
	assert.Equal(t, models.DeviceTypeLocal, result.Devices[0].Type)
}

func TestEnrollMemberDeviceTypeFilter(t *testing.T) {
	store := NewStore(setupAccessDB(t))
	api := newFakeVendorAPI()
	enroller := newTestEnroller(store, api)
	seedSettings(t, store, 5, cloudDevice("SN-C"), localDevice("SN-L", "10.0.0.9"))

	result := enroller.EnrollMember(context.Background(), 60, "Ken", "", 5, models.DeviceTypeLocal)

	assert.True(t, result.Success)
	require.Len(t, result.Devices, 1)
	assert.Equal(t, "SN-L", result.Devices[0].Serial)
	assert.Equal(t, 0, api.callCount("AddPerson"))
	assert.Equal(t, 1, api.callCount("AddLocalUser"))
}

func TestEnrollMemberNoSettings(t *testing.T) {
	store := NewStore(setupAccessDB(t))
	api := newFakeVendorAPI()
	enroller := newTestEnroller(store, api)

	result := enroller.EnrollMember(context.Background(), 1, "Nobody", "", 99, "")

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "aborted")
	assert.Equal(t, 0, api.totalCalls())

	// Attempt lifecycle is on the log: an opening pending row and a closing
	// failed row sharing the attempt id.
	logs, err := store.LogsForBranch(99, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, logs[0].AttemptID, logs[1].AttemptID)
	assert.Equal(t, models.SyncLogStatusFailed, logs[0].Status)
	assert.Equal(t, models.SyncLogStatusPending, logs[1].Status)
}

func TestEnrollMemberAllDevicesFail(t *testing.T) {
	store := NewStore(setupAccessDB(t))
	api := newFakeVendorAPI()
	api.addPerson = func(baseURL, token string, req vendor.AddPersonRequest) (string, error) {
		return "", errors.New("boom")
	}
	api.addLocalUser = func(dev vendor.LocalDevice, user vendor.LocalUser) (bool, error) {
		return false, errors.New("unreachable")
	}
	enroller := newTestEnroller(store, api)
	seedSettings(t, store, 6, cloudDevice("SN-C"), localDevice("SN-L", "10.0.0.9"))

	result := enroller.EnrollMember(context.Background(), 2, "Nobody", "", 6, "")

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "failed on all devices")
	require.Len(t, result.Devices, 2)
	for _, out := range result.Devices {
		assert.False(t, out.OK)
		assert.NotEmpty(t, out.Error)
	}
}
