package access

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nexofit/gym-api/internal/access/vendorapi"
	"github.com/nexofit/gym-api/internal/models"
)

func setupAccessDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.BranchAccessSettings{},
		&models.AccessDevice{},
		&models.AccessToken{},
		&models.AccessEvent{},
		&models.SyncLogEntry{},
		&models.AccessPerson{},
		&models.PrivilegeAssignment{},
	)
	require.NoError(t, err)
	return db
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func seedSettings(t *testing.T, store *Store, branchID uint, devices ...models.AccessDevice) *models.BranchAccessSettings {
	settings := &models.BranchAccessSettings{
		BranchID:  branchID,
		BaseURL:   "https://vendor.example.com",
		AppKey:    "app-key",
		AppSecret: "app-secret",
		Active:    true,
		Devices:   devices,
	}
	require.NoError(t, store.UpsertSettings(settings))
	return settings
}

// fakeVendorAPI satisfies VendorAPI with per-call hooks. Nil hooks succeed
// with zero values; every call is counted.
type fakeVendorAPI struct {
	mu    sync.Mutex
	calls map[string]int

	fetchToken      func(baseURL, appKey, appSecret string) (vendor.TokenGrant, error)
	subscribe       func(baseURL, token string, topics []int) (string, error)
	pollMessages    func(baseURL, token, subscriptionID, offset string, limit int) ([]vendor.Message, string, error)
	ackOffset       func(baseURL, token, subscriptionID, offset string) error
	addPerson       func(baseURL, token string, req vendor.AddPersonRequest) (string, error)
	applyPrivilege  func(baseURL, token, personID string, serials []string) error
	privilegeStatus func(baseURL, token, personID string) (string, error)
	addLocalUser    func(dev vendor.LocalDevice, user vendor.LocalUser) (bool, error)
}

func newFakeVendorAPI() *fakeVendorAPI {
	return &fakeVendorAPI{calls: make(map[string]int)}
}

func (f *fakeVendorAPI) count(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeVendorAPI) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeVendorAPI) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeVendorAPI) FetchToken(ctx context.Context, baseURL, appKey, appSecret string) (vendor.TokenGrant, error) {
	f.count("FetchToken")
	if f.fetchToken != nil {
		return f.fetchToken(baseURL, appKey, appSecret)
	}
	return vendor.TokenGrant{Token: "fake-token", ExpiresAt: time.Now().Add(24 * time.Hour)}, nil
}

func (f *fakeVendorAPI) Subscribe(ctx context.Context, baseURL, token string, topics []int) (string, error) {
	f.count("Subscribe")
	if f.subscribe != nil {
		return f.subscribe(baseURL, token, topics)
	}
	return "sub-1", nil
}

func (f *fakeVendorAPI) PollMessages(ctx context.Context, baseURL, token, subscriptionID, offset string, limit int) ([]vendor.Message, string, error) {
	f.count("PollMessages")
	if f.pollMessages != nil {
		return f.pollMessages(baseURL, token, subscriptionID, offset, limit)
	}
	return nil, "", nil
}

func (f *fakeVendorAPI) AckOffset(ctx context.Context, baseURL, token, subscriptionID, offset string) error {
	f.count("AckOffset")
	if f.ackOffset != nil {
		return f.ackOffset(baseURL, token, subscriptionID, offset)
	}
	return nil
}

func (f *fakeVendorAPI) AddPerson(ctx context.Context, baseURL, token string, req vendor.AddPersonRequest) (string, error) {
	f.count("AddPerson")
	if f.addPerson != nil {
		return f.addPerson(baseURL, token, req)
	}
	return "person-1", nil
}

func (f *fakeVendorAPI) ApplyPrivilege(ctx context.Context, baseURL, token, personID string, serials []string, level int, validFrom, validTo *time.Time) error {
	f.count("ApplyPrivilege")
	if f.applyPrivilege != nil {
		return f.applyPrivilege(baseURL, token, personID, serials)
	}
	return nil
}

func (f *fakeVendorAPI) PrivilegeStatus(ctx context.Context, baseURL, token, personID string) (string, error) {
	f.count("PrivilegeStatus")
	if f.privilegeStatus != nil {
		return f.privilegeStatus(baseURL, token, personID)
	}
	return "applied", nil
}

func (f *fakeVendorAPI) AddLocalUser(ctx context.Context, dev vendor.LocalDevice, user vendor.LocalUser) (bool, error) {
	f.count("AddLocalUser")
	if f.addLocalUser != nil {
		return f.addLocalUser(dev, user)
	}
	return false, nil
}
