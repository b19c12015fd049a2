package access

import (
	"context"
	"time"

	"github.com/nexofit/gym-api/internal/access/vendorapi"
)

// VendorAPI is the slice of the vendor client the integration core calls.
// *vendor.Client satisfies it; tests substitute fakes.
type VendorAPI interface {
	FetchToken(ctx context.Context, baseURL, appKey, appSecret string) (vendor.TokenGrant, error)
	Subscribe(ctx context.Context, baseURL, token string, topics []int) (string, error)
	PollMessages(ctx context.Context, baseURL, token, subscriptionID, offset string, limit int) ([]vendor.Message, string, error)
	AckOffset(ctx context.Context, baseURL, token, subscriptionID, offset string) error
	AddPerson(ctx context.Context, baseURL, token string, req vendor.AddPersonRequest) (string, error)
	ApplyPrivilege(ctx context.Context, baseURL, token, personID string, serials []string, level int, validFrom, validTo *time.Time) error
	PrivilegeStatus(ctx context.Context, baseURL, token, personID string) (string, error)
	AddLocalUser(ctx context.Context, dev vendor.LocalDevice, user vendor.LocalUser) (simulated bool, err error)
}

// DoorAccessTopic is the vendor's topic id for door/access events
const DoorAccessTopic = 131073
