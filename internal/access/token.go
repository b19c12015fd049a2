package access

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexofit/gym-api/internal/models"
)

// TokenManager owns the vendor access-token lifecycle for every branch.
// Tokens are valid for multi-day windows, so the cached row is reused until
// its expiry instant and refreshed only then; a missing token is a hard
// precondition failure for whatever operation needed it.
type TokenManager struct {
	store *Store
	api   VendorAPI
	log   *logrus.Logger
	now   func() time.Time
}

func NewTokenManager(store *Store, api VendorAPI, logger *logrus.Logger) *TokenManager {
	return &TokenManager{
		store: store,
		api:   api,
		log:   logger,
		now:   time.Now,
	}
}

// GetToken returns a live token for the branch, refreshing from the vendor
// when the cached one is absent or expired. Failures are returned without
// caching anything.
func (m *TokenManager) GetToken(ctx context.Context, settings *models.BranchAccessSettings) (string, error) {
	cached, err := m.store.TokenForBranch(settings.BranchID)
	if err != nil {
		return "", err
	}
	if cached != nil && m.now().Before(cached.ExpiresAt) {
		return cached.Token, nil
	}

	grant, err := m.api.FetchToken(ctx, settings.BaseURL, settings.AppKey, settings.AppSecret)
	if err != nil {
		return "", err
	}

	token := &models.AccessToken{
		BranchID:  settings.BranchID,
		Token:     grant.Token,
		Domain:    grant.Domain,
		ExpiresAt: grant.ExpiresAt,
	}
	if err := m.store.SaveToken(token); err != nil {
		return "", err
	}

	m.log.WithFields(logrus.Fields{
		"branch_id":  settings.BranchID,
		"expires_at": grant.ExpiresAt,
	}).Info("Vendor access token refreshed")
	return grant.Token, nil
}
