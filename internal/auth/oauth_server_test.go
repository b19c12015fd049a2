package auth

import (
	"context"
	"testing"

	"github.com/go-oauth2/oauth2/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nexofit/gym-api/internal/models"
)

const testJWTSecret = "test-jwt-secret-key-32-characters"

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.OAuthClient{}, &models.OAuthToken{})
	require.NoError(t, err)

	return db
}

func createTestClient(t *testing.T, db *gorm.DB, clientID, plainSecret string, branchID *uint) *models.User {
	user := &models.User{
		Email:    clientID + "@gym.local",
		Password: "login-disabled",
		Name:     "Machine account " + clientID,
		Role:     "admin",
		BranchID: branchID,
	}
	require.NoError(t, user.HashPassword())
	require.NoError(t, db.Create(user).Error)

	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(plainSecret), bcrypt.DefaultCost)
	require.NoError(t, err)

	client := &models.OAuthClient{
		ID:         clientID,
		Secret:     string(hashedSecret),
		Name:       "Test client",
		Domain:     "http://localhost",
		UserID:     user.ID,
		Scopes:     "read write",
		GrantTypes: "client_credentials",
	}
	require.NoError(t, db.Create(client).Error)
	return user
}

func TestOAuthServiceInitialization(t *testing.T) {
	db := setupTestDB(t)

	oauthService := NewOAuthService(db, testJWTSecret)
	assert.NotNil(t, oauthService)
	assert.NotNil(t, oauthService.GetServer())
}

func TestJWTTokenClaims(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testJWTSecret)
	require.NotNil(t, oauthService)

	branchID := uint(7)
	user := createTestClient(t, db, "kiosk_client", "kiosk_secret", &branchID)

	ctx := context.Background()
	tokenInfo, err := oauthService.GetServer().Manager.GenerateAccessToken(ctx, oauth2.ClientCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     "kiosk_client",
		ClientSecret: "kiosk_secret",
		Scope:        "read write",
	})
	require.NoError(t, err)
	require.NotNil(t, tokenInfo)
	require.NotEmpty(t, tokenInfo.GetAccess())

	// The access token must be a signed JWT carrying the staff account's
	// identity so the bearer middleware can authorize requests with it
	token, err := jwt.Parse(tokenInfo.GetAccess(), func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "kiosk_client", claims["aud"])
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, float64(branchID), claims["branch"])

	uid, ok := claims["uid"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, uid)
	assert.Equal(t, user.Role, claims["role"])
}

func TestTokenGenerationWithoutUserFails(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testJWTSecret)

	// Client with no associated staff account: token issuance must be refused
	hashedSecret, err := bcrypt.GenerateFromPassword([]byte("orphan_secret"), bcrypt.DefaultCost)
	require.NoError(t, err)
	client := &models.OAuthClient{
		ID:     "orphan_client",
		Secret: string(hashedSecret),
		Domain: "http://localhost",
		Scopes: "read",
	}
	require.NoError(t, db.Create(client).Error)

	_, err = oauthService.GetServer().Manager.GenerateAccessToken(context.Background(), oauth2.ClientCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     "orphan_client",
		ClientSecret: "orphan_secret",
	})
	assert.Error(t, err)
}

func TestClientStoreIntegration(t *testing.T) {
	db := setupTestDB(t)
	createTestClient(t, db, "store_client", "store_secret", nil)

	clientStore := NewGormClientStore(db)
	ctx := context.Background()

	retrieved, err := clientStore.GetByID(ctx, "store_client")
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, "store_client", retrieved.GetID())
	assert.False(t, retrieved.IsPublic())

	_, err = clientStore.GetByID(ctx, "missing_client")
	assert.Error(t, err)
}

func TestTokenStoreRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	tokenStore := NewGormTokenStore(db)
	ctx := context.Background()

	oauthService := NewOAuthService(db, testJWTSecret)
	createTestClient(t, db, "rt_client", "rt_secret", nil)

	tokenInfo, err := oauthService.GetServer().Manager.GenerateAccessToken(ctx, oauth2.ClientCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     "rt_client",
		ClientSecret: "rt_secret",
	})
	require.NoError(t, err)

	stored, err := tokenStore.GetByAccess(ctx, tokenInfo.GetAccess())
	require.NoError(t, err)
	assert.Equal(t, "rt_client", stored.GetClientID())

	require.NoError(t, tokenStore.RemoveByAccess(ctx, tokenInfo.GetAccess()))
	_, err = tokenStore.GetByAccess(ctx, tokenInfo.GetAccess())
	assert.Error(t, err)
}
