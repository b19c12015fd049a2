package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenRouter(oauthService *OAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/oauth/token", oauthService.HandleToken)
	return router
}

func postTokenForm(router *gin.Engine, form string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/oauth/token", bytes.NewBufferString(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestClientCredentialsFlow(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testJWTSecret)
	require.NotNil(t, oauthService)

	createTestClient(t, db, "flow_client", "flow_secret", nil)
	router := newTokenRouter(oauthService)

	w := postTokenForm(router, "grant_type=client_credentials&client_id=flow_client&client_secret=flow_secret")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Contains(t, response, "access_token")
	assert.Equal(t, "Bearer", response["token_type"])

	// expires_in is reported in whole seconds
	expiresIn, ok := response["expires_in"].(float64)
	require.True(t, ok)
	assert.Greater(t, expiresIn, float64(0))

	accessToken := response["access_token"].(string)
	assert.Contains(t, accessToken, ".")
	assert.Greater(t, len(accessToken), 50)
}

func TestClientCredentialsInvalidSecret(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testJWTSecret)

	createTestClient(t, db, "flow_client", "correct_secret", nil)
	router := newTokenRouter(oauthService)

	w := postTokenForm(router, "grant_type=client_credentials&client_id=flow_client&client_secret=wrong_secret")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "invalid_client", response["error"])
}

func TestClientCredentialsUnknownClient(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testJWTSecret)
	router := newTokenRouter(oauthService)

	w := postTokenForm(router, "grant_type=client_credentials&client_id=nobody&client_secret=whatever")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnsupportedGrantType(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testJWTSecret)
	router := newTokenRouter(oauthService)

	w := postTokenForm(router, "grant_type=authorization_code&code=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "unsupported_grant_type", response["error"])
}
