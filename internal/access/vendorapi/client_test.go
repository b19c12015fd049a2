package vendor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(server.Client(), server.Client(), testLogger())
}

func TestFetchTokenParsesGrant(t *testing.T) {
	expiry := time.Now().Add(48 * time.Hour).UnixMilli()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/artemis/api/v1/oauth/token", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "key", payload["appKey"])
		assert.Equal(t, "secret", payload["appSecret"])

		json.NewEncoder(w).Encode(map[string]any{
			"errorCode": "0",
			"data": map[string]any{
				"accessToken": "tok-123",
				"expireTime":  expiry,
				"areaDomain":  "eu-west",
			},
		})
	}))
	defer server.Close()

	grant, err := newTestClient(server).FetchToken(context.Background(), server.URL, "key", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", grant.Token)
	assert.Equal(t, "eu-west", grant.Domain)
	assert.Equal(t, time.UnixMilli(expiry).UTC(), grant.ExpiresAt)
}

func TestNonZeroErrorCodeIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errorCode":"EVZ10001","errorMsg":"appKey not exist"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchToken(context.Background(), server.URL, "bad", "bad")
	require.Error(t, err)

	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Equal(t, "EVZ10001", protoErr.Code)
	assert.Equal(t, "appKey not exist", protoErr.Msg)
}

func TestNumericErrorCodeTolerated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Some firmware sends errorCode as a bare number
		w.Write([]byte(`{"errorCode":0,"data":{"subscriptionId":"sub-9"}}`))
	}))
	defer server.Close()

	id, err := newTestClient(server).Subscribe(context.Background(), server.URL, "tok", []int{131073})
	require.NoError(t, err)
	assert.Equal(t, "sub-9", id)
}

func TestPollMessagesKeepsRawPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("Access-Token"))
		w.Write([]byte(`{"errorCode":"0","data":{"offset":"o5","messages":[
			{"eventId":"ev-1","eventType":"card","extraVendorField":42}
		]}}`))
	}))
	defer server.Close()

	msgs, offset, err := newTestClient(server).PollMessages(context.Background(), server.URL, "tok", "sub-1", "", 10)
	require.NoError(t, err)
	assert.Equal(t, "o5", offset)
	require.Len(t, msgs, 1)
	assert.Equal(t, "ev-1", msgs[0].ID)
	// Unmapped vendor fields survive in the raw payload for auditing
	assert.Contains(t, string(msgs[0].Raw), "extraVendorField")
}

func TestHTTPErrorStatusIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway busy", http.StatusBadGateway)
	}))
	defer server.Close()

	err := newTestClient(server).AckOffset(context.Background(), server.URL, "tok", "sub-1", "o1")
	require.Error(t, err)

	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Equal(t, "502", protoErr.Code)
}

func TestUnreachableHostIsTransportError(t *testing.T) {
	client := NewClient(&http.Client{Timeout: time.Second}, &http.Client{Timeout: time.Second}, testLogger())

	_, err := client.FetchToken(context.Background(), "http://127.0.0.1:1", "k", "s")
	require.Error(t, err)

	var transErr *TransportError
	assert.True(t, errors.As(err, &transErr))
}

func TestAddLocalUserReportsSimulated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "pw", pass)
		w.Header().Set(SimulatedHeader, "1")
		w.Write([]byte(`{"errorCode":"0"}`))
	}))
	defer server.Close()

	// Point the device call at the test server via its host/port
	host, port := splitHostPort(t, server.URL)
	simulated, err := newTestClient(server).AddLocalUser(context.Background(), LocalDevice{
		SerialNumber: "SN-1", Host: host, Port: port, Username: "admin", Password: "pw",
	}, LocalUser{ID: "7", Name: "Test"})
	require.NoError(t, err)
	assert.True(t, simulated)
}

func TestMessageHappenedAtFormats(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"rfc3339", "2026-03-04T10:00:00Z", time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)},
		{"epoch millis", "1756600000000", time.UnixMilli(1756600000000).UTC()},
		{"empty", "", time.Time{}},
		{"garbage", "yesterday", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Message{EventTime: tt.value}.HappenedAt()
			if tt.want.IsZero() {
				assert.True(t, got.IsZero())
				return
			}
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

// splitHostPort extracts host and numeric port from an httptest server URL
func splitHostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return u.Hostname(), port
}
