package access

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexofit/gym-api/internal/access/vendorapi"
)

func newChainRequest(t *testing.T, url, body string) *http.Request {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestProxyTransportSetsRelayTarget(t *testing.T) {
	var gotTarget, gotBody string
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTarget = r.Header.Get(RelayTargetHeader)
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Write([]byte(`{"errorCode":"0"}`))
	}))
	defer relay.Close()

	chain := NewChain(testLogger(), &ProxyTransport{RelayURL: relay.URL, Client: relay.Client()})
	req := newChainRequest(t, "https://vendor.example.com/artemis/api/v1/event/messages", `{"limit":10}`)

	resp, err := chain.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://vendor.example.com/artemis/api/v1/event/messages", gotTarget)
	assert.Equal(t, `{"limit":10}`, gotBody)
}

func TestChainFallsBackToDirect(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"k":"v"}`, string(raw))
		w.Write([]byte(`{"errorCode":"0"}`))
	}))
	defer direct.Close()

	// Relay target refuses connections; the chain must replay the body on
	// the direct attempt.
	chain := NewChain(testLogger(),
		&ProxyTransport{RelayURL: "http://127.0.0.1:1", Client: &http.Client{Timeout: time.Second}},
		&DirectTransport{Client: direct.Client()},
	)
	req := newChainRequest(t, direct.URL, `{"k":"v"}`)

	resp, err := chain.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(vendor.SimulatedHeader))
}

func TestChainAllStrategiesFail(t *testing.T) {
	client := &http.Client{Timeout: time.Second}
	chain := NewChain(testLogger(),
		&ProxyTransport{RelayURL: "http://127.0.0.1:1", Client: client},
		&DirectTransport{Client: client},
	)
	req := newChainRequest(t, "http://127.0.0.1:1/unreachable", `{}`)

	_, err := chain.Do(req)
	require.Error(t, err)
}

func TestSimulatedTransportMarksResponse(t *testing.T) {
	chain := NewChain(testLogger(),
		&DirectTransport{Client: &http.Client{Timeout: time.Second}},
		&SimulatedTransport{},
	)
	req := newChainRequest(t, "http://127.0.0.1:1/api/v1/users", `{"userId":"1"}`)

	resp, err := chain.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(vendor.SimulatedHeader))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"errorCode":"0"`)
}

func TestDeviceChainWithoutSimulatedFails(t *testing.T) {
	chain := DeviceChain(testLogger(), "", time.Second, false)
	req := newChainRequest(t, "http://127.0.0.1:1/api/v1/users", `{}`)

	_, err := chain.Do(req)
	require.Error(t, err)
}

func TestDeviceChainWithSimulatedSucceeds(t *testing.T) {
	chain := DeviceChain(testLogger(), "", time.Second, true)
	req := newChainRequest(t, "http://127.0.0.1:1/api/v1/users", `{}`)

	resp, err := chain.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(vendor.SimulatedHeader))
}

func TestCloudBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	breaker := NewCloudBreaker("test")
	transport := &DirectTransport{Client: &http.Client{Timeout: 100 * time.Millisecond}, Breaker: breaker}

	for i := 0; i < 5; i++ {
		req := newChainRequest(t, "http://127.0.0.1:1/down", `{}`)
		_, err := transport.RoundTrip(req)
		require.Error(t, err)
	}

	// The breaker is now open and rejects without dialing
	req := newChainRequest(t, "http://127.0.0.1:1/down", `{}`)
	start := time.Now()
	_, err := transport.RoundTrip(req)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
