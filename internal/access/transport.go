package access

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/nexofit/gym-api/internal/access/vendorapi"
	"github.com/sirupsen/logrus"
)

// RelayTargetHeader carries the real vendor URL when a request is routed
// through the trusted relay.
const RelayTargetHeader = "X-Relay-Target"

// Transport is one strategy for completing an outbound vendor exchange.
// Strategies are tried in order by Chain; the first to succeed wins.
type Transport interface {
	Name() string
	RoundTrip(req *http.Request) (*http.Response, error)
}

// ProxyTransport routes the call through a trusted server-side relay. The
// relay receives the original target URL in a header and replays the request
// from its own network position.
type ProxyTransport struct {
	RelayURL string
	Client   *http.Client
}

func (p *ProxyTransport) Name() string { return "proxy" }

func (p *ProxyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	relayed, err := http.NewRequestWithContext(req.Context(), req.Method, p.RelayURL, req.Body)
	if err != nil {
		return nil, err
	}
	relayed.Header = req.Header.Clone()
	relayed.Header.Set(RelayTargetHeader, req.URL.String())
	return p.Client.Do(relayed)
}

// DirectTransport calls the vendor or device straight from this process. The
// optional circuit breaker (used on the cloud path) trips open after repeated
// failures so a flapping vendor is not hammered on every tick.
type DirectTransport struct {
	Client  *http.Client
	Breaker *gobreaker.CircuitBreaker[*http.Response]
}

func (d *DirectTransport) Name() string { return "direct" }

func (d *DirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if d.Breaker == nil {
		return d.Client.Do(req)
	}
	return d.Breaker.Execute(func() (*http.Response, error) {
		return d.Client.Do(req)
	})
}

// SimulatedTransport synthesizes a success response without touching the
// network. It stands in for the server-side relay in development environments
// where local devices are unreachable; responses are marked with
// vendor.SimulatedHeader so they are never mistaken for a real device
// acknowledgment.
type SimulatedTransport struct{}

func (s *SimulatedTransport) Name() string { return "simulated" }

func (s *SimulatedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set(vendor.SimulatedHeader, "1")
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(`{"errorCode":"0","errorMsg":"simulated","data":{}}`))),
		Request:    req,
	}, nil
}

// Chain tries each strategy in order until one completes the exchange. Every
// attempt is logged with the strategy name so the winning path is always
// reconstructable. Implements vendor.Doer.
type Chain struct {
	strategies []Transport
	log        *logrus.Logger
}

func NewChain(logger *logrus.Logger, strategies ...Transport) *Chain {
	return &Chain{strategies: strategies, log: logger}
}

// Do attempts the request through each strategy. The request body is restored
// between attempts via GetBody, so callers must build requests with
// replayable bodies (http.NewRequest with a bytes.Reader does this).
func (c *Chain) Do(req *http.Request) (*http.Response, error) {
	var lastErr error
	for _, t := range c.strategies {
		attempt := req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("transport chain: rewind body: %w", err)
			}
			attempt.Body = body
		}

		resp, err := t.RoundTrip(attempt)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"strategy": t.Name(),
				"url":      req.URL.String(),
				"error":    err.Error(),
			}).Warn("Transport attempt failed")
			lastErr = err
			continue
		}

		c.log.WithFields(logrus.Fields{
			"strategy": t.Name(),
			"url":      req.URL.String(),
			"status":   resp.StatusCode,
		}).Debug("Transport attempt succeeded")
		return resp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("transport chain: no strategies configured")
	}
	return nil, lastErr
}

// NewCloudBreaker builds the circuit breaker guarding the direct cloud path
func NewCloudBreaker(name string) *gobreaker.CircuitBreaker[*http.Response] {
	settings := gobreaker.Settings{
		Name:     name,
		Interval: 2 * time.Minute,
		Timeout:  time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return gobreaker.NewCircuitBreaker[*http.Response](settings)
}

// CloudChain assembles the transport order for vendor platform calls:
// relay first when configured, then direct with the circuit breaker.
func CloudChain(logger *logrus.Logger, relayURL string, timeout time.Duration) *Chain {
	client := &http.Client{Timeout: timeout}
	strategies := []Transport{}
	if relayURL != "" {
		strategies = append(strategies, &ProxyTransport{RelayURL: relayURL, Client: client})
	}
	strategies = append(strategies, &DirectTransport{Client: client, Breaker: NewCloudBreaker("vendor-cloud")})
	return NewChain(logger, strategies...)
}

// DeviceChain assembles the transport order for local device calls: relay,
// then direct, then (only when allowSimulated is set) the simulated strategy.
func DeviceChain(logger *logrus.Logger, relayURL string, timeout time.Duration, allowSimulated bool) *Chain {
	client := &http.Client{Timeout: timeout}
	strategies := []Transport{}
	if relayURL != "" {
		strategies = append(strategies, &ProxyTransport{RelayURL: relayURL, Client: client})
	}
	strategies = append(strategies, &DirectTransport{Client: client})
	if allowSimulated {
		strategies = append(strategies, &SimulatedTransport{})
	}
	return NewChain(logger, strategies...)
}
