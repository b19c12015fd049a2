package vendor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// SimulatedHeader marks a response synthesized by the simulated transport
// strategy instead of a real vendor/device acknowledgment.
const SimulatedHeader = "X-Access-Simulated"

// Doer issues one outbound HTTP exchange. The access package supplies chains
// that try a relay first and fall back to a direct call.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the access-control vendor platform and to local door
// controllers. It is stateless; branch credentials and tokens are passed per
// call by the token lifecycle manager and polling engine.
type Client struct {
	cloud  Doer
	device Doer
	log    *logrus.Logger
}

// NewClient builds a vendor client. cloud handles platform calls, device
// handles direct local-controller calls.
func NewClient(cloud, device Doer, logger *logrus.Logger) *Client {
	return &Client{cloud: cloud, device: device, log: logger}
}

// FetchToken exchanges a branch's app key/secret for an access token
func (c *Client) FetchToken(ctx context.Context, baseURL, appKey, appSecret string) (TokenGrant, error) {
	var data struct {
		AccessToken string `json:"accessToken"`
		ExpireTime  int64  `json:"expireTime"` // epoch millis
		AreaDomain  string `json:"areaDomain"`
	}
	payload := map[string]string{"appKey": appKey, "appSecret": appSecret}
	if err := c.post(ctx, c.cloud, "token", baseURL+"/artemis/api/v1/oauth/token", "", payload, &data); err != nil {
		return TokenGrant{}, err
	}
	if data.AccessToken == "" {
		return TokenGrant{}, &ProtocolError{Op: "token", Code: "0", Msg: "empty accessToken in response"}
	}
	return TokenGrant{
		Token:     data.AccessToken,
		ExpiresAt: time.UnixMilli(data.ExpireTime).UTC(),
		Domain:    data.AreaDomain,
	}, nil
}

// Subscribe creates an event subscription for the door-access topic set and
// returns the subscription id to be reused across polls.
func (c *Client) Subscribe(ctx context.Context, baseURL, token string, topics []int) (string, error) {
	var data struct {
		SubscriptionID string `json:"subscriptionId"`
	}
	payload := map[string]any{"topics": topics}
	if err := c.post(ctx, c.cloud, "subscribe", baseURL+"/artemis/api/v1/event/subscription", token, payload, &data); err != nil {
		return "", err
	}
	if data.SubscriptionID == "" {
		return "", &ProtocolError{Op: "subscribe", Code: "0", Msg: "empty subscriptionId in response"}
	}
	return data.SubscriptionID, nil
}

// PollMessages fetches the next page of events after offset. An empty offset
// means "from the beginning". Returns the messages and the vendor's new
// offset; both are empty when the queue has nothing new.
func (c *Client) PollMessages(ctx context.Context, baseURL, token, subscriptionID, offset string, limit int) ([]Message, string, error) {
	var data struct {
		Messages []json.RawMessage `json:"messages"`
		Offset   string            `json:"offset"`
	}
	payload := map[string]any{
		"subscriptionId": subscriptionID,
		"limit":          limit,
	}
	if offset != "" {
		payload["offset"] = offset
	}
	if err := c.post(ctx, c.cloud, "poll", baseURL+"/artemis/api/v1/event/messages", token, payload, &data); err != nil {
		return nil, "", err
	}

	msgs := make([]Message, 0, len(data.Messages))
	for _, raw := range data.Messages {
		var m Message
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, "", &ProtocolError{Op: "poll", Code: "0", Msg: fmt.Sprintf("malformed message in page: %v", err)}
		}
		m.Raw = raw
		msgs = append(msgs, m)
	}
	return msgs, data.Offset, nil
}

// AckOffset tells the vendor the offset has been consumed so the page is not
// redelivered. Best-effort from the caller's perspective; the local offset is
// the source of truth.
func (c *Client) AckOffset(ctx context.Context, baseURL, token, subscriptionID, offset string) error {
	payload := map[string]any{
		"subscriptionId": subscriptionID,
		"offset":         offset,
	}
	return c.post(ctx, c.cloud, "ack", baseURL+"/artemis/api/v1/event/offset", token, payload, nil)
}

// AddPerson registers a member as a platform person in the given device
// groups. The returned person id may be empty: some platform versions omit it
// and callers must fall back to their own identifier.
func (c *Client) AddPerson(ctx context.Context, baseURL, token string, req AddPersonRequest) (string, error) {
	var data struct {
		PersonID string `json:"personId"`
	}
	payload := map[string]any{
		"employeeNo":   req.EmployeeID,
		"name":         req.Name,
		"phone":        req.Phone,
		"groupSerials": req.GroupSerials,
		"personType":   "visitor",
	}
	if err := c.post(ctx, c.cloud, "addPerson", baseURL+"/artemis/api/v1/person/add", token, payload, &data); err != nil {
		return "", err
	}
	return data.PersonID, nil
}

// ApplyPrivilege grants the person access on the given device serials.
// Repeating the call with the same arguments has the same effect.
func (c *Client) ApplyPrivilege(ctx context.Context, baseURL, token, personID string, serials []string, level int, validFrom, validTo *time.Time) error {
	payload := map[string]any{
		"personId":  personID,
		"serials":   serials,
		"privilege": level,
	}
	if validFrom != nil {
		payload["validFrom"] = validFrom.UTC().Format(time.RFC3339)
	}
	if validTo != nil {
		payload["validTo"] = validTo.UTC().Format(time.RFC3339)
	}
	return c.post(ctx, c.cloud, "applyPrivilege", baseURL+"/artemis/api/v1/privilege/apply", token, payload, nil)
}

// PrivilegeStatus queries propagation status for a person's privileges
func (c *Client) PrivilegeStatus(ctx context.Context, baseURL, token, personID string) (string, error) {
	var data struct {
		Status string `json:"status"`
	}
	payload := map[string]any{"personId": personID}
	if err := c.post(ctx, c.cloud, "privilegeStatus", baseURL+"/artemis/api/v1/privilege/status", token, payload, &data); err != nil {
		return "", err
	}
	return data.Status, nil
}

// AddLocalUser enrolls a user directly on a local door controller. Returns
// simulated=true when the response came from the simulated transport strategy
// rather than the device itself.
func (c *Client) AddLocalUser(ctx context.Context, dev LocalDevice, user LocalUser) (simulated bool, err error) {
	url := fmt.Sprintf("http://%s:%d/api/v1/users", dev.Host, dev.Port)
	payload := map[string]any{
		"userId": user.ID,
		"name":   user.Name,
		"cardNo": user.CardNo,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("addLocalUser marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("addLocalUser request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(dev.Username, dev.Password)

	resp, err := c.device.Do(req)
	if err != nil {
		return false, &TransportError{Op: "addLocalUser", Err: err}
	}
	defer resp.Body.Close()

	simulated = resp.Header.Get(SimulatedHeader) != ""
	if resp.StatusCode >= 300 {
		return simulated, &ProtocolError{Op: "addLocalUser", Code: fmt.Sprint(resp.StatusCode), Msg: "device rejected add-user"}
	}
	return simulated, nil
}

// post issues one enveloped vendor call and unmarshals the data field into
// out (when out is non-nil).
func (c *Client) post(ctx context.Context, d Doer, op, url, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("vendor %s marshal: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("vendor %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Access-Token", token)
	}

	resp, err := d.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode >= 300 {
		return &ProtocolError{Op: op, Code: fmt.Sprint(resp.StatusCode), Msg: strings.TrimSpace(string(raw))}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &ProtocolError{Op: op, Code: "0", Msg: fmt.Sprintf("malformed envelope: %v", err)}
	}
	if env.ErrorCode != "" && env.ErrorCode != "0" {
		return &ProtocolError{Op: op, Code: string(env.ErrorCode), Msg: env.ErrorMsg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &ProtocolError{Op: op, Code: "0", Msg: fmt.Sprintf("malformed data: %v", err)}
		}
	}

	c.log.WithFields(logrus.Fields{
		"op":  op,
		"url": url,
	}).Debug("Vendor call succeeded")
	return nil
}
