package vendor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TokenGrant is the result of a token-fetch call
type TokenGrant struct {
	Token     string
	ExpiresAt time.Time
	Domain    string
}

// Message is one event pulled from the vendor's message queue. Raw keeps the
// untouched payload for auditing; the typed fields are best-effort extractions.
type Message struct {
	ID        string `json:"eventId"`
	DeviceID  string `json:"deviceId"`
	DoorID    string `json:"doorId"`
	DoorName  string `json:"doorName"`
	PersonID  string `json:"personId"`
	CardNo    string `json:"cardNo"`
	EventType string `json:"eventType"`
	EventTime string `json:"happenTime"`

	Raw json.RawMessage `json:"-"`
}

// HappenedAt parses the vendor's event timestamp, which arrives either as
// RFC3339 or as epoch milliseconds depending on firmware version. The zero
// time is returned when the field is absent or unparseable.
func (m Message) HappenedAt() time.Time {
	s := strings.TrimSpace(m.EventTime)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

// AddPersonRequest registers one member as a platform person
type AddPersonRequest struct {
	EmployeeID   string   // our member id, used by the vendor for dedup
	Name         string
	Phone        string
	GroupSerials []string // cloud device groups the person joins
}

// LocalDevice addresses one directly-reachable door controller
type LocalDevice struct {
	SerialNumber string
	Host         string
	Port         int
	Username     string
	Password     string
}

// LocalUser is the payload for a direct device-level add-user call
type LocalUser struct {
	ID     string
	Name   string
	CardNo string
}

// envelopeCode tolerates the vendor sending errorCode as either a JSON
// string or a bare number.
type envelopeCode string

func (c *envelopeCode) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	*c = envelopeCode(s)
	return nil
}

// envelope is the vendor's uniform response wrapper. Success is signalled by
// errorCode "0", not by HTTP status alone.
type envelope struct {
	ErrorCode envelopeCode    `json:"errorCode"`
	ErrorMsg  string          `json:"errorMsg"`
	Data      json.RawMessage `json:"data"`
}

// ProtocolError is a non-zero errorCode in an otherwise-successful HTTP
// response. It is not retried automatically.
type ProtocolError struct {
	Op   string
	Code string
	Msg  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("vendor %s: errorCode=%s msg=%q", e.Op, e.Code, e.Msg)
}

// TransportError is a failure to complete the HTTP exchange at all (timeout,
// refused connection, exhausted transport chain). Transient; retried on the
// next scheduled tick.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("vendor %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
