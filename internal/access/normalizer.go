package access

import (
	"strings"
	"time"

	"github.com/nexofit/gym-api/internal/access/vendorapi"
	"github.com/nexofit/gym-api/internal/models"
)

// Classifier maps the vendor's free-text event type field onto the canonical
// entry/exit/unknown taxonomy by keyword. The vendor's taxonomy is
// underspecified, so this is a substring heuristic with overridable keyword
// lists rather than an enum match.
type Classifier struct {
	Entry []string
	Exit  []string
}

// NewClassifier returns the default keyword sets observed across vendor
// firmware versions.
func NewClassifier() *Classifier {
	return &Classifier{
		Entry: []string{"open", "card", "face", "finger", "entry", "access", "verify", "unlock"},
		Exit:  []string{"close", "exit", "leave"},
	}
}

// Classify returns entry, exit or unknown for one vendor event type string.
// Exit keywords are checked first: strings like "door closed after access
// granted" mention both vocabularies and the closing action is the event.
func (c *Classifier) Classify(eventType string) string {
	s := strings.ToLower(eventType)
	for _, kw := range c.Exit {
		if strings.Contains(s, kw) {
			return models.EventTypeExit
		}
	}
	for _, kw := range c.Entry {
		if strings.Contains(s, kw) {
			return models.EventTypeEntry
		}
	}
	return models.EventTypeUnknown
}

// Normalize maps one vendor message into the canonical access event record.
// The raw payload rides along untouched for auditing. Pure; persistence is
// the store's job.
func (c *Classifier) Normalize(branchID uint, msg vendor.Message) models.AccessEvent {
	eventTime := msg.HappenedAt()
	if eventTime.IsZero() {
		eventTime = time.Now().UTC()
	}
	return models.AccessEvent{
		BranchID:      branchID,
		VendorEventID: msg.ID,
		DeviceID:      msg.DeviceID,
		DoorID:        msg.DoorID,
		DoorName:      msg.DoorName,
		PersonID:      msg.PersonID,
		CardNo:        msg.CardNo,
		EventType:     c.Classify(msg.EventType),
		EventTime:     eventTime,
		RawPayload:    string(msg.Raw),
	}
}
