package access

import (
	"errors"
	"fmt"

	"github.com/nexofit/gym-api/internal/access/vendorapi"
)

// ConfigurationError means a branch has no usable access settings. Not
// retryable until an administrator fixes the configuration.
type ConfigurationError struct {
	BranchID uint
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("branch %d: configuration: %s", e.BranchID, e.Reason)
}

// PersistenceError is a local storage write failure. The current step must
// abort without advancing offsets, since offset advancement implies
// durability of the corresponding events.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Error classes recorded in sync log entries
const (
	ClassConfiguration = "configuration"
	ClassTransport     = "transport"
	ClassVendor        = "vendor"
	ClassPersistence   = "persistence"
	ClassInternal      = "internal"
)

// Classify buckets an error into the taxonomy used for sync logging
func Classify(err error) string {
	var confErr *ConfigurationError
	var persErr *PersistenceError
	var protoErr *vendor.ProtocolError
	var transErr *vendor.TransportError

	switch {
	case errors.As(err, &confErr):
		return ClassConfiguration
	case errors.As(err, &persErr):
		return ClassPersistence
	case errors.As(err, &protoErr):
		return ClassVendor
	case errors.As(err, &transErr):
		return ClassTransport
	default:
		return ClassInternal
	}
}
