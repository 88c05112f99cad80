package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrNotRegistered     = errors.New("patient not registered")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrInvalidAge        = errors.New("age must be non-negative")
	ErrIntegrity         = errors.New("stored record is corrupt")
)

// IntegrityError reports bytes under Key that do not decode into the expected
// collection. It matches ErrIntegrity with errors.Is.
type IntegrityError struct {
	Key string
	Err error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: key %q: %v", ErrIntegrity, e.Key, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }
