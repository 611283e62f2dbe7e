package users

import (
	"errors"
	"fmt"
)

// ErrDuplicateID is returned by repositories when an insert collides with an
// existing identifier.
var ErrDuplicateID = errors.New("duplicate user id")

// ValidationError reports attributes the store would not accept.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "user validation failed: " + e.Message
	}
	return fmt.Sprintf("user validation failed: %s: %s", e.Field, e.Message)
}

// StoreError wraps a failure of the underlying document store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("user store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
