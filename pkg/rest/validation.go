package rest

import (
	"fmt"
	"strings"

	xe "github.com/youwol/backends/pkg/errors"
)

// ValidationError is returned when a request or a response does not satisfy its declared shape.
//
// It is never returned for non-2xx responses; those are *ServiceError.
type ValidationError struct {
	Field  string
	Reason string
	Cause  error
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%s)", msg, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", xe.ErrValidation.Error(), msg)
}

func (e *ValidationError) Is(target error) bool {
	return target == xe.ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Validator is implemented by models which check themselves after decoding.
type Validator interface {
	Validate() error
}

// Require returns ValidationError when value is empty or blank.
//
// Identifiers used as path segments are also checked by Do: "." and ".." are rejected there.
func Require(field string, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

// RequireAll is Require for pairs of (field, value).
//
// It reports the first violation.
func RequireAll(fieldAndValues ...string) error {
	if len(fieldAndValues)%2 != 0 {
		panic("rest.RequireAll: odd number of arguments")
	}
	for i := 0; i < len(fieldAndValues); i += 2 {
		if err := Require(fieldAndValues[i], fieldAndValues[i+1]); err != nil {
			return err
		}
	}
	return nil
}
