// Package apperr defines the error kinds shared by the CSMS engine and its
// collaborators. Callers test kinds with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation means a date, score or status value is malformed.
	ErrValidation = errors.New("validation failed")
	// ErrUpstreamUnavailable means the store, storage or email collaborator failed.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrPartialEvaluation means some records were skipped during a batch run.
	ErrPartialEvaluation = errors.New("partial evaluation")
)

// NotFound returns an ErrNotFound for an entity kind and id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// Validation returns an ErrValidation naming the offending field.
func Validation(field, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", field, fmt.Sprintf(format, args...), ErrValidation)
}

// Upstream wraps a collaborator failure as ErrUpstreamUnavailable while
// keeping the cause reachable through errors.Is/As.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
}

// Partial returns an ErrPartialEvaluation reporting how many records were skipped.
func Partial(skipped int) error {
	return fmt.Errorf("%d record(s) skipped: %w", skipped, ErrPartialEvaluation)
}
