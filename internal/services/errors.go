package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrNotConfigured   = errors.New("not configured")
	ErrInvalidResponse = errors.New("invalid response")
	ErrNetwork         = errors.New("network error")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrValidation      = errors.New("validation error")
	ErrInternal        = errors.New("internal error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above; nil falls back to ErrNetwork because remote
// calls are the only operations without a more specific marker.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short, stable label for the marker carried by err. It is
// used for structured log fields and JSON error output.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNetwork):
		return "network"
	default:
		return "internal"
	}
}

// Marker returns the sentinel carried by err, or ErrInternal when err carries
// none. It lets callers re-wrap an error with added context without losing its
// classification.
func Marker(err error) error {
	for _, marker := range []error{ErrNotFound, ErrNotConfigured, ErrInvalidResponse, ErrDuplicateID, ErrValidation, ErrNetwork, ErrInternal} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return ErrInternal
}

// Hint returns a user-facing next step for the marker carried by err.
func Hint(err error) string {
	switch Kind(err) {
	case "not_found":
		return "try a different title, id, or barcode, or add the movie manually"
	case "not_configured":
		return "set the provider api key in config.toml or the environment"
	case "invalid_response":
		return "the provider returned an unexpected payload; retry later"
	case "network":
		return "check connectivity and retry"
	case "duplicate_id":
		return "the record already exists; use edit instead"
	case "validation":
		return "check the supplied values"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
