package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrDisabled          = errors.New("helix print is disabled")
	ErrNotFound          = errors.New("not found")
	ErrInvalidPath       = errors.New("invalid path")
	ErrFilesystem        = errors.New("filesystem error")
	ErrHostCommunication = errors.New("print host communication failed")
	ErrHostUnavailable   = errors.New("print host unavailable")
	ErrValidation        = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrFilesystem
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps a classified error to the status code the API reports.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrDisabled):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidPath), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrHostCommunication), errors.Is(err, ErrHostUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a short machine-readable identifier for err's marker.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrDisabled):
		return "disabled"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidPath):
		return "invalid_path"
	case errors.Is(err, ErrValidation):
		return "bad_request"
	case errors.Is(err, ErrHostCommunication):
		return "host_communication"
	case errors.Is(err, ErrHostUnavailable):
		return "host_unavailable"
	case errors.Is(err, ErrFilesystem):
		return "filesystem"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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
