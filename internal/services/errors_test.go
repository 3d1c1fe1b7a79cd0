package services_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"helixprint/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrFilesystem, "symlink", "publish", "create link", base)
	if !errors.Is(err, services.ErrFilesystem) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"symlink", "publish", "create link", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrNotFound, "", "", "a.gcode", nil)
	if err.Error() != "not found: a.gcode" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.Wrap(services.ErrDisabled, "dispatcher", "", "", nil), http.StatusForbidden},
		{services.Wrap(services.ErrNotFound, "resolver", "", "x", nil), http.StatusNotFound},
		{services.Wrap(services.ErrInvalidPath, "resolver", "", "../x", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrValidation, "api", "", "missing field", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrHostCommunication, "moonraker", "", "", errors.New("eof")), http.StatusBadGateway},
		{services.Wrap(services.ErrHostUnavailable, "dispatcher", "", "", nil), http.StatusBadGateway},
		{errors.New("unclassified"), http.StatusInternalServerError},
		{nil, http.StatusOK},
	}
	for _, tc := range cases {
		if got := services.HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
	if code := services.Code(services.ErrDisabled); code != "disabled" {
		t.Fatalf("unexpected code %q", code)
	}
}
