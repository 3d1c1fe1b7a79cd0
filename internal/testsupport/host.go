package testsupport

import (
	"context"
	"errors"
	"sync"

	"helixprint/internal/services"
)

// FakeHost records commands and serves macro variables from a map.
type FakeHost struct {
	mu        sync.Mutex
	commands  []string
	variables map[string]any

	// SendErr fails every SendCommand when set.
	SendErr error
	// QueryErr fails every QueryVariable when set.
	QueryErr error
}

// NewFakeHost returns a host with no variables defined.
func NewFakeHost() *FakeHost {
	return &FakeHost{variables: make(map[string]any)}
}

func (h *FakeHost) SendCommand(_ context.Context, script string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.SendErr != nil {
		return h.SendErr
	}
	h.commands = append(h.commands, script)
	return nil
}

func (h *FakeHost) QueryVariable(_ context.Context, name string) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.QueryErr != nil {
		return nil, h.QueryErr
	}
	value, ok := h.variables[name]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "fake host", "query", name, nil)
	}
	return value, nil
}

// SetVariable defines name for QueryVariable.
func (h *FakeHost) SetVariable(name string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.variables[name] = value
}

// Commands returns every command sent so far.
func (h *FakeHost) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.commands...)
}

// ErrHostDown is a convenient failure for SendErr and QueryErr.
var ErrHostDown = errors.New("host down")
