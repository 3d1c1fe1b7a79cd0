package daemon

import (
	"context"
	"errors"
	"testing"

	"helixprint/internal/helix"
	"helixprint/internal/logging"
	"helixprint/internal/notifications"
)

type recordingService struct {
	events   []notifications.Event
	payloads []notifications.Payload
	err      error
}

func (r *recordingService) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return r.err
}

func TestPrintNotifierMapsStates(t *testing.T) {
	svc := &recordingService{}
	n := newPrintNotifier(svc, logging.NewNop())
	info := helix.PrintInfo{OriginalFilename: "benchy.gcode", Modifications: []string{"purge_disabled"}}
	ctx := context.Background()

	n.PrintStarted(ctx, info)
	n.PrintFinished(ctx, info, helix.StateComplete)
	n.PrintFinished(ctx, info, helix.StateError)
	n.PrintFinished(ctx, info, helix.StateCancelled)

	want := []notifications.Event{
		notifications.EventPrintStarted,
		notifications.EventPrintCompleted,
		notifications.EventPrintFailed,
		notifications.EventPrintCancelled,
	}
	if len(svc.events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), svc.events)
	}
	for i := range want {
		if svc.events[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, svc.events[i], want[i])
		}
	}
	if svc.payloads[0]["filename"] != "benchy.gcode" {
		t.Fatalf("unexpected payload %v", svc.payloads[0])
	}
}

func TestPrintNotifierSwallowsErrors(t *testing.T) {
	svc := &recordingService{err: errors.New("ntfy down")}
	n := newPrintNotifier(svc, logging.NewNop())
	n.PrintStarted(context.Background(), helix.PrintInfo{OriginalFilename: "cube.gcode"})
	if len(svc.events) != 1 {
		t.Fatalf("expected publish attempt, got %v", svc.events)
	}
}
