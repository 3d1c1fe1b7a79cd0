package testsupport

import (
	"context"
	"testing"
	"time"

	"helixprint/internal/helix"
)

// Notice is one call received by FakeNotifier. State is empty for starts.
type Notice struct {
	Info  helix.PrintInfo
	State string
}

// FakeNotifier records print notifications on a buffered channel.
type FakeNotifier struct {
	ch chan Notice
}

// NewFakeNotifier returns a notifier buffering up to 16 calls.
func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{ch: make(chan Notice, 16)}
}

func (n *FakeNotifier) PrintStarted(_ context.Context, info helix.PrintInfo) {
	n.ch <- Notice{Info: info}
}

func (n *FakeNotifier) PrintFinished(_ context.Context, info helix.PrintInfo, state string) {
	n.ch <- Notice{Info: info, State: state}
}

// Next waits for the next notification.
func (n *FakeNotifier) Next(t testing.TB) Notice {
	t.Helper()
	select {
	case notice := <-n.ch:
		return notice
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return Notice{}
	}
}

// Quiet reports whether no notification arrives within wait.
func (n *FakeNotifier) Quiet(wait time.Duration) bool {
	select {
	case <-n.ch:
		return false
	case <-time.After(wait):
		return true
	}
}
