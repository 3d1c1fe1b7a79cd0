package daemon

import (
	"context"
	"log/slog"

	"helixprint/internal/helix"
	"helixprint/internal/logging"
	"helixprint/internal/notifications"
)

// printNotifier forwards engine print events to a notification service.
type printNotifier struct {
	svc    notifications.Service
	logger *slog.Logger
}

func newPrintNotifier(svc notifications.Service, logger *slog.Logger) *printNotifier {
	return &printNotifier{svc: svc, logger: logging.NewComponentLogger(logger, "notifications")}
}

func (n *printNotifier) PrintStarted(ctx context.Context, info helix.PrintInfo) {
	n.publish(ctx, notifications.EventPrintStarted, info)
}

func (n *printNotifier) PrintFinished(ctx context.Context, info helix.PrintInfo, state string) {
	event := notifications.EventPrintCompleted
	switch state {
	case helix.StateError:
		event = notifications.EventPrintFailed
	case helix.StateCancelled:
		event = notifications.EventPrintCancelled
	}
	n.publish(ctx, event, info)
}

func (n *printNotifier) publish(ctx context.Context, event notifications.Event, info helix.PrintInfo) {
	if n == nil || n.svc == nil {
		return
	}
	err := n.svc.Publish(ctx, event, notifications.Payload{
		"filename":      info.OriginalFilename,
		"modifications": info.Modifications,
	})
	if err != nil {
		logging.WarnWithContext(n.logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String("event", string(event)),
			logging.String(logging.FieldOriginalFilename, info.OriginalFilename),
			logging.String(logging.FieldImpact, "print continues without a push notification"),
		)
	}
}
