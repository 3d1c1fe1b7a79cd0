package helix

import (
	"context"
	"fmt"
	"strings"

	"helixprint/internal/logging"
	"helixprint/internal/phase"
	"helixprint/internal/services"
)

// TrackingVariable is the macro variable holding the tracking switch.
var TrackingVariable = phase.StateMacro + ".tracking"

// PhaseTrackingStatus reports whether the printer records phases.
type PhaseTrackingStatus struct {
	Enabled bool `json:"enabled"`
}

func trackingCommand(enabled bool) string {
	value := 0
	if enabled {
		value = 1
	}
	return fmt.Sprintf("SET_GCODE_VARIABLE MACRO=%s VARIABLE=tracking VALUE=%d", phase.StateMacro, value)
}

// EnablePhaseTracking turns phase tracking on.
func (e *Engine) EnablePhaseTracking(ctx context.Context) (PhaseTrackingStatus, error) {
	return e.setPhaseTracking(ctx, true)
}

// DisablePhaseTracking turns phase tracking off.
func (e *Engine) DisablePhaseTracking(ctx context.Context) (PhaseTrackingStatus, error) {
	return e.setPhaseTracking(ctx, false)
}

func (e *Engine) setPhaseTracking(ctx context.Context, enabled bool) (PhaseTrackingStatus, error) {
	host := e.currentHost()
	if host == nil {
		return PhaseTrackingStatus{}, services.Wrap(ErrHostUnavailable, "phase tracking", "", "no print host connection", nil)
	}
	if err := host.SendCommand(ctx, trackingCommand(enabled)); err != nil {
		return PhaseTrackingStatus{}, services.Wrap(ErrHostCommunication, "phase tracking", "set", "", err)
	}
	logging.WithContext(ctx, e.logger).Info("phase tracking changed",
		logging.String(logging.FieldEventType, "phase_tracking_changed"),
		logging.Bool("enabled", enabled),
	)
	return PhaseTrackingStatus{Enabled: enabled}, nil
}

// PhaseTrackingStatus reads the tracking switch from the printer. Any failure
// reports disabled.
func (e *Engine) PhaseTrackingStatus(ctx context.Context) PhaseTrackingStatus {
	host := e.currentHost()
	if host == nil {
		return PhaseTrackingStatus{}
	}
	value, err := host.QueryVariable(ctx, TrackingVariable)
	if err != nil {
		e.logger.Debug("phase tracking status unavailable", logging.Error(err))
		return PhaseTrackingStatus{}
	}
	return PhaseTrackingStatus{Enabled: truthy(value)}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		switch strings.ToLower(strings.Trim(strings.TrimSpace(v), `"'`)) {
		case "1", "true", "yes", "on":
			return true
		}
	}
	return false
}
