package helix

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"helixprint/internal/logging"
	"helixprint/internal/services"
)

// Job states delivered by the host.
const (
	StatePrinting  = "printing"
	StateComplete  = "complete"
	StateError     = "error"
	StateCancelled = "cancelled"
)

// JobEvent is a job-state change reported by the host.
type JobEvent struct {
	State    string
	Filename string
	JobID    string
}

// NormalizeState maps host spellings onto the engine's state names.
func NormalizeState(state string) string {
	switch s := strings.ToLower(strings.TrimSpace(state)); s {
	case "completed":
		return StateComplete
	case "canceled":
		return StateCancelled
	default:
		return s
	}
}

// IsTerminal reports whether state ends a print.
func IsTerminal(state string) bool {
	switch NormalizeState(state) {
	case StateComplete, StateError, StateCancelled:
		return true
	default:
		return false
	}
}

func eventKey(filename string) string {
	cleaned := path.Clean(strings.TrimSpace(filename))
	cleaned = strings.TrimPrefix(cleaned, "/")
	return strings.TrimPrefix(cleaned, "gcodes/")
}

// OnJobStateChanged reacts to a host job-state change for a tracked print.
// Terminal states schedule one cleanup per registration after the configured
// delay.
func (e *Engine) OnJobStateChanged(ctx context.Context, ev JobEvent) {
	key := eventKey(ev.Filename)
	info, ok := e.registry.Get(key)
	if !ok {
		return
	}
	state := NormalizeState(ev.State)
	logger := e.logger.With(
		logging.String(logging.FieldPrintFilename, key),
		logging.String("state", state),
	)

	if ev.JobID != "" && info.JobID != ev.JobID {
		if updated, ok := e.registry.Update(key, info.Token, func(p *PrintInfo) { p.JobID = ev.JobID }); ok {
			info = updated
		}
	}

	if !IsTerminal(state) {
		if state == StatePrinting {
			e.recordPrint(ctx, logger, info)
		}
		return
	}

	scheduled := false
	info, ok = e.registry.Update(key, info.Token, func(p *PrintInfo) {
		if !p.CleanupScheduled {
			p.CleanupScheduled = true
			scheduled = true
		}
	})
	if !ok || !scheduled {
		return
	}

	if e.recorder != nil && info.DBID != 0 {
		if err := e.recorder.FinishPrint(ctx, info.DBID, state, e.now()); err != nil {
			logging.WarnWithContext(logger, "failed to record print result", "print_record_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "print history shows the job as running"),
			)
		}
	}

	e.notifyFinished(ctx, info, state)

	token := info.Token
	e.mu.Lock()
	e.timers[token] = e.scheduler.AfterFunc(e.settings.CleanupDelay, func() {
		e.cleanupEntry(context.Background(), key, token)
	})
	e.mu.Unlock()

	logger.Info("cleanup scheduled",
		logging.String(logging.FieldEventType, "cleanup_scheduled"),
		logging.Duration("delay", e.settings.CleanupDelay),
	)
}

func (e *Engine) recordPrint(ctx context.Context, logger *slog.Logger, info PrintInfo) {
	if e.recorder == nil || info.DBID != 0 {
		return
	}
	id, err := e.recorder.RecordPrint(ctx, info)
	if err != nil {
		logger.Warn("failed to persist print record",
			logging.String(logging.FieldEventType, "print_record_failed"),
			logging.Error(err),
		)
		return
	}
	e.registry.Update(info.SymlinkFilename, info.Token, func(p *PrintInfo) { p.DBID = id })
}

func (e *Engine) notifyStarted(ctx context.Context, info PrintInfo) {
	if e.notifier == nil {
		return
	}
	go e.notifier.PrintStarted(context.WithoutCancel(ctx), info.Clone())
}

func (e *Engine) notifyFinished(ctx context.Context, info PrintInfo, state string) {
	if e.notifier == nil {
		return
	}
	go e.notifier.PrintFinished(context.WithoutCancel(ctx), info.Clone(), state)
}

// OnHostReady replaces the print host reference after a (re)connect.
func (e *Engine) OnHostReady(host PrintHost) {
	e.mu.Lock()
	e.host = host
	e.mu.Unlock()
	e.logger.Info("print host ready", logging.String(logging.FieldEventType, "host_ready"))
}

// OnHostLost drops the print host reference.
func (e *Engine) OnHostLost() {
	e.mu.Lock()
	e.host = nil
	e.mu.Unlock()
	e.logger.Info("print host lost", logging.String(logging.FieldEventType, "host_lost"))
}

// Cleanup immediately cleans up the print published as key, or every active
// print when key is empty. It returns the cleaned symlink names.
func (e *Engine) Cleanup(ctx context.Context, key string) ([]string, error) {
	var targets []PrintInfo
	if key = strings.TrimSpace(key); key == "" {
		targets = e.registry.Snapshot()
	} else {
		info, ok := e.registry.Get(eventKey(key))
		if !ok {
			return nil, services.Wrap(ErrNotFound, "", "", "active print "+key, nil)
		}
		targets = []PrintInfo{info}
	}
	cleaned := make([]string, 0, len(targets))
	for _, info := range targets {
		e.cancelTimer(info.Token)
		if e.cleanupEntry(ctx, info.SymlinkFilename, info.Token) {
			cleaned = append(cleaned, info.SymlinkFilename)
		}
	}
	return cleaned, nil
}

// Close stops every pending cleanup timer.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for token, timer := range e.timers {
		timer.Stop()
		delete(e.timers, token)
	}
}

func (e *Engine) cancelTimer(token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if timer, ok := e.timers[token]; ok {
		timer.Stop()
		delete(e.timers, token)
	}
}

// cleanupEntry removes the link, temp file, and registry entry for key when
// the entry still carries token, then rewrites the host job history.
func (e *Engine) cleanupEntry(ctx context.Context, key, token string) bool {
	e.mu.Lock()
	delete(e.timers, token)
	e.mu.Unlock()

	info, ok := e.registry.Get(key)
	logger := e.logger.With(logging.String(logging.FieldPrintFilename, key))
	if !ok || info.Token != token {
		logger.Debug("cleanup skipped for replaced print")
		return false
	}

	tempAbs, err := e.resolver.Join(info.TempFilename)
	if err == nil {
		if _, err := e.publisher.Unpublish(key, tempAbs); err != nil {
			logging.WarnWithContext(logger, "failed to remove print symlink", "cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "stale symlink stays until the next startup sweep"),
			)
		}
		if err := os.Remove(tempAbs); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logger, "failed to remove temp file", "cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "temp file stays until the next startup sweep"),
			)
		}
	}
	if !e.registry.RemoveIf(key, token) {
		return false
	}

	if e.history != nil && info.JobID != "" {
		e.reconcileHistory(ctx, logger, info)
	}
	logger.Info("modified print cleaned up",
		logging.String(logging.FieldEventType, "cleanup_complete"),
		logging.String(logging.FieldOriginalFilename, info.OriginalFilename),
	)
	return true
}

func (e *Engine) reconcileHistory(ctx context.Context, logger *slog.Logger, info PrintInfo) {
	if _, err := e.history.GetJob(ctx, info.JobID); err != nil {
		logger.Warn("job history entry unavailable",
			logging.String(logging.FieldEventType, "history_update_skipped"),
			logging.String(logging.FieldJobID, info.JobID),
			logging.Error(err),
		)
		return
	}
	update := JobUpdate{Filename: info.OriginalFilename, Modifications: info.Modifications}
	if err := e.history.ModifyJob(ctx, info.JobID, update); err != nil {
		logger.Warn("failed to rewrite job history",
			logging.String(logging.FieldEventType, "history_update_failed"),
			logging.String(logging.FieldJobID, info.JobID),
			logging.Error(err),
		)
	}
}
