package daemon

import (
	"context"
	"log/slog"
	"sync"

	"helixprint/internal/helix"
	"helixprint/internal/logging"
	"helixprint/internal/moonraker"
)

// hostSession is what the bridge needs from a Moonraker connection.
type hostSession interface {
	helix.PrintHost
	Identify(ctx context.Context) error
	ServerInfo(ctx context.Context) (moonraker.ServerInfo, error)
	SubscribePrintStats(ctx context.Context) (moonraker.PrintStats, error)
}

// jobRecorder stores jobs reported by the host.
type jobRecorder interface {
	UpsertJob(ctx context.Context, job helix.JobRecord) error
}

// hostBridge turns Moonraker events into engine and history calls. Events
// arrive on one goroutine, in order.
type hostBridge struct {
	engine  *helix.Engine
	session hostSession
	jobs    jobRecorder
	logger  *slog.Logger

	mu    sync.Mutex
	stats moonraker.PrintStats
}

func newHostBridge(engine *helix.Engine, session hostSession, jobs jobRecorder, logger *slog.Logger) *hostBridge {
	return &hostBridge{
		engine:  engine,
		session: session,
		jobs:    jobs,
		logger:  logging.NewComponentLogger(logger, "host-bridge"),
	}
}

func (b *hostBridge) handle(ctx context.Context, ev moonraker.Event) {
	switch ev.Kind {
	case moonraker.EventConnected:
		b.onConnected(ctx)
	case moonraker.EventDisconnected:
		b.resetStats()
		b.engine.OnHostLost()
	case moonraker.EventNotification:
		b.onNotification(ctx, ev)
	}
}

func (b *hostBridge) onConnected(ctx context.Context) {
	if err := b.session.Identify(ctx); err != nil {
		b.logger.Debug("client identify failed", logging.Error(err))
	}
	info, err := b.session.ServerInfo(ctx)
	if err != nil {
		logging.WarnWithContext(b.logger, "server info request failed", "host_query_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "waiting for klippy ready notification"),
		)
		return
	}
	if info.KlippyState == "ready" {
		b.onKlippyReady(ctx)
		return
	}
	b.logger.Info("klippy not ready", logging.String("klippy_state", info.KlippyState))
}

func (b *hostBridge) onKlippyReady(ctx context.Context) {
	stats, err := b.session.SubscribePrintStats(ctx)
	if err != nil {
		logging.WarnWithContext(b.logger, "print_stats subscription failed", "host_subscribe_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "job state changes arrive only through history notifications"),
		)
	}
	b.mu.Lock()
	b.stats = stats
	b.mu.Unlock()
	b.engine.OnHostReady(b.session)
}

func (b *hostBridge) onNotification(ctx context.Context, ev moonraker.Event) {
	switch ev.Method {
	case moonraker.NotifyKlippyReady:
		b.onKlippyReady(ctx)
	case moonraker.NotifyKlippyShutdown, moonraker.NotifyKlippyDisconnected:
		b.resetStats()
		b.engine.OnHostLost()
	case moonraker.NotifyStatusUpdate:
		b.onStatusUpdate(ctx, ev)
	case moonraker.NotifyHistoryChanged:
		b.onHistoryChanged(ctx, ev)
	}
}

func (b *hostBridge) onStatusUpdate(ctx context.Context, ev moonraker.Event) {
	update, fields, ok, err := moonraker.DecodePrintStats(ev.Params)
	if err != nil {
		b.logger.Debug("ignoring malformed status update", logging.Error(err))
		return
	}
	if !ok {
		return
	}

	b.mu.Lock()
	if fields["filename"] {
		b.stats.Filename = update.Filename
	}
	changed := fields["state"] && update.State != b.stats.State
	if fields["state"] {
		b.stats.State = update.State
	}
	current := b.stats
	b.mu.Unlock()

	if !changed || current.Filename == "" {
		return
	}
	b.engine.OnJobStateChanged(ctx, helix.JobEvent{State: current.State, Filename: current.Filename})
}

func (b *hostBridge) onHistoryChanged(ctx context.Context, ev moonraker.Event) {
	change, err := moonraker.DecodeHistoryChange(ev.Params)
	if err != nil {
		b.logger.Debug("ignoring malformed history notification", logging.Error(err))
		return
	}
	job := change.Job
	if b.jobs != nil && job.JobID != "" {
		record := helix.JobRecord{
			JobID:     job.JobID,
			Filename:  job.Filename,
			Status:    job.Status,
			StartTime: job.Start(),
			EndTime:   job.End(),
		}
		if err := b.jobs.UpsertJob(ctx, record); err != nil {
			logging.WarnWithContext(b.logger, "failed to store job", "history_store_failed",
				logging.Error(err),
				logging.String(logging.FieldJobID, job.JobID),
				logging.String(logging.FieldImpact, "job history rewrite will be skipped for this job"),
			)
		}
	}

	state := job.Status
	if change.Action == "added" {
		state = helix.StatePrinting
	}
	b.engine.OnJobStateChanged(ctx, helix.JobEvent{State: state, Filename: job.Filename, JobID: job.JobID})
}

func (b *hostBridge) resetStats() {
	b.mu.Lock()
	b.stats = moonraker.PrintStats{}
	b.mu.Unlock()
}
