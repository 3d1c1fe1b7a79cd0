package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"helixprint/internal/config"
	"helixprint/internal/helix"
	"helixprint/internal/history"
	"helixprint/internal/logging"
	"helixprint/internal/moonraker"
	"helixprint/internal/notifications"
)

// Daemon coordinates the engine, host connection, and API server and enforces
// single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *history.Store
	engine *helix.Engine
	host   *moonraker.Client
	bridge *hostBridge
	api    *apiServer

	lockPath string
	lock     *flock.Flock

	running  atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	hostDone chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	HostConnected bool
	APIAddress    string
	HistoryDBPath string
	LockFilePath  string
	Engine        helix.EngineStatus
}

// Option customizes daemon construction.
type Option func(*helix.Options)

// WithNotifier replaces the print notifier.
func WithNotifier(n helix.PrintNotifier) Option {
	return func(o *helix.Options) { o.Notifier = n }
}

// WithScheduler replaces the cleanup scheduler.
func WithScheduler(s helix.Scheduler) Option {
	return func(o *helix.Options) { o.Scheduler = s }
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *history.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	engineOpts := helix.Options{
		Config:   cfg.Helix,
		Roots:    cfg,
		History:  store,
		Recorder: store,
		Notifier: newPrintNotifier(notifications.NewService(cfg), logger),
		Logger:   logger,
	}
	for _, opt := range opts {
		opt(&engineOpts)
	}
	engine, err := helix.New(engineOpts)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		engine:   engine,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.host = moonraker.New(moonraker.Options{
		URL:            cfg.Moonraker.URL,
		APIKey:         cfg.Moonraker.APIKey,
		Version:        helix.Version,
		RequestTimeout: time.Duration(cfg.Moonraker.RequestTimeout) * time.Second,
		ReconnectDelay: time.Duration(cfg.Moonraker.ReconnectDelay) * time.Second,
		Handler:        d.onHostEvent,
		Logger:         logger,
	})
	d.bridge = newHostBridge(engine, d.host, store, logger)
	d.api = newAPIServer(cfg, engine, store, logger)
	return d, nil
}

// Start acquires the daemon lock, sweeps stale artifacts, and starts the API
// server and host connection.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another helixprint daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.sweep()

	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	d.hostDone = make(chan struct{})
	go func(ctx context.Context, done chan struct{}) {
		defer close(done)
		_ = d.host.Run(ctx)
	}(d.ctx, d.hostDone)

	d.running.Store(true)
	d.logger.Info("helixprint daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.addr()),
		logging.String("moonraker", d.cfg.Moonraker.URL),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock. Active
// prints are forgotten; their leftovers are swept on the next start.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.hostDone != nil {
		<-d.hostDone
		d.hostDone = nil
	}
	d.api.stop()
	d.engine.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("helixprint daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Engine returns the print engine.
func (d *Daemon) Engine() *helix.Engine {
	return d.engine
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.cfg.LogPath()
}

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) Status {
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		HostConnected: d.host.Connected(),
		APIAddress:    d.api.addr(),
		HistoryDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
		Engine:        d.engine.Status(),
	}
}

func (d *Daemon) onHostEvent(ev moonraker.Event) {
	ctx := d.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	d.bridge.handle(ctx, ev)
}

// sweep removes links and temp files left behind by a previous run.
func (d *Daemon) sweep() {
	settings := d.engine.Settings()
	if !settings.Enabled {
		return
	}
	result, err := d.engine.Publisher().Sweep(settings.TempDir, time.Now(), settings.CleanupDelay)
	if err != nil {
		logging.WarnWithContext(d.logger, "startup sweep failed", "sweep_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale print links or temp files may remain"),
		)
		return
	}
	if len(result.Links) > 0 || len(result.Temps) > 0 {
		d.logger.Info("removed stale print artifacts",
			logging.String(logging.FieldEventType, "sweep_complete"),
			logging.Int("links", len(result.Links)),
			logging.Int("temp_files", len(result.Temps)),
		)
	}
}
