package helix

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"helixprint/internal/gcodefs"
	"helixprint/internal/logging"
)

// Options wires an Engine to its collaborators. Host, History, Recorder, and
// Notifier may be nil; the host can be supplied later through OnHostReady.
type Options struct {
	Config    ConfigSource
	Roots     FileRoots
	Host      PrintHost
	History   JobHistory
	Recorder  PrintRecorder
	Notifier  PrintNotifier
	Scheduler Scheduler
	Logger    *slog.Logger
	Now       func() time.Time
}

// Engine dispatches modified prints, controls phase tracking, and cleans up
// after prints finish.
type Engine struct {
	settings  Settings
	resolver  *gcodefs.Resolver
	publisher *gcodefs.Publisher
	registry  *Registry
	history   JobHistory
	recorder  PrintRecorder
	notifier  PrintNotifier
	scheduler Scheduler
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	host   PrintHost
	timers map[string]Timer
}

// New builds an engine from opts.
func New(opts Options) (*Engine, error) {
	settings, err := LoadSettings(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.Roots == nil {
		return nil, fmt.Errorf("helix: file roots are required")
	}
	root, err := opts.Roots.RootDir("gcodes")
	if err != nil {
		return nil, fmt.Errorf("helix: resolve gcodes root: %w", err)
	}
	resolver, err := gcodefs.NewResolver(root)
	if err != nil {
		return nil, err
	}
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = realScheduler{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		settings:  settings,
		resolver:  resolver,
		publisher: gcodefs.NewPublisher(resolver, settings.SymlinkDir),
		registry:  NewRegistry(),
		history:   opts.History,
		recorder:  opts.Recorder,
		notifier:  opts.Notifier,
		scheduler: scheduler,
		logger:    logging.NewComponentLogger(opts.Logger, "helix"),
		now:       now,
		host:      opts.Host,
		timers:    make(map[string]Timer),
	}, nil
}

// Settings returns the options the engine was built with.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Registry exposes the active print registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Resolver exposes the gcode root resolver.
func (e *Engine) Resolver() *gcodefs.Resolver {
	return e.resolver
}

// Publisher exposes the symlink publisher.
func (e *Engine) Publisher() *gcodefs.Publisher {
	return e.publisher
}

func (e *Engine) currentHost() PrintHost {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.host
}

// EngineStatus summarizes configuration and load.
type EngineStatus struct {
	Enabled      bool   `json:"enabled"`
	TempDir      string `json:"temp_dir"`
	SymlinkDir   string `json:"symlink_dir"`
	CleanupDelay int    `json:"cleanup_delay"`
	Version      string `json:"version"`
	ActivePrints int    `json:"active_prints"`
}

// Status reports the engine configuration and active print count.
func (e *Engine) Status() EngineStatus {
	return EngineStatus{
		Enabled:      e.settings.Enabled,
		TempDir:      e.settings.TempDir,
		SymlinkDir:   e.settings.SymlinkDir,
		CleanupDelay: int(e.settings.CleanupDelay / time.Second),
		Version:      Version,
		ActivePrints: e.registry.Len(),
	}
}
