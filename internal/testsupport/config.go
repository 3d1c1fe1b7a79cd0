package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"helixprint/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The gcode root exists; the data directory is created on first use.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.GcodeRoot = filepath.Join(base, "gcodes")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	if err := os.MkdirAll(cfgVal.Paths.GcodeRoot, 0o755); err != nil {
		t.Fatalf("mkdir gcode root: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithHelix sets a [helix] option on the test config.
func WithHelix(key string, value any) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Helix[key] = value
	}
}

// WithAPIToken sets the API bearer token on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.GcodeRoot)
}
