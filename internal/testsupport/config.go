package testsupport

import (
	"path/filepath"
	"testing"

	"steno/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Storage defaults to the in-memory backend and polling to 20ms.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Storage.StateDir = filepath.Join(base, "state")
	cfgVal.Storage.Backend = config.StorageMemory
	cfgVal.Sync.PollIntervalMillis = 20
	cfgVal.Server.RequestTimeoutSeconds = 5

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

// WithServerURL points the config at a backend, usually Backend.URL().
func WithServerURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.BaseURL = url
	}
}

// WithStorageBackend selects the key-value backend.
func WithStorageBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Backend = backend
	}
}

// WithLogDir enables file logging under the test's temp directory.
func WithLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.LogDir = filepath.Join(b.baseDir, "logs")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Storage.StateDir)
}
