package testsupport

import (
	"testing"

	"steno/internal/config"
	"steno/internal/kvstore"
)

// MustOpenStore opens the configured kvstore.Store and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) kvstore.Store {
	t.Helper()

	store, err := kvstore.Open(cfg)
	if err != nil {
		t.Fatalf("kvstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
