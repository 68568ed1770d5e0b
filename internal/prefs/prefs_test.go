package prefs_test

import (
	"context"
	"testing"

	"steno/internal/config"
	"steno/internal/kvstore"
	"steno/internal/prefs"
)

func TestDefaultsComeFromConfig(t *testing.T) {
	ctx := context.Background()
	display := config.Default().Display
	display.Theme = "dark"
	store := prefs.New(kvstore.NewMemory(), display)

	if got := store.Theme(ctx); got != prefs.ThemeDark {
		t.Fatalf("Theme = %q", got)
	}
	if got := store.SummaryRenderMode(ctx); got != prefs.RenderText {
		t.Fatalf("SummaryRenderMode = %q", got)
	}
	if got := store.PreviewMode(ctx); got != prefs.PreviewText {
		t.Fatalf("PreviewMode = %q", got)
	}
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	store := prefs.New(kv, config.Default().Display)

	saved, err := store.Set(ctx, prefs.NameSummaryMode, " Markdown ")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if saved != prefs.RenderMarkdown {
		t.Fatalf("Set returned %q", saved)
	}
	raw, _, _ := kv.Get(ctx, prefs.KeySummaryMode)
	if raw != "markdown" {
		t.Fatalf("stored value = %q", raw)
	}
	if got := store.SummaryRenderMode(ctx); got != prefs.RenderMarkdown {
		t.Fatalf("SummaryRenderMode = %q", got)
	}
}

func TestSetRejectsUnknownValues(t *testing.T) {
	ctx := context.Background()
	store := prefs.New(kvstore.NewMemory(), config.Default().Display)
	if _, err := store.Set(ctx, prefs.NameTheme, "sepia"); err == nil {
		t.Fatal("expected error for unknown theme")
	}
	if _, err := store.Set(ctx, "font", "mono"); err == nil {
		t.Fatal("expected error for unknown preference")
	}
}

func TestGarbageStoredValueFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	_ = kv.Set(ctx, prefs.KeySummaryMode, "html")
	_ = kv.Set(ctx, prefs.KeyTheme, "LIGHT")
	store := prefs.New(kv, config.Default().Display)
	if got := store.SummaryRenderMode(ctx); got != prefs.RenderText {
		t.Fatalf("SummaryRenderMode = %q, want text", got)
	}
	if got := store.Theme(ctx); got != prefs.ThemeLight {
		t.Fatalf("Theme = %q, want light", got)
	}
}
