// Package prefs stores display preferences (theme, summary render mode,
// transcript preview mode) in the key-value store.
//
// Stored values are normalised on read, so an unknown or missing value
// falls back to the configured default instead of surfacing an error.
package prefs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"steno/internal/config"
	"steno/internal/kvstore"
)

// Theme values.
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// Summary render modes.
const (
	RenderText     = "text"
	RenderMarkdown = "markdown"
)

// Transcript preview modes.
const (
	PreviewText       = "text"
	PreviewTimestamps = "timestamps"
)

// Storage keys.
const (
	KeyTheme       = "ui-theme-preference"
	KeySummaryMode = "summary-render-mode-preference"
	KeyPreviewMode = "transcript-preview-mode-preference"
)

type preference struct {
	key      string
	allowed  []string
	fallback func(config.Display) string
}

// Names accepted by Get and Set.
const (
	NameTheme       = "theme"
	NameSummaryMode = "summary_render_mode"
	NamePreviewMode = "preview_mode"
)

var registry = map[string]preference{
	NameTheme: {
		key:      KeyTheme,
		allowed:  []string{ThemeSystem, ThemeLight, ThemeDark},
		fallback: func(d config.Display) string { return d.Theme },
	},
	NameSummaryMode: {
		key:      KeySummaryMode,
		allowed:  []string{RenderText, RenderMarkdown},
		fallback: func(d config.Display) string { return d.SummaryRenderMode },
	},
	NamePreviewMode: {
		key:      KeyPreviewMode,
		allowed:  []string{PreviewText, PreviewTimestamps},
		fallback: func(d config.Display) string { return d.PreviewMode },
	},
}

// Store reads and writes preferences.
type Store struct {
	kv       kvstore.Store
	defaults config.Display
}

// New builds a preference store whose fallbacks come from defaults.
func New(kv kvstore.Store, defaults config.Display) *Store {
	return &Store{kv: kv, defaults: defaults}
}

// Names lists the preference names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Allowed lists the accepted values for name.
func Allowed(name string) []string {
	return append([]string(nil), registry[name].allowed...)
}

// Get returns the normalised preference value.
func (s *Store) Get(ctx context.Context, name string) (string, error) {
	pref, ok := registry[name]
	if !ok {
		return "", fmt.Errorf("unknown preference %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	fallback := normalize(pref.fallback(s.defaults), pref.allowed, pref.allowed[0])
	raw, found, err := s.kv.Get(ctx, pref.key)
	if err != nil {
		return fallback, fmt.Errorf("read %s: %w", name, err)
	}
	if !found {
		return fallback, nil
	}
	return normalize(raw, pref.allowed, fallback), nil
}

// Set validates and stores value for name.
func (s *Store) Set(ctx context.Context, name, value string) (string, error) {
	pref, ok := registry[name]
	if !ok {
		return "", fmt.Errorf("unknown preference %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	cleaned := strings.ToLower(strings.TrimSpace(value))
	if normalize(cleaned, pref.allowed, "") == "" {
		return "", fmt.Errorf("%s: unsupported value %q (want one of %s)", name, value, strings.Join(pref.allowed, ", "))
	}
	if err := s.kv.Set(ctx, pref.key, cleaned); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return cleaned, nil
}

// Theme returns the theme preference.
func (s *Store) Theme(ctx context.Context) string { return s.must(ctx, NameTheme) }

// SummaryRenderMode returns the summary render mode preference.
func (s *Store) SummaryRenderMode(ctx context.Context) string { return s.must(ctx, NameSummaryMode) }

// PreviewMode returns the transcript preview mode preference.
func (s *Store) PreviewMode(ctx context.Context) string { return s.must(ctx, NamePreviewMode) }

func (s *Store) must(ctx context.Context, name string) string {
	value, _ := s.Get(ctx, name)
	return value
}

func normalize(value string, allowed []string, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range allowed {
		if candidate == value {
			return value
		}
	}
	return fallback
}
