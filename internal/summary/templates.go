package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"steno/internal/kvstore"
	"steno/internal/logging"
)

// StorageKey is the key-value entry holding custom and reworded templates.
const StorageKey = "summary-prompt-templates-v1"

// DefaultStyle is used whenever a requested style is unknown.
const DefaultStyle = "short"

var builtins = []Template{
	{Style: "short", Prompt: "Give a concise 3-5 sentence summary."},
	{Style: "detailed", Prompt: "Provide a detailed structured summary with key context and decisions."},
	{Style: "bullet", Prompt: "Provide a bullet-point summary of key points."},
	{Style: "action_items", Prompt: "Extract clear action items with owners if mentioned and deadlines if present."},
}

// Template pairs a style key with the prompt sent to the summarizer.
type Template struct {
	Style  string `json:"style"`
	Prompt string `json:"prompt"`
}

// ValidationError reports rejected user input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Templates is the ordered set of summary styles.
type Templates struct {
	mu      sync.Mutex
	kv      kvstore.Store
	logger  *slog.Logger
	entries []Template
}

// NewTemplates loads templates from kv on top of the built-ins. Unreadable
// stored data is ignored.
func NewTemplates(ctx context.Context, kv kvstore.Store, logger *slog.Logger) *Templates {
	t := &Templates{
		kv:      kv,
		logger:  logging.NewComponentLogger(logger, "summary"),
		entries: slices.Clone(builtins),
	}
	raw, ok, err := kv.Get(ctx, StorageKey)
	if err != nil {
		t.logger.Warn("summary templates unreadable; using built-ins", logging.Args(logging.Error(err))...)
		return t
	}
	if !ok {
		return t
	}
	var stored []Template
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.logger.Warn("summary templates corrupt; using built-ins", logging.Args(logging.Error(err))...)
		return t
	}
	for _, entry := range stored {
		style := NormalizeStyleKey(entry.Style)
		prompt := strings.TrimSpace(entry.Prompt)
		if style == "" || prompt == "" {
			continue
		}
		t.upsert(style, prompt)
	}
	return t
}

// Styles lists style keys, built-ins first.
func (t *Templates) Styles() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.entries))
	for i, entry := range t.entries {
		out[i] = entry.Style
	}
	return out
}

// All returns a copy of every template.
func (t *Templates) All() []Template {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.entries)
}

// Has reports whether style names a known template.
func (t *Templates) Has(style string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.index(NormalizeStyleKey(style)) >= 0
}

// Resolve normalises style, falling back to DefaultStyle when unknown.
func (t *Templates) Resolve(style string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if key := NormalizeStyleKey(style); key != "" && t.index(key) >= 0 {
		return key
	}
	return DefaultStyle
}

// Prompt returns the prompt for style, falling back to DefaultStyle.
func (t *Templates) Prompt(style string) string {
	key := t.Resolve(style)
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx := t.index(key); idx >= 0 {
		return t.entries[idx].Prompt
	}
	return builtins[0].Prompt
}

// Add registers a new style and returns its normalised key.
func (t *Templates) Add(ctx context.Context, rawKey, rawPrompt string) (string, error) {
	style := NormalizeStyleKey(rawKey)
	prompt := strings.TrimSpace(rawPrompt)
	if style == "" {
		return "", invalid("Provide a valid summary option key (letters, numbers, underscore).")
	}
	if prompt == "" {
		return "", invalid("Provide a template prompt for the new summary option.")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.index(style) >= 0 {
		return "", invalid("Summary option '%s' already exists.", style)
	}
	next := append(slices.Clone(t.entries), Template{Style: style, Prompt: prompt})
	if err := t.commit(ctx, next); err != nil {
		return "", err
	}
	return style, nil
}

// SetPrompt rewords an existing style, including built-ins.
func (t *Templates) SetPrompt(ctx context.Context, rawKey, rawPrompt string) error {
	style := NormalizeStyleKey(rawKey)
	prompt := strings.TrimSpace(rawPrompt)
	if prompt == "" {
		return invalid("Provide a template prompt for the summary option.")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.index(style)
	if idx < 0 {
		return invalid("Summary option '%s' does not exist.", style)
	}
	next := slices.Clone(t.entries)
	next[idx].Prompt = prompt
	return t.commit(ctx, next)
}

// Delete removes a custom style. Built-in styles cannot be deleted.
func (t *Templates) Delete(ctx context.Context, rawKey string) error {
	style := NormalizeStyleKey(rawKey)
	if IsBuiltin(style) {
		return invalid("Built-in summary options cannot be deleted.")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.index(style)
	if idx < 0 {
		return invalid("Summary option '%s' does not exist.", style)
	}
	next := slices.Delete(slices.Clone(t.entries), idx, idx+1)
	return t.commit(ctx, next)
}

func (t *Templates) commit(ctx context.Context, next []Template) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode summary templates: %w", err)
	}
	if err := t.kv.Set(ctx, StorageKey, string(data)); err != nil {
		return fmt.Errorf("persist summary templates: %w", err)
	}
	t.entries = next
	return nil
}

func (t *Templates) index(style string) int {
	return slices.IndexFunc(t.entries, func(entry Template) bool { return entry.Style == style })
}

func (t *Templates) upsert(style, prompt string) {
	if idx := t.index(style); idx >= 0 {
		t.entries[idx].Prompt = prompt
		return
	}
	t.entries = append(t.entries, Template{Style: style, Prompt: prompt})
}

// IsBuiltin reports whether style is one of the non-deletable defaults.
func IsBuiltin(style string) bool {
	return slices.ContainsFunc(builtins, func(entry Template) bool { return entry.Style == style })
}

// NormalizeStyleKey lower-cases value, turns whitespace and hyphen runs into
// underscores, drops anything outside [a-z0-9_], and collapses and trims
// underscores.
func NormalizeStyleKey(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))

	var b strings.Builder
	pendingSep := false
	for _, r := range value {
		switch {
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingSep = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Label renders a style key for display: "action_items" becomes
// "Action Items".
func Label(style string) string {
	caser := cases.Title(language.Und)
	parts := strings.FieldsFunc(style, func(r rune) bool { return r == '_' })
	for i, part := range parts {
		parts[i] = caser.String(part)
	}
	return strings.Join(parts, " ")
}
