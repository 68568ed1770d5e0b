package speakers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"steno/internal/kvstore"
	"steno/internal/logging"
)

// StorageKey is the key-value entry holding every job's committed overrides.
const StorageKey = "speaker-name-overrides-v1"

// Overrides maps raw speaker labels to display names.
type Overrides map[string]string

// Store holds committed and draft overrides for every job.
type Store struct {
	mu        sync.Mutex
	kv        kvstore.Store
	logger    *slog.Logger
	committed map[string]Overrides
	drafts    map[string]Overrides
}

// NewStore loads committed overrides from kv. A missing or unreadable blob
// yields an empty set.
func NewStore(ctx context.Context, kv kvstore.Store, logger *slog.Logger) *Store {
	s := &Store{
		kv:     kv,
		logger: logging.NewComponentLogger(logger, "speakers"),
		drafts: make(map[string]Overrides),
	}
	s.committed = s.load(ctx)
	return s
}

// Reload re-reads committed overrides from kv, keeping drafts.
func (s *Store) Reload(ctx context.Context) {
	committed := s.load(ctx)
	s.mu.Lock()
	s.committed = committed
	s.mu.Unlock()
}

func (s *Store) load(ctx context.Context) map[string]Overrides {
	out := make(map[string]Overrides)
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("speaker overrides unreadable; starting empty", logging.Args(logging.Error(err))...)
		return out
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return out
	}

	var byJob map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &byJob); err != nil {
		s.logger.Warn("speaker overrides corrupt; starting empty", logging.Args(logging.Error(err))...)
		return out
	}
	for jobID, entry := range byJob {
		var labels map[string]any
		if err := json.Unmarshal(entry, &labels); err != nil {
			s.logger.Warn("dropping malformed speaker overrides", logging.Args(logging.JobID(jobID), logging.Error(err))...)
			continue
		}
		clean := make(Overrides, len(labels))
		for label, value := range labels {
			name, isString := value.(string)
			label = strings.TrimSpace(label)
			name = strings.TrimSpace(name)
			if !isString || label == "" || name == "" {
				continue
			}
			clean[label] = name
		}
		if len(clean) > 0 {
			out[jobID] = clean
		}
	}
	return out
}

// DisplayName returns the committed name for rawLabel, or the trimmed label
// itself when no override exists. A blank label yields "".
func (s *Store) DisplayName(jobID, rawLabel string) string {
	label := strings.TrimSpace(rawLabel)
	if label == "" {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if name := strings.TrimSpace(s.committed[jobID][label]); name != "" {
		return name
	}
	return label
}

// Committed returns a copy of the job's committed overrides.
func (s *Store) Committed(jobID string) Overrides {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.committed[jobID])
}

// BeginEditing seeds the job's draft from its committed overrides unless a
// draft already exists.
func (s *Store) BeginEditing(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[jobID]; ok {
		return
	}
	draft := maps.Clone(s.committed[jobID])
	if draft == nil {
		draft = make(Overrides)
	}
	s.drafts[jobID] = draft
}

// SetDraftValue stores value verbatim as the draft name for rawLabel.
func (s *Store) SetDraftValue(jobID, rawLabel, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[jobID]
	if !ok {
		draft = make(Overrides)
		s.drafts[jobID] = draft
	}
	draft[rawLabel] = value
}

// Draft returns a copy of the job's draft and whether one exists.
func (s *Store) Draft(jobID string) (Overrides, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[jobID]
	return maps.Clone(draft), ok
}

// EditorValue is the value an editor field shows for rawLabel: the draft
// value if one is set, else the committed name, else "".
func (s *Store) EditorValue(jobID, rawLabel string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value, ok := s.drafts[jobID][rawLabel]; ok {
		return value
	}
	return s.committed[jobID][rawLabel]
}

// Apply commits the draft values of labels. Non-blank drafts become the
// trimmed committed name; blank or missing drafts remove the override.
// Labels not listed keep their committed value. On success the draft is
// replaced with a copy of the new committed overrides.
func (s *Store) Apply(ctx context.Context, jobID string, labels []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.committed[jobID])
	if next == nil {
		next = make(Overrides)
	}
	draft := s.drafts[jobID]
	for _, label := range labels {
		if name := strings.TrimSpace(draft[label]); name != "" {
			next[label] = name
		} else {
			delete(next, label)
		}
	}

	committed := maps.Clone(s.committed)
	if committed == nil {
		committed = make(map[string]Overrides)
	}
	if len(next) == 0 {
		delete(committed, jobID)
	} else {
		committed[jobID] = next
	}
	if err := s.persist(ctx, committed); err != nil {
		return err
	}

	s.committed = committed
	fresh := maps.Clone(next)
	if fresh == nil {
		fresh = make(Overrides)
	}
	s.drafts[jobID] = fresh
	s.logger.Info("speaker names applied", logging.Args(logging.JobID(jobID), logging.Int("overrides", len(next)))...)
	return nil
}

// Clear removes the job's draft and committed overrides.
func (s *Store) Clear(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	committed := maps.Clone(s.committed)
	delete(committed, jobID)
	if err := s.persist(ctx, committed); err != nil {
		return err
	}
	s.committed = committed
	delete(s.drafts, jobID)
	s.logger.Info("speaker names cleared", logging.Args(logging.JobID(jobID))...)
	return nil
}

// DiscardDraft drops unsaved edits for the job.
func (s *Store) DiscardDraft(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, jobID)
}

func (s *Store) persist(ctx context.Context, committed map[string]Overrides) error {
	if committed == nil {
		committed = map[string]Overrides{}
	}
	data, err := json.Marshal(committed)
	if err != nil {
		return fmt.Errorf("encode speaker overrides: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(data)); err != nil {
		return fmt.Errorf("persist speaker overrides: %w", err)
	}
	return nil
}
