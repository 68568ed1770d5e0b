package speakers_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"steno/internal/kvstore"
	"steno/internal/logging"
	"steno/internal/speakers"
)

type failingKV struct {
	*kvstore.Memory
	setErr error
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Memory.Set(ctx, key, value)
}

func storedBlob(t *testing.T, kv kvstore.Store) map[string]map[string]string {
	t.Helper()
	raw, ok, err := kv.Get(context.Background(), speakers.StorageKey)
	if err != nil || !ok {
		t.Fatalf("expected stored overrides, ok=%v err=%v", ok, err)
	}
	var out map[string]map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode stored overrides: %v", err)
	}
	return out
}

func TestApplyCommitsNonBlankDraftsOnly(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	store := speakers.NewStore(ctx, kv, logging.NewNop())

	store.BeginEditing("job-1")
	store.SetDraftValue("job-1", "SPEAKER_00", "Alice")
	store.SetDraftValue("job-1", "SPEAKER_01", "")
	if err := store.Apply(ctx, "job-1", []string{"SPEAKER_00", "SPEAKER_01"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := speakers.Overrides{"SPEAKER_00": "Alice"}
	if got := store.Committed("job-1"); !reflect.DeepEqual(got, want) {
		t.Fatalf("Committed = %v, want %v", got, want)
	}
	if got := storedBlob(t, kv); !reflect.DeepEqual(got, map[string]map[string]string{"job-1": {"SPEAKER_00": "Alice"}}) {
		t.Fatalf("stored blob = %v", got)
	}
	if got := store.DisplayName("job-1", "SPEAKER_00"); got != "Alice" {
		t.Fatalf("DisplayName(SPEAKER_00) = %q", got)
	}
	if got := store.DisplayName("job-1", "SPEAKER_99"); got != "SPEAKER_99" {
		t.Fatalf("DisplayName(SPEAKER_99) = %q", got)
	}
}

func TestApplyTrimsAndReplacesDraft(t *testing.T) {
	ctx := context.Background()
	store := speakers.NewStore(ctx, kvstore.NewMemory(), logging.NewNop())

	store.BeginEditing("j")
	store.SetDraftValue("j", "SPEAKER_00", "  Bob  ")
	if draft, _ := store.Draft("j"); draft["SPEAKER_00"] != "  Bob  " {
		t.Fatalf("draft should keep verbatim value, got %q", draft["SPEAKER_00"])
	}
	if err := store.Apply(ctx, "j", []string{"SPEAKER_00"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	draft, ok := store.Draft("j")
	if !ok || !reflect.DeepEqual(draft, speakers.Overrides{"SPEAKER_00": "Bob"}) {
		t.Fatalf("draft after apply = %v ok=%v", draft, ok)
	}
}

func TestApplyWhitespaceRemovesExistingOverride(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	store := speakers.NewStore(ctx, kv, logging.NewNop())

	store.SetDraftValue("j", "SPEAKER_00", "Alice")
	store.SetDraftValue("j", "SPEAKER_01", "Bob")
	if err := store.Apply(ctx, "j", []string{"SPEAKER_00", "SPEAKER_01"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	store.SetDraftValue("j", "SPEAKER_00", "   ")
	if err := store.Apply(ctx, "j", []string{"SPEAKER_00"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := store.Committed("j"); !reflect.DeepEqual(got, speakers.Overrides{"SPEAKER_01": "Bob"}) {
		t.Fatalf("Committed = %v", got)
	}
	if got := store.DisplayName("j", "SPEAKER_00"); got != "SPEAKER_00" {
		t.Fatalf("DisplayName = %q", got)
	}

	store.SetDraftValue("j", "SPEAKER_01", "")
	if err := store.Apply(ctx, "j", []string{"SPEAKER_01"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, present := storedBlob(t, kv)["j"]; present {
		t.Fatal("expected job entry to be dropped once no overrides remain")
	}
}

func TestBeginEditingSeedsOnce(t *testing.T) {
	ctx := context.Background()
	store := speakers.NewStore(ctx, kvstore.NewMemory(), logging.NewNop())
	store.SetDraftValue("j", "SPEAKER_00", "Alice")
	if err := store.Apply(ctx, "j", []string{"SPEAKER_00"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	store.DiscardDraft("j")

	store.BeginEditing("j")
	store.SetDraftValue("j", "SPEAKER_00", "Al")
	store.BeginEditing("j")
	if got := store.EditorValue("j", "SPEAKER_00"); got != "Al" {
		t.Fatalf("second BeginEditing must not reseed, got %q", got)
	}
	if got := store.DisplayName("j", "SPEAKER_00"); got != "Alice" {
		t.Fatalf("draft must not leak into display name, got %q", got)
	}
	if got := store.EditorValue("other", "SPEAKER_00"); got != "" {
		t.Fatalf("EditorValue for unknown job = %q", got)
	}
}

func TestClearRemovesDraftAndCommitted(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	store := speakers.NewStore(ctx, kv, logging.NewNop())
	store.SetDraftValue("a", "SPEAKER_00", "Alice")
	store.SetDraftValue("b", "SPEAKER_00", "Bea")
	if err := store.Apply(ctx, "a", []string{"SPEAKER_00"}); err != nil {
		t.Fatalf("Apply a: %v", err)
	}
	if err := store.Apply(ctx, "b", []string{"SPEAKER_00"}); err != nil {
		t.Fatalf("Apply b: %v", err)
	}

	if err := store.Clear(ctx, "a"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := store.Draft("a"); ok {
		t.Fatal("expected draft to be removed")
	}
	if got := store.DisplayName("a", "SPEAKER_00"); got != "SPEAKER_00" {
		t.Fatalf("DisplayName after clear = %q", got)
	}
	if got := storedBlob(t, kv); !reflect.DeepEqual(got, map[string]map[string]string{"b": {"SPEAKER_00": "Bea"}}) {
		t.Fatalf("stored blob = %v", got)
	}
}

func TestCorruptBlobLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, blob := range map[string]string{
		"not json":  "{oops",
		"array":     `["a"]`,
		"bad entry": `{"j": "Alice", "k": {"SPEAKER_00": " Kay ", "SPEAKER_01": 7, "SPEAKER_02": "  "}}`,
	} {
		t.Run(name, func(t *testing.T) {
			kv := kvstore.NewMemory()
			if err := kv.Set(ctx, speakers.StorageKey, blob); err != nil {
				t.Fatalf("seed: %v", err)
			}
			store := speakers.NewStore(ctx, kv, logging.NewNop())
			if got := store.DisplayName("j", "SPEAKER_00"); got != "SPEAKER_00" {
				t.Fatalf("DisplayName = %q", got)
			}
			if name == "bad entry" {
				if got := store.Committed("k"); !reflect.DeepEqual(got, speakers.Overrides{"SPEAKER_00": "Kay"}) {
					t.Fatalf("Committed(k) = %v", got)
				}
			}
		})
	}
}

func TestPersistFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Memory: kvstore.NewMemory()}
	store := speakers.NewStore(ctx, kv, logging.NewNop())
	store.SetDraftValue("j", "SPEAKER_00", "Alice")
	if err := store.Apply(ctx, "j", []string{"SPEAKER_00"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	kv.setErr = errors.New("disk full")
	store.SetDraftValue("j", "SPEAKER_00", "Alicia")
	if err := store.Apply(ctx, "j", []string{"SPEAKER_00"}); err == nil {
		t.Fatal("expected persist error")
	}
	if got := store.DisplayName("j", "SPEAKER_00"); got != "Alice" {
		t.Fatalf("committed name changed despite failed persist: %q", got)
	}
	if got := store.EditorValue("j", "SPEAKER_00"); got != "Alicia" {
		t.Fatalf("draft should survive failed persist, got %q", got)
	}
	if err := store.Clear(ctx, "j"); err == nil {
		t.Fatal("expected clear to surface persist error")
	}
	if got := store.DisplayName("j", "SPEAKER_00"); got != "Alice" {
		t.Fatalf("committed name changed despite failed clear: %q", got)
	}
}

func TestReloadPicksUpExternalWrites(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	first := speakers.NewStore(ctx, kv, logging.NewNop())
	second := speakers.NewStore(ctx, kv, logging.NewNop())

	first.SetDraftValue("j", "SPEAKER_00", "Alice")
	if err := first.Apply(ctx, "j", []string{"SPEAKER_00"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := second.DisplayName("j", "SPEAKER_00"); got != "SPEAKER_00" {
		t.Fatalf("second store should still hold its snapshot, got %q", got)
	}
	second.Reload(ctx)
	if got := second.DisplayName("j", " SPEAKER_00 "); got != "Alice" {
		t.Fatalf("DisplayName after reload = %q", got)
	}
	if got := second.DisplayName("j", "   "); got != "" {
		t.Fatalf("blank label should yield empty name, got %q", got)
	}
}
