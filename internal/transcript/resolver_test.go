package transcript_test

import (
	"context"
	"errors"
	"testing"

	"steno/internal/jobs"
	"steno/internal/logging"
	"steno/internal/transcript"
)

type stubFetcher struct {
	body  string
	err   error
	calls int
}

func (s *stubFetcher) FetchOutput(_ context.Context, jobID, format string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.body), nil
}

func txtFiles() jobs.GeneratedFiles {
	return jobs.GeneratedFiles{"txt": []byte("true")}
}

func TestResolvePrefersTranscriptOverLowerTiers(t *testing.T) {
	fetcher := &stubFetcher{body: "from export"}
	resolver := transcript.NewResolver(fetcher, logging.NewNop())
	job := jobs.Job{ID: "a", Result: &jobs.Result{
		Transcript:     "  direct  ",
		Text:           "text field",
		Segments:       []jobs.Segment{{Text: "seg"}},
		GeneratedFiles: txtFiles(),
	}}
	if got := resolver.Resolve(context.Background(), job); got != "direct" {
		t.Fatalf("Resolve = %q, want %q", got, "direct")
	}
	if fetcher.calls != 0 {
		t.Fatalf("expected no export fetch, got %d", fetcher.calls)
	}
}

func TestResolveFallsBackToTextField(t *testing.T) {
	resolver := transcript.NewResolver(nil, logging.NewNop())
	job := jobs.Job{ID: "a", Result: &jobs.Result{Transcript: "  ", Text: " text field ", Segments: []jobs.Segment{{Text: "seg"}}}}
	if got := resolver.Resolve(context.Background(), job); got != "text field" {
		t.Fatalf("Resolve = %q", got)
	}
}

func TestResolveJoinsSegments(t *testing.T) {
	resolver := transcript.NewResolver(nil, logging.NewNop())
	job := jobs.Job{ID: "a", Result: &jobs.Result{
		Segments: []jobs.Segment{{Text: " Hello "}, {Text: "  "}, {Text: "World"}},
	}}
	if got := resolver.Resolve(context.Background(), job); got != "Hello World" {
		t.Fatalf("Resolve = %q, want %q", got, "Hello World")
	}
}

func TestResolveFetchesExportAsLastResort(t *testing.T) {
	fetcher := &stubFetcher{body: "\n exported text \n"}
	resolver := transcript.NewResolver(fetcher, logging.NewNop())
	job := jobs.Job{ID: "a", Result: &jobs.Result{GeneratedFiles: txtFiles()}}
	if got := resolver.Resolve(context.Background(), job); got != "exported text" {
		t.Fatalf("Resolve = %q", got)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected one fetch, got %d", fetcher.calls)
	}
}

func TestResolveSwallowsFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	resolver := transcript.NewResolver(fetcher, logging.NewNop())
	job := jobs.Job{ID: "a", Result: &jobs.Result{GeneratedFiles: txtFiles()}}
	if got := resolver.Resolve(context.Background(), job); got != "" {
		t.Fatalf("Resolve = %q, want empty", got)
	}
}

func TestResolveSkipsFetchWithoutTxtOrID(t *testing.T) {
	fetcher := &stubFetcher{body: "should not be used"}
	resolver := transcript.NewResolver(fetcher, logging.NewNop())

	noTxt := jobs.Job{ID: "a", Result: &jobs.Result{GeneratedFiles: jobs.GeneratedFiles{"srt": []byte(`"x.srt"`)}}}
	noID := jobs.Job{Result: &jobs.Result{GeneratedFiles: txtFiles()}}
	noResult := jobs.Job{ID: "a"}
	for _, job := range []jobs.Job{noTxt, noID, noResult} {
		if got := resolver.Resolve(context.Background(), job); got != "" {
			t.Fatalf("Resolve = %q, want empty", got)
		}
	}
	if fetcher.calls != 0 {
		t.Fatalf("expected no fetches, got %d", fetcher.calls)
	}
}

func TestWithSpeakers(t *testing.T) {
	segments := []jobs.Segment{
		{Speaker: "SPEAKER_00", Text: " hi "},
		{Speaker: "SPEAKER_01", Text: "hello"},
		{Text: "narration"},
		{Speaker: "SPEAKER_00", Text: "  "},
	}
	names := map[string]string{"SPEAKER_00": "Alice"}
	got := transcript.WithSpeakers(segments, func(raw string) string { return names[raw] })
	want := "Alice: hi\nSPEAKER_01: hello\nnarration"
	if got != want {
		t.Fatalf("WithSpeakers = %q, want %q", got, want)
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[float64]string{
		0:       "00:00:00",
		59.99:   "00:00:59",
		61.5:    "00:01:01",
		3725:    "01:02:05",
		-4:      "00:00:00",
		90061.2: "25:01:01",
	}
	for input, want := range cases {
		if got := transcript.FormatClock(input); got != want {
			t.Fatalf("FormatClock(%v) = %q, want %q", input, got, want)
		}
	}
}
