package jobclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"steno/internal/jobclient"
	"steno/internal/jobs"
)

func newClient(t *testing.T, handler http.Handler, token string) *jobclient.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := jobclient.New(jobclient.Options{BaseURL: srv.URL + "/", Token: token})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return client
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := jobclient.New(jobclient.Options{BaseURL: "  "}); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestNewAddsSchemeAndTrimsSlash(t *testing.T) {
	client, err := jobclient.New(jobclient.Options{BaseURL: "localhost:8000/steno/"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if got := client.BaseURL(); got != "http://localhost:8000/steno" {
		t.Fatalf("BaseURL = %q", got)
	}
}

func TestGetJobDecodesAndSetsHeaders(t *testing.T) {
	var gotPath, gotAuth, gotRequestID string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"a b","status":"processing","progress":40,"step":"transcribing"}`)
	}), "secret")

	job, err := client.GetJob(context.Background(), "a b")
	if err != nil {
		t.Fatalf("GetJob error: %v", err)
	}
	if job.Status != jobs.StatusProcessing || job.Progress != 40 {
		t.Fatalf("unexpected job: %+v", job)
	}
	if gotPath != "/api/jobs/a b" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if len(gotRequestID) != 36 {
		t.Fatalf("expected uuid request id, got %q", gotRequestID)
	}
}

func TestGetJobNotFound(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Job not found"}`)
	}), "")

	_, err := client.GetJob(context.Background(), "missing")
	if !errors.Is(err, jobclient.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var httpErr *jobclient.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Detail != "Job not found" {
		t.Fatalf("expected detail, got %v", err)
	}
	if jobclient.IsUnavailable(err) {
		t.Fatal("404 must not be classified as unavailable")
	}
}

func TestNonSuccessStatusIsAnError(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMultipleChoices)
		_, _ = io.WriteString(w, `{"id":"job","status":"completed"}`)
	}), "")

	_, err := client.GetJob(context.Background(), "job")
	var httpErr *jobclient.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError for 300 response, got %v", err)
	}
	if httpErr.StatusCode != http.StatusMultipleChoices {
		t.Fatalf("status = %d", httpErr.StatusCode)
	}
}

func TestValidationDetailList(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":[{"msg":"field required"},{"msg":"bad style"}]}`)
	}), "")

	_, err := client.RequestSummary(context.Background(), "job", "short")
	if got := jobclient.DetailMessage(err, "fallback"); got != "field required; bad style" {
		t.Fatalf("DetailMessage = %q", got)
	}
}

func TestRequestSummarySendsStyle(t *testing.T) {
	var body map[string]string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/jobs/j1/summary" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"id":"j1","status":"completed","result":{"summary":"done"}}`)
	}), "")

	job, err := client.RequestSummary(context.Background(), "j1", "bullet")
	if err != nil {
		t.Fatalf("RequestSummary error: %v", err)
	}
	if body["style"] != "bullet" {
		t.Fatalf("style = %q", body["style"])
	}
	if job.Summary() != "done" {
		t.Fatalf("summary = %q", job.Summary())
	}
}

func TestExportSendsOverrides(t *testing.T) {
	var overrides map[string]string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/jobs/j1/export/srt" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.Unmarshal([]byte(r.FormValue("speaker_name_overrides")), &overrides); err != nil {
			t.Errorf("decode overrides: %v", err)
		}
		_, _ = io.WriteString(w, "1\n00:00:00,000 --> 00:00:01,000\nAlice: hi\n")
	}), "")

	data, err := client.Export(context.Background(), "j1", "srt", map[string]string{"SPEAKER_00": "Alice"})
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}
	if overrides["SPEAKER_00"] != "Alice" {
		t.Fatalf("overrides = %v", overrides)
	}
	if !strings.Contains(string(data), "Alice: hi") {
		t.Fatalf("unexpected body %q", data)
	}
}

func TestSubmitEncodesMultipart(t *testing.T) {
	fields := map[string]string{}
	var upload string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		for key, values := range r.MultipartForm.Value {
			fields[key] = values[0]
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			data, _ := io.ReadAll(file)
			upload = header.Filename + ":" + string(data)
		}
		_, _ = io.WriteString(w, `{"job_id":"new-job","status":"queued"}`)
	}), "")

	id, err := client.Submit(context.Background(), jobclient.SubmitRequest{
		FileName:       "talk.wav",
		File:           strings.NewReader("RIFF"),
		ModelName:      "large-v3",
		BatchSize:      8,
		Diarization:    true,
		SummaryEnabled: false,
		OutputFormats:  []string{"txt", "srt"},
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if id != "new-job" {
		t.Fatalf("job id = %q", id)
	}
	if upload != "talk.wav:RIFF" {
		t.Fatalf("upload = %q", upload)
	}
	want := map[string]string{
		"model_name":      "large-v3",
		"batch_size":      "8",
		"diarization":     "true",
		"summary_enabled": "false",
		"output_formats":  `["txt","srt"]`,
	}
	for key, value := range want {
		if fields[key] != value {
			t.Fatalf("field %s = %q, want %q", key, fields[key], value)
		}
	}
	if _, ok := fields["language"]; ok {
		t.Fatal("empty language should be omitted")
	}
}

func TestDeleteSendsConfirmation(t *testing.T) {
	var gotMethod, gotConfirm, gotText string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotConfirm = r.URL.Query().Get("confirm")
		gotText = r.URL.Query().Get("confirm_text")
		_, _ = io.WriteString(w, `{"deleted":true}`)
	}), "")

	if err := client.Delete(context.Background(), "j1", " talk.wav "); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if gotMethod != http.MethodDelete || gotConfirm != "true" || gotText != "talk.wav" {
		t.Fatalf("unexpected delete request %s confirm=%q text=%q", gotMethod, gotConfirm, gotText)
	}
}

func TestServerConfig(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/config" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"models":["small","large-v3"],"formats":["txt","srt"],"defaults":{"model":"small","batch_size":4}}`)
	}), "")

	cfg, err := client.ServerConfig(context.Background())
	if err != nil {
		t.Fatalf("ServerConfig error: %v", err)
	}
	if len(cfg.Models) != 2 || cfg.Defaults.Model != "small" || cfg.Defaults.BatchSize != 4 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestIsUnavailableOnRefusedConnection(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := jobclient.New(jobclient.Options{BaseURL: url})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	_, err = client.ListJobs(context.Background())
	if err == nil {
		t.Fatal("expected error against closed server")
	}
	if !jobclient.IsUnavailable(err) {
		t.Fatalf("expected unavailable classification, got %v", err)
	}
	if got := jobclient.DetailMessage(err, ""); got != jobclient.ErrUnavailable.Error() {
		t.Fatalf("DetailMessage = %q", got)
	}
}
