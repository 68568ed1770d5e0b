package jobclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"steno/internal/jobs"
	"steno/internal/logging"
)

const maxErrorBody = 64 << 10

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is the HTTP job repository.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  string
	logger *slog.Logger
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("backend url is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/"
	base.RawPath = ""
	base.RawQuery = ""
	base.Fragment = ""

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		base:   base,
		http:   httpClient,
		token:  strings.TrimSpace(opts.Token),
		logger: logging.NewComponentLogger(opts.Logger, "jobclient"),
	}, nil
}

// BaseURL returns the normalised backend URL.
func (c *Client) BaseURL() string { return strings.TrimRight(c.base.String(), "/") }

// ServerConfig describes the backend's models, formats, and defaults.
type ServerConfig struct {
	Models   []string       `json:"models"`
	Formats  []string       `json:"formats"`
	Devices  []string       `json:"devices,omitempty"`
	Defaults ServerDefaults `json:"defaults"`
}

// ServerDefaults are the backend's default submission parameters.
type ServerDefaults struct {
	Model       string `json:"model"`
	Language    string `json:"language"`
	BatchSize   int    `json:"batch_size"`
	Device      string `json:"device"`
	ComputeType string `json:"compute_type"`
}

// SubmitRequest describes a new transcription job. Empty fields are left
// to the backend's defaults.
type SubmitRequest struct {
	FileName       string
	File           io.Reader
	ModelName      string
	Language       string
	BatchSize      int
	Device         string
	ComputeType    string
	Diarization    bool
	SummaryEnabled bool
	SummaryStyle   string
	OutputFormats  []string
}

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// ListJobs returns every job the backend knows about.
func (c *Client) ListJobs(ctx context.Context) ([]jobs.Job, error) {
	var out []jobs.Job
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("jobs"), nil, "", &out); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return out, nil
}

// GetJob fetches one job.
func (c *Client) GetJob(ctx context.Context, id string) (jobs.Job, error) {
	var job jobs.Job
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("jobs", id), nil, "", &job); err != nil {
		return jobs.Job{}, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// RequestSummary asks the backend to (re)generate the job's summary and
// returns the updated job.
func (c *Client) RequestSummary(ctx context.Context, id, style string) (jobs.Job, error) {
	payload, err := json.Marshal(map[string]string{"style": style})
	if err != nil {
		return jobs.Job{}, fmt.Errorf("encode summary request: %w", err)
	}
	var job jobs.Job
	err = c.doJSON(ctx, http.MethodPost, c.endpoint("jobs", id, "summary"), bytes.NewReader(payload), "application/json", &job)
	if err != nil {
		return jobs.Job{}, fmt.Errorf("request summary for %s: %w", id, err)
	}
	return job, nil
}

// FetchOutput downloads a generated export such as txt or srt.
func (c *Client) FetchOutput(ctx context.Context, id, format string) ([]byte, error) {
	body, err := c.doRaw(ctx, http.MethodGet, c.endpoint("jobs", id, "output", format), nil, "")
	if err != nil {
		return nil, fmt.Errorf("fetch %s output for %s: %w", format, id, err)
	}
	return body, nil
}

// Export renders the job in format with speaker overrides applied.
func (c *Client) Export(ctx context.Context, id, format string, overrides map[string]string) ([]byte, error) {
	if overrides == nil {
		overrides = map[string]string{}
	}
	encoded, err := json.Marshal(overrides)
	if err != nil {
		return nil, fmt.Errorf("encode speaker overrides: %w", err)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("speaker_name_overrides", string(encoded)); err != nil {
		return nil, fmt.Errorf("encode export form: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("encode export form: %w", err)
	}

	body, err := c.doRaw(ctx, http.MethodPost, c.endpoint("jobs", id, "export", format), &buf, form.FormDataContentType())
	if err != nil {
		return nil, fmt.Errorf("export %s for %s: %w", format, id, err)
	}
	return body, nil
}

// SummaryMarkdown downloads the job summary as a markdown document.
func (c *Client) SummaryMarkdown(ctx context.Context, id string) ([]byte, error) {
	body, err := c.doRaw(ctx, http.MethodGet, c.endpoint("jobs", id, "summary", "export"), nil, "")
	if err != nil {
		return nil, fmt.Errorf("download summary for %s: %w", id, err)
	}
	return body, nil
}

// Submit uploads a media file and returns the new job id.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if req.File == nil {
		return "", fmt.Errorf("submit job: no file provided")
	}
	formats, err := json.Marshal(req.OutputFormats)
	if err != nil {
		return "", fmt.Errorf("encode output formats: %w", err)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", req.FileName)
	if err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	fields := []struct{ name, value string }{
		{"model_name", req.ModelName},
		{"language", req.Language},
		{"device", req.Device},
		{"compute_type", req.ComputeType},
		{"summary_style", req.SummaryStyle},
		{"diarization", strconv.FormatBool(req.Diarization)},
		{"summary_enabled", strconv.FormatBool(req.SummaryEnabled)},
	}
	if req.BatchSize > 0 {
		fields = append(fields, struct{ name, value string }{"batch_size", strconv.Itoa(req.BatchSize)})
	}
	if len(req.OutputFormats) > 0 {
		fields = append(fields, struct{ name, value string }{"output_formats", string(formats)})
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		if err := form.WriteField(field.name, field.value); err != nil {
			return "", fmt.Errorf("encode upload: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}

	var resp submitResponse
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("jobs"), &buf, form.FormDataContentType(), &resp); err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("submit job: backend returned no job id")
	}
	return resp.JobID, nil
}

// Delete removes a finished job. confirmText must match what the backend
// expects (the job's filename).
func (c *Client) Delete(ctx context.Context, id, confirmText string) error {
	endpoint := c.endpoint("jobs", id)
	endpoint.RawQuery = url.Values{
		"confirm":      {"true"},
		"confirm_text": {strings.TrimSpace(confirmText)},
	}.Encode()
	if _, err := c.doRaw(ctx, http.MethodDelete, endpoint, nil, ""); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

// ServerConfig fetches the backend's model and format catalogue.
func (c *Client) ServerConfig(ctx context.Context) (ServerConfig, error) {
	var cfg ServerConfig
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("config"), nil, "", &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("load server config: %w", err)
	}
	return cfg, nil
}

func (c *Client) endpoint(segments ...string) *url.URL {
	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, "api")
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return c.base.JoinPath(escaped...)
}

func (c *Client) doJSON(ctx context.Context, method string, endpoint *url.URL, body io.Reader, contentType string, out any) error {
	data, err := c.doRaw(ctx, method, endpoint, body, contentType)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method string, endpoint *url.URL, body io.Reader, contentType string) ([]byte, error) {
	requestID := uuid.NewString()
	ctx = logging.WithCorrelationID(ctx, requestID)
	logger := logging.WithContext(ctx, c.logger)

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug("backend request failed", logging.Args(
			logging.String("method", method),
			logging.String("path", endpoint.Path),
			logging.Error(err),
		)...)
		return nil, err
	}
	defer resp.Body.Close()

	logger.Debug("backend request", logging.Args(
		logging.String("method", method),
		logging.String("path", endpoint.Path),
		logging.Int("status_code", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)...)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{
			Method:     method,
			Path:       endpoint.Path,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(raw),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

// parseDetail reads {"detail": ...}. FastAPI validation errors send a list
// of objects with "msg" fields.
func parseDetail(raw []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(string(raw))
	}
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return strings.TrimSpace(string(payload.Detail))
}
