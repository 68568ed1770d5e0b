package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"steno/internal/jobs"
)

// Backend is an in-process fake of the transcription service. Each job has
// a script of states; every GET of the job serves the next state and then
// sticks on the last one.
type Backend struct {
	t      testing.TB
	server *httptest.Server

	mu          sync.Mutex
	order       []string
	scripts     map[string]*script
	outputs     map[string]map[string]string
	failures    map[string]int
	gates       map[string]*gate
	requests    map[string]int
	requestIDs  []string
	overrides   map[string]map[string]string
	submissions []Submission
	deleted     []string
	nextID      int
}

type script struct {
	states []jobs.Job
	served int
}

func (s *script) current() jobs.Job {
	idx := min(s.served, len(s.states)-1)
	return s.states[idx]
}

// Submission records the form fields of a POST /api/jobs.
type Submission struct {
	Filename string
	Size     int
	Fields   map[string]string
}

// NewBackend starts a fake backend that is closed with the test.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		t:         t,
		scripts:   make(map[string]*script),
		outputs:   make(map[string]map[string]string),
		failures:  make(map[string]int),
		gates:     make(map[string]*gate),
		requests:  make(map[string]int),
		overrides: make(map[string]map[string]string),
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/config", b.handleConfig).Methods(http.MethodGet)
	api.HandleFunc("/jobs", b.handleList).Methods(http.MethodGet)
	api.HandleFunc("/jobs", b.handleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/jobs/{id}", b.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", b.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/jobs/{id}/output/{format}", b.handleOutput).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}/export/{format}", b.handleExport).Methods(http.MethodPost)
	api.HandleFunc("/jobs/{id}/summary", b.handleSummary).Methods(http.MethodPost)
	api.HandleFunc("/jobs/{id}/summary/export", b.handleSummaryExport).Methods(http.MethodGet)
	router.Use(b.recordRequests)

	b.server = httptest.NewServer(router)
	t.Cleanup(func() {
		b.mu.Lock()
		for id, g := range b.gates {
			g.open()
			delete(b.gates, id)
		}
		b.mu.Unlock()
		b.server.Close()
	})
	return b
}

// URL returns the backend base URL.
func (b *Backend) URL() string { return b.server.URL }

// AddJob registers a job whose GETs walk through states in order.
func (b *Backend) AddJob(states ...jobs.Job) {
	b.t.Helper()
	if len(states) == 0 {
		b.t.Fatal("AddJob needs at least one state")
	}
	id := states[0].ID
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.scripts[id]; !exists {
		b.order = append(b.order, id)
	}
	b.scripts[id] = &script{states: states}
}

// SetOutput sets the body served for a job's exported format.
func (b *Backend) SetOutput(id, format, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.outputs[id] == nil {
		b.outputs[id] = make(map[string]string)
	}
	b.outputs[id][format] = body
}

// FailNext makes the next n GETs of the job answer 500.
func (b *Backend) FailNext(id string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[id] = n
}

type gate struct {
	ch   chan struct{}
	once sync.Once
}

func (g *gate) open() { g.once.Do(func() { close(g.ch) }) }

// Gate holds the next GET of the job until the returned release func runs.
func (b *Backend) Gate(id string) (release func()) {
	g := &gate{ch: make(chan struct{})}
	b.mu.Lock()
	b.gates[id] = g
	b.mu.Unlock()
	return g.open
}

// Requests counts requests matching "METHOD /path".
func (b *Backend) Requests(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[method+" "+path]
}

// RequestIDs returns every X-Request-ID seen so far.
func (b *Backend) RequestIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requestIDs...)
}

// ExportOverrides returns the speaker overrides sent with the last export
// of the job.
func (b *Backend) ExportOverrides(id string) map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overrides[id]
}

// Submissions returns every upload received.
func (b *Backend) Submissions() []Submission {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Submission(nil), b.submissions...)
}

// Deleted returns the ids of deleted jobs.
func (b *Backend) Deleted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

func (b *Backend) recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests[r.Method+" "+r.URL.Path]++
		if id := r.Header.Get("X-Request-ID"); id != "" {
			b.requestIDs = append(b.requestIDs, id)
			w.Header().Set("X-Request-ID", id)
		}
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models":  []string{"small", "large-v3"},
		"formats": []string{"txt", "srt", "vtt", "json"},
		"devices": []string{"cpu", "cuda"},
		"defaults": map[string]any{
			"model":        "small",
			"language":     "auto",
			"batch_size":   8,
			"device":       "cpu",
			"compute_type": "int8",
		},
	})
}

func (b *Backend) handleList(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	list := make([]jobs.Job, 0, len(b.order))
	for i := len(b.order) - 1; i >= 0; i-- {
		list = append(list, b.scripts[b.order[i]].current())
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (b *Backend) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file is required")
		return
	}
	data, _ := io.ReadAll(file)
	_ = file.Close()

	fields := make(map[string]string)
	for key, values := range r.MultipartForm.Value {
		fields[key] = values[0]
	}

	b.mu.Lock()
	b.nextID++
	id := fmt.Sprintf("job-%d", b.nextID)
	b.submissions = append(b.submissions, Submission{Filename: header.Filename, Size: len(data), Fields: fields})
	b.order = append(b.order, id)
	b.scripts[id] = &script{states: []jobs.Job{{ID: id, Filename: header.Filename, Status: jobs.StatusQueued, Step: "queued"}}}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"job_id": id, "status": string(jobs.StatusQueued)})
}

func (b *Backend) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	b.mu.Lock()
	g, gated := b.gates[id]
	if gated {
		delete(b.gates, id)
	}
	b.mu.Unlock()
	if gated {
		select {
		case <-g.ch:
		case <-r.Context().Done():
			return
		}
	}

	b.mu.Lock()
	s, ok := b.scripts[id]
	if !ok {
		b.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	if b.failures[id] > 0 {
		b.failures[id]--
		b.mu.Unlock()
		writeDetail(w, http.StatusInternalServerError, "temporary failure")
		return
	}
	job := s.current()
	s.served++
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, job)
}

func (b *Backend) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	query := r.URL.Query()

	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.scripts[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	job := s.current()
	if query.Get("confirm") != "true" {
		writeDetail(w, http.StatusBadRequest, "Deletion must be confirmed")
		return
	}
	if strings.TrimSpace(query.Get("confirm_text")) != job.Filename {
		writeDetail(w, http.StatusBadRequest, "Confirmation text does not match filename")
		return
	}
	if !job.Status.IsTerminal() {
		writeDetail(w, http.StatusConflict, "Only finished jobs can be deleted")
		return
	}
	delete(b.scripts, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.deleted = append(b.deleted, id)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "job_id": id})
}

func (b *Backend) handleOutput(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	b.mu.Lock()
	body, ok := b.outputs[vars["id"]][vars["format"]]
	b.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Output not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

func (b *Backend) handleExport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	overrides := map[string]string{}
	if raw := r.FormValue("speaker_name_overrides"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			writeDetail(w, http.StatusBadRequest, "speaker_name_overrides must be a JSON object")
			return
		}
	}

	b.mu.Lock()
	s, ok := b.scripts[id]
	if !ok {
		b.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	b.overrides[id] = overrides
	job := s.current()
	b.mu.Unlock()

	var lines []string
	for _, seg := range job.Segments() {
		name := seg.SpeakerLabel()
		if override := overrides[name]; override != "" {
			name = override
		}
		if name != "" {
			lines = append(lines, name+": "+strings.TrimSpace(seg.Text))
		} else {
			lines = append(lines, strings.TrimSpace(seg.Text))
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, strings.Join(lines, "\n")+"\n")
}

func (b *Backend) handleSummary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var payload struct {
		Style string `json:"style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid summary request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.scripts[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	job := s.current()
	if job.Status != jobs.StatusCompleted {
		writeDetail(w, http.StatusBadRequest, "Transcription is not complete")
		return
	}
	result := jobs.Result{}
	if job.Result != nil {
		result = *job.Result
	}
	result.Summary = fmt.Sprintf("## Summary (%s)\n\n- %s", payload.Style, job.Filename)
	job.Result = &result
	idx := min(s.served, len(s.states)-1)
	s.states[idx] = job
	writeJSON(w, http.StatusOK, job)
}

func (b *Backend) handleSummaryExport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	b.mu.Lock()
	s, ok := b.scripts[id]
	var summary string
	if ok {
		summary = s.current().Summary()
	}
	b.mu.Unlock()
	if strings.TrimSpace(summary) == "" {
		writeDetail(w, http.StatusNotFound, "Summary not available")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, summary+"\n")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
