package jobsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"steno/internal/jobs"
	"steno/internal/logging"
	"steno/internal/transcript"
	"steno/internal/view"
)

// DefaultPollInterval is the fixed period between polls of an active job.
const DefaultPollInterval = 2 * time.Second

var (
	// ErrNoActiveJob is returned by operations that need an active job.
	ErrNoActiveJob = errors.New("no active job")
	// ErrSuperseded reports that the active job changed while a fetch was
	// in flight and its result was discarded.
	ErrSuperseded = errors.New("active job changed; result discarded")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("sync engine closed")
)

// Repository is the backend the engine reads jobs from.
type Repository interface {
	ListJobs(ctx context.Context) ([]jobs.Job, error)
	GetJob(ctx context.Context, id string) (jobs.Job, error)
	RequestSummary(ctx context.Context, id, style string) (jobs.Job, error)
}

// Hooks receive engine output. They run on the goroutine that produced the
// update and must not call SelectJob, CancelPolling, Forget or Close.
type Hooks struct {
	OnRender func(view.RenderState)
	OnJobs   func([]jobs.Job)
	OnError  func(jobID string, err error)
}

// Options configures an Engine.
type Options struct {
	Interval time.Duration
	Resolver *transcript.Resolver
	Names    view.SpeakerNames
	Display  view.Options
	Hooks    Hooks
	Logger   *slog.Logger
}

// Engine owns the active job and its poll loop.
type Engine struct {
	repo     Repository
	resolver *transcript.Resolver
	names    view.SpeakerNames
	interval time.Duration
	hooks    Hooks
	logger   *slog.Logger

	root      context.Context
	closeRoot context.CancelFunc
	wg        sync.WaitGroup

	// emitMu serialises the stale check with hook delivery so a superseded
	// job can never be emitted after its successor.
	emitMu sync.Mutex

	mu         sync.Mutex
	closed     bool
	activeID   string
	display    view.Options
	stopPoll   context.CancelFunc
	pollDone   chan struct{}
	seq        uint64
	appliedSeq uint64
	current    *snapshot
	message    string
	changed    chan struct{}
}

type snapshot struct {
	job      jobs.Job
	resolved string
	state    view.RenderState
}

// New builds an idle Engine.
func New(repo Repository, opts Options) *Engine {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = transcript.NewResolver(nil, opts.Logger)
	}
	root, cancel := context.WithCancel(context.Background())
	return &Engine{
		repo:      repo,
		resolver:  resolver,
		names:     opts.Names,
		interval:  interval,
		hooks:     opts.Hooks,
		logger:    logging.NewComponentLogger(opts.Logger, "jobsync"),
		root:      root,
		closeRoot: cancel,
		display:   opts.Display,
		changed:   make(chan struct{}),
	}
}

// ActiveJobID returns the active job id, or "" when idle.
func (e *Engine) ActiveJobID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeID
}

// Current returns the last RenderState emitted for the active job.
func (e *Engine) Current() (view.RenderState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return view.RenderState{}, false
	}
	return e.current.state, true
}

// CurrentJob returns the job snapshot behind Current.
func (e *Engine) CurrentJob() (jobs.Job, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return jobs.Job{}, false
	}
	return e.current.job, true
}

// Message returns the transient error text for the active job: the last
// poll failure, or the job's own error after a successful refresh.
func (e *Engine) Message() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.message
}

// SelectJob makes id the active job, fetches it once and starts polling if
// it is not yet terminal. Any previous poll loop is stopped first.
func (e *Engine) SelectJob(ctx context.Context, id string) (view.RenderState, error) {
	if id == "" {
		return view.RenderState{}, fmt.Errorf("select job: %w", ErrNoActiveJob)
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return view.RenderState{}, ErrClosed
	}
	stop, done := e.detachPollLocked()
	e.activeID = id
	e.current = nil
	e.message = ""
	e.notifyLocked()
	e.mu.Unlock()
	waitStopped(stop, done)

	e.logger.Debug("job selected", logging.Args(logging.JobID(id))...)
	state, err := e.refresh(ctx, id)
	if err != nil {
		return view.RenderState{}, err
	}
	if !state.Terminal() {
		e.startPolling(id)
	}
	return state, nil
}

// RefreshActiveJob fetches the active job and emits its RenderState. When
// the job has become terminal, polling stops and the job list is refreshed.
func (e *Engine) RefreshActiveJob(ctx context.Context) (view.RenderState, error) {
	id := e.ActiveJobID()
	if id == "" {
		return view.RenderState{}, ErrNoActiveJob
	}
	return e.refresh(ctx, id)
}

// CancelPolling stops the poll loop, keeping the active job. It is safe to
// call repeatedly.
func (e *Engine) CancelPolling() {
	e.mu.Lock()
	stop, done := e.detachPollLocked()
	e.notifyLocked()
	e.mu.Unlock()
	waitStopped(stop, done)
}

// State reports the engine's lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	switch {
	case e.activeID == "":
		return StateIdle
	case e.stopPoll != nil:
		return StatePolling
	default:
		return StateSettled
	}
}

// WaitSettled blocks until the engine is no longer polling and returns the
// last RenderState.
func (e *Engine) WaitSettled(ctx context.Context) (view.RenderState, error) {
	for {
		e.mu.Lock()
		state := e.stateLocked()
		changed := e.changed
		var current view.RenderState
		if e.current != nil {
			current = e.current.state
		}
		e.mu.Unlock()

		switch state {
		case StateIdle:
			return view.RenderState{}, ErrNoActiveJob
		case StateSettled:
			return current, nil
		case StatePolling:
		}
		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-changed:
		}
	}
}

// RefreshJobs reloads the job list. When no job is active the first job is
// selected.
func (e *Engine) RefreshJobs(ctx context.Context) ([]jobs.Job, error) {
	list, err := e.repo.ListJobs(ctx)
	if err != nil {
		e.report("", err)
		return nil, err
	}
	e.mu.Lock()
	idle := e.activeID == "" && !e.closed
	e.mu.Unlock()

	if e.hooks.OnJobs != nil {
		e.hooks.OnJobs(list)
	}
	if idle && len(list) > 0 {
		if _, err := e.SelectJob(ctx, list[0].ID); err != nil && !errors.Is(err, ErrSuperseded) {
			return list, err
		}
	}
	return list, nil
}

// GenerateSummary asks the backend for a summary of the active job in the
// given style and renders the updated job.
func (e *Engine) GenerateSummary(ctx context.Context, style string) (view.RenderState, error) {
	id := e.ActiveJobID()
	if id == "" {
		return view.RenderState{}, ErrNoActiveJob
	}
	seq := e.nextSeq()
	job, err := e.repo.RequestSummary(ctx, id, style)
	if err != nil {
		e.report(id, err)
		return view.RenderState{}, err
	}
	return e.apply(ctx, id, seq, job)
}

// Rerender recomposes the active job's RenderState from the last fetched
// snapshot, picking up speaker name and display changes without a fetch.
func (e *Engine) Rerender() (view.RenderState, error) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return view.RenderState{}, ErrNoActiveJob
	}
	snap := *e.current
	snap.state = view.Compose(snap.job, snap.resolved, e.names, e.display)
	e.current = &snap
	e.mu.Unlock()

	e.emit(snap.state)
	return snap.state, nil
}

// SetDisplay changes render options and rerenders the active job.
func (e *Engine) SetDisplay(opts view.Options) {
	e.mu.Lock()
	e.display = opts
	e.mu.Unlock()
	_, _ = e.Rerender()
}

// Forget drops a deleted job. If it was active the engine returns to Idle
// and emits an empty RenderState, then the job list is refreshed.
func (e *Engine) Forget(ctx context.Context, id string) ([]jobs.Job, error) {
	e.mu.Lock()
	wasActive := e.activeID == id
	var stop context.CancelFunc
	var done chan struct{}
	if wasActive {
		stop, done = e.detachPollLocked()
		e.activeID = ""
		e.current = nil
		e.message = ""
		e.notifyLocked()
	}
	e.mu.Unlock()
	waitStopped(stop, done)

	if wasActive {
		e.emitMu.Lock()
		e.emit(view.RenderState{})
		e.emitMu.Unlock()
	}
	return e.RefreshJobs(ctx)
}

// Close stops polling and waits for the poll goroutine to exit.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	stop, done := e.detachPollLocked()
	e.notifyLocked()
	e.mu.Unlock()

	waitStopped(stop, done)
	e.closeRoot()
	e.wg.Wait()
	return nil
}

func (e *Engine) refresh(ctx context.Context, id string) (view.RenderState, error) {
	seq := e.nextSeq()
	job, err := e.repo.GetJob(ctx, id)
	if err != nil {
		if !e.isActive(id) {
			return view.RenderState{}, ErrSuperseded
		}
		if ctx.Err() != nil {
			return view.RenderState{}, ctx.Err()
		}
		e.report(id, err)
		return view.RenderState{}, err
	}
	return e.apply(ctx, id, seq, job)
}

// apply resolves the transcript for job and emits its RenderState if id is
// still the active job and no newer response has been applied.
func (e *Engine) apply(ctx context.Context, id string, seq uint64, job jobs.Job) (view.RenderState, error) {
	if !e.isActive(id) {
		e.dropStale(id, job)
		return view.RenderState{}, ErrSuperseded
	}
	resolved := e.resolver.Resolve(ctx, job)
	// A cancelled resolve reads as "no transcript"; keep the last state.
	if err := ctx.Err(); err != nil {
		return view.RenderState{}, err
	}

	e.emitMu.Lock()
	e.mu.Lock()
	if e.activeID != id {
		e.mu.Unlock()
		e.emitMu.Unlock()
		e.dropStale(id, job)
		return view.RenderState{}, ErrSuperseded
	}
	if seq < e.appliedSeq && e.current != nil {
		current := e.current.state
		e.mu.Unlock()
		e.emitMu.Unlock()
		return current, nil
	}
	state := view.Compose(job, resolved, e.names, e.display)
	e.appliedSeq = seq
	e.current = &snapshot{job: job, resolved: resolved, state: state}
	e.message = job.ErrorMessage()
	terminal := job.Status.IsTerminal()
	var stop context.CancelFunc
	if terminal {
		stop, _ = e.detachPollLocked()
	}
	e.mu.Unlock()

	if stop != nil {
		stop()
	}
	e.emit(state)
	e.mu.Lock()
	e.notifyLocked()
	e.mu.Unlock()
	e.emitMu.Unlock()

	e.logger.Debug("job refreshed", logging.Args(
		logging.JobID(id),
		logging.String(logging.FieldStatus, string(job.Status)),
		logging.Int("progress", state.Progress),
	)...)

	if terminal {
		e.logger.Info("job settled", logging.Args(logging.JobID(id), logging.String(logging.FieldStatus, string(job.Status)))...)
		if _, err := e.RefreshJobs(context.WithoutCancel(ctx)); err != nil {
			e.logger.Warn("job list refresh failed", logging.Args(logging.Error(err))...)
		}
	}
	return state, nil
}

func (e *Engine) startPolling(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.activeID != id || e.stopPoll != nil {
		return
	}
	if e.current != nil && e.current.job.Status.IsTerminal() {
		return
	}
	ctx, cancel := context.WithCancel(e.root)
	done := make(chan struct{})
	e.stopPoll = cancel
	e.pollDone = done
	e.notifyLocked()

	e.wg.Add(1)
	go e.poll(ctx, id, done)
}

func (e *Engine) poll(ctx context.Context, id string, done chan struct{}) {
	defer e.wg.Done()
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		state, err := e.refresh(ctx, id)
		if errors.Is(err, ErrSuperseded) {
			return
		}
		if err == nil && state.Terminal() {
			return
		}
	}
}

// detachPollLocked disarms the poll loop and hands back what the caller
// needs to stop it outside the lock.
func (e *Engine) detachPollLocked() (context.CancelFunc, chan struct{}) {
	stop, done := e.stopPoll, e.pollDone
	e.stopPoll = nil
	e.pollDone = nil
	return stop, done
}

func waitStopped(stop context.CancelFunc, done chan struct{}) {
	if stop != nil {
		stop()
	}
	if done != nil {
		<-done
	}
}

func (e *Engine) notifyLocked() {
	close(e.changed)
	e.changed = make(chan struct{})
}

func (e *Engine) nextSeq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	return e.seq
}

func (e *Engine) isActive(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeID == id && !e.closed
}

func (e *Engine) dropStale(id string, job jobs.Job) {
	e.logger.Debug("discarding stale job response", logging.Args(
		logging.JobID(id),
		logging.String(logging.FieldStatus, string(job.Status)),
		logging.String("active_job_id", e.ActiveJobID()),
	)...)
}

func (e *Engine) report(id string, err error) {
	if id != "" {
		e.mu.Lock()
		if e.activeID != id {
			e.mu.Unlock()
			return
		}
		e.message = err.Error()
		e.mu.Unlock()
	}
	e.logger.Warn("job sync failed", logging.Args(logging.JobID(id), logging.Error(err))...)
	if e.hooks.OnError != nil {
		e.hooks.OnError(id, err)
	}
}

func (e *Engine) emit(state view.RenderState) {
	if e.hooks.OnRender != nil {
		e.hooks.OnRender(state)
	}
}
