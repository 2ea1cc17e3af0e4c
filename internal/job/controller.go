// Package job implements the background job state machine shared by the
// agent-resolution batch runner and the FSBO search runner: queued →
// running → {complete, cancelled, error}, with disk persistence so a
// server restart surfaces in-flight jobs as "interrupted" rather than
// silently losing them. Grounded on app.py's in-memory jobs dict plus
// its _save_jobs/_load_jobs persistence helpers.
package job

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errJobNotFound = errors.New("job not found")

// Status is a job's lifecycle state.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusRunning     Status = "running"
	StatusComplete    Status = "complete"
	StatusCancelled   Status = "cancelled"
	StatusError       Status = "error"
	StatusInterrupted Status = "interrupted"
)

// interruptedMessage is the exact user-facing string app.py sets on any
// job found queued/running when the server restarts.
const interruptedMessage = "This job was interrupted because the server restarted. Re-upload the file to run again."

// Job is one batch run's tracked state. Progress holds the raw event
// payloads appended as the run proceeds (resolve.ProgressUpdate or
// fsboagg.ProgressUpdate, wrapped as any so Controller stays agnostic to
// which pipeline owns it); it is not persisted across restarts.
type Job struct {
	ID         string `json:"id"`
	Status     Status `json:"status"`
	UploadPath string `json:"upload_path"`
	ResultPath string `json:"result_path"`
	Total      int    `json:"total"`
	Error      string `json:"error"`
	Summary    any    `json:"summary"`
	Filename   string `json:"filename"`
	CreatedAt  string `json:"created_at"`

	Progress    []any `json:"-"`
	PreviewRows any   `json:"-"`

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (j *Job) snapshot() Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Job{
		ID: j.ID, Status: j.Status, UploadPath: j.UploadPath, ResultPath: j.ResultPath,
		Total: j.Total, Error: j.Error, Summary: j.Summary, Filename: j.Filename, CreatedAt: j.CreatedAt,
	}
}

// Controller owns a set of jobs and persists their durable fields to a
// JSON file on every transition. Agent-resolution jobs and FSBO searches
// use two separate Controller instances over two separate files
// (data/jobs.json vs data/fsbo_searches.json) so neither shares a
// progress log.
type Controller struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	order    []string
	persist  string
	log      *zap.Logger
}

// NewController loads any previously persisted jobs from persistPath,
// rewriting queued/running entries to interrupted, and returns a
// Controller ready to accept new jobs. Mirrors app.py's startup hook
// calling _load_jobs().
func NewController(persistPath string, log *zap.Logger) (*Controller, error) {
	c := &Controller{
		jobs:    make(map[string]*Job),
		persist: persistPath,
		log:     log,
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

type persistedJob struct {
	Status     Status `json:"status"`
	UploadPath string `json:"upload_path"`
	ResultPath string `json:"result_path"`
	Total      int    `json:"total"`
	Error      string `json:"error"`
	Summary    any    `json:"summary"`
	Filename   string `json:"filename"`
	CreatedAt  string `json:"created_at"`
}

func (c *Controller) load() error {
	data, err := os.ReadFile(c.persist)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var saved map[string]persistedJob
	if err := json.Unmarshal(data, &saved); err != nil {
		// A corrupt jobs file should not prevent startup — matches
		// _load_jobs's bare except on JSONDecodeError/KeyError.
		if c.log != nil {
			c.log.Warn("jobs file unreadable, starting fresh", zap.Error(err))
		}
		return nil
	}

	for id, pj := range saved {
		status := pj.Status
		errMsg := pj.Error
		if status == StatusQueued || status == StatusRunning {
			status = StatusInterrupted
			errMsg = interruptedMessage
		}
		c.jobs[id] = &Job{
			ID: id, Status: status, UploadPath: pj.UploadPath, ResultPath: pj.ResultPath,
			Total: pj.Total, Error: errMsg, Summary: pj.Summary, Filename: pj.Filename, CreatedAt: pj.CreatedAt,
		}
		c.order = append(c.order, id)
	}
	return nil
}

func (c *Controller) save() {
	c.mu.RLock()
	saveable := make(map[string]persistedJob, len(c.jobs))
	for id, j := range c.jobs {
		s := j.snapshot()
		saveable[id] = persistedJob{
			Status: s.Status, UploadPath: s.UploadPath, ResultPath: s.ResultPath,
			Total: s.Total, Error: s.Error, Summary: s.Summary, Filename: s.Filename, CreatedAt: s.CreatedAt,
		}
	}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(saveable, "", "  ")
	if err != nil {
		if c.log != nil {
			c.log.Error("marshal jobs file", zap.Error(err))
		}
		return
	}
	if err := os.WriteFile(c.persist, data, 0o644); err != nil {
		if c.log != nil {
			c.log.Error("write jobs file", zap.Error(err))
		}
	}
}

// Create registers a new queued job and persists it immediately so a
// restart sees the queued state, mirroring app.py's upload_file handler.
func (c *Controller) Create(filename, uploadPath string, total int) *Job {
	id := uuid.NewString()[:8]
	j := &Job{
		ID: id, Status: StatusQueued, UploadPath: uploadPath, Total: total,
		Filename: filename, CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	c.mu.Lock()
	c.jobs[id] = j
	c.order = append(c.order, id)
	c.mu.Unlock()
	c.save()
	return j
}

// Get returns the job with id, if present.
func (c *Controller) Get(id string) (*Job, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	j, ok := c.jobs[id]
	return j, ok
}

// List returns every job, newest created_at first, matching app.py's
// list_jobs endpoint.
func (c *Controller) List() []Job {
	c.mu.RLock()
	snaps := make([]Job, 0, len(c.jobs))
	for _, j := range c.jobs {
		snaps = append(snaps, j.snapshot())
	}
	c.mu.RUnlock()

	sort.Slice(snaps, func(i, k int) bool { return snaps[i].CreatedAt > snaps[k].CreatedAt })
	return snaps
}

// Start transitions a job to running and attaches a cancel func the
// caller can trigger via Cancel. Persists immediately so a restart mid-run
// is visible as interrupted.
func (c *Controller) Start(id string) (context.Context, bool) {
	c.mu.RLock()
	j, ok := c.jobs[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	ctx, cancel := context.WithCancel(context.Background())
	j.mu.Lock()
	j.Status = StatusRunning
	j.cancel = cancel
	j.mu.Unlock()
	c.save()
	return ctx, true
}

// AppendProgress records one progress event for a running job, mirroring
// app.py's on_progress closure appending to job["progress"].
func (c *Controller) AppendProgress(id string, event any) {
	c.mu.RLock()
	j, ok := c.jobs[id]
	c.mu.RUnlock()
	if !ok {
		return
	}
	j.mu.Lock()
	j.Progress = append(j.Progress, event)
	j.mu.Unlock()
}

// Complete marks a job done with its result artifact, summary, and
// preview rows, then persists.
func (c *Controller) Complete(id, resultPath string, summary, preview any) {
	c.mu.RLock()
	j, ok := c.jobs[id]
	c.mu.RUnlock()
	if !ok {
		return
	}
	j.mu.Lock()
	j.Status = StatusComplete
	j.ResultPath = resultPath
	j.Summary = summary
	j.PreviewRows = preview
	j.mu.Unlock()
	c.save()
}

// Fail marks a job errored, unless it was already cancelled out from
// under the running goroutine (matching app.py's CancelledError guard).
func (c *Controller) Fail(id string, err error) {
	c.mu.RLock()
	j, ok := c.jobs[id]
	c.mu.RUnlock()
	if !ok {
		return
	}
	j.mu.Lock()
	if j.Status != StatusCancelled {
		j.Status = StatusError
		j.Error = err.Error()
	}
	j.mu.Unlock()
	c.save()
}

// Cancel transitions a queued/running job to cancelled and invokes its
// context cancel func, if the run has started.
func (c *Controller) Cancel(id string) bool {
	c.mu.RLock()
	j, ok := c.jobs[id]
	c.mu.RUnlock()
	if !ok {
		return false
	}

	j.mu.Lock()
	if j.Status != StatusQueued && j.Status != StatusRunning {
		j.mu.Unlock()
		return false
	}
	j.Status = StatusCancelled
	j.Error = "Cancelled by user."
	cancel := j.cancel
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.save()
	return true
}

// Resumable reports whether id can be resumed (cancelled, errored, or
// interrupted) and returns its original upload path.
func (c *Controller) Resumable(id string) (uploadPath string, ok bool) {
	j, exists := c.Get(id)
	if !exists {
		return "", false
	}
	s := j.snapshot()
	if s.Status != StatusCancelled && s.Status != StatusError && s.Status != StatusInterrupted {
		return "", false
	}
	return s.UploadPath, true
}

// Delete cancels id if still running, then removes it from the
// controller (file cleanup is the caller's responsibility, matching
// app.py's delete_job which also unlinks upload/result files).
func (c *Controller) Delete(id string) bool {
	c.mu.Lock()
	j, ok := c.jobs[id]
	if ok {
		delete(c.jobs, id)
		for i, oid := range c.order {
			if oid == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
	c.mu.Unlock()
	if !ok {
		return false
	}

	j.mu.Lock()
	cancel := j.cancel
	j.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.save()
	return true
}
