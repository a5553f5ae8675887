package job

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

var (
	ErrNotFound = errors.New("job not found")
	ErrTerminal = errors.New("job already finished")
)

// Registry is the in-memory table of jobs. Readers always get copies, so a
// poll never observes a half-applied update.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*Job),
		now:  time.Now,
	}
}

// Create allocates a pending job with progress 0.
func (r *Registry) Create(kind Kind, message string) Job {
	now := r.now()
	j := &Job{
		ID:        shortuuid.New(),
		Kind:      kind,
		Status:    StatusPending,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.jobs[j.ID] = j
	r.mu.Unlock()
	return *j
}

func (r *Registry) Get(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *j, nil
}

// List returns all jobs, newest first.
func (r *Registry) List() []Job {
	r.mu.RLock()
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, *j)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.jobs, id)
	r.mu.Unlock()
}

func (r *Registry) update(id string, fn func(j *Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if j.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrTerminal, id, j.Status)
	}
	fn(j)
	j.UpdatedAt = r.now()
	return nil
}

// Advance moves a job to processing. Progress never goes backwards and never
// exceeds 1; only Complete makes a job completed. An empty message keeps the
// previous one.
func (r *Registry) Advance(id string, progress float64, message string) error {
	return r.update(id, func(j *Job) {
		j.Status = StatusProcessing
		if progress > 1 {
			progress = 1
		}
		if progress > j.Progress {
			j.Progress = progress
		}
		if message != "" {
			j.Message = message
		}
	})
}

// Complete is the only transition that sets Result.
func (r *Registry) Complete(id string, result any, message string) error {
	return r.update(id, func(j *Job) {
		now := r.now()
		j.Status = StatusCompleted
		j.Progress = 1
		j.Result = result
		j.Error = nil
		j.Message = message
		j.FinishedAt = &now
	})
}

// Fail is the only transition that sets Error. Progress keeps its last value.
func (r *Registry) Fail(id string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return r.update(id, func(j *Job) {
		now := r.now()
		j.Status = StatusFailed
		j.Result = nil
		j.Error = &msg
		j.Message = "Failed: " + msg
		j.FinishedAt = &now
	})
}

// Sweep drops terminal jobs that finished before cutoff and returns how many
// were removed. Pending and processing jobs are never evicted.
func (r *Registry) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, j := range r.jobs {
		if j.Status.Terminal() && j.FinishedAt != nil && j.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}

// Progress is the per-job handle given to a runner. It can only touch its
// own job, which keeps a single writer per job id.
type Progress struct {
	reg *Registry
	id  string
}

func (p *Progress) JobID() string { return p.id }

// Step records a checkpoint. Errors are ignored: once the job is terminal
// (canceled or timed out) later checkpoints are meaningless.
func (p *Progress) Step(progress float64, message string) {
	_ = p.reg.Advance(p.id, progress, message)
}
