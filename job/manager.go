package job

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"clipapi/config"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrNotRunning  = errors.New("job manager is not running")
	errJobCanceled = errors.New("job canceled")
)

// RunFunc does the work of one job. The returned value becomes the job
// result on success. ctx is canceled on timeout, on Cancel and on shutdown.
type RunFunc func(ctx context.Context, p *Progress) (any, error)

type queued struct {
	id   string
	kind Kind
	run  RunFunc
}

// Manager accepts jobs, queues them and runs them on a bounded number of
// workers. All state lives in the Registry.
type Manager struct {
	cfg     *config.Config
	reg     *Registry
	log     *logrus.Logger
	queue   chan queued
	sem     chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	started bool
}

func NewManager(cfg *config.Config, reg *Registry, log *logrus.Logger) *Manager {
	workers := cfg.MaxConcurrency
	if workers < 1 {
		workers = 1
	}
	size := cfg.QueueSize
	if size < 1 {
		size = 1
	}
	return &Manager{
		cfg:     cfg,
		reg:     reg,
		log:     log,
		queue:   make(chan queued, size),
		sem:     make(chan struct{}, workers),
		cancels: make(map[string]context.CancelFunc),
	}
}

func (m *Manager) Registry() *Registry { return m.reg }

func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"concurrency": cap(m.sem),
		"queue_size":  cap(m.queue),
		"job_timeout": m.cfg.JobTimeout.String(),
	}).Info("job manager started")

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.workerLoop(ctx)
	}()
}

// Wait blocks until the worker loop and every in-flight job have returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.stop()
			m.log.Info("job manager shutting down")
			return
		case q := <-m.queue:
			select {
			case m.sem <- struct{}{}:
			case <-ctx.Done():
				_ = m.reg.Fail(q.id, errors.New("server shutting down"))
				m.stop()
				return
			}
			m.wg.Add(1)
			go func(q queued) {
				defer m.wg.Done()
				defer func() { <-m.sem }()
				m.process(ctx, q)
			}(q)
		}
	}
}

// stop refuses further dispatches and fails whatever is still queued so no
// job stays pending forever.
func (m *Manager) stop() {
	m.mu.Lock()
	m.started = false
	m.mu.Unlock()
	m.drain()
}

func (m *Manager) drain() {
	for {
		select {
		case q := <-m.queue:
			_ = m.reg.Fail(q.id, errors.New("server shutting down"))
		default:
			return
		}
	}
}

func (m *Manager) process(parent context.Context, q queued) {
	entry := m.log.WithFields(logrus.Fields{"job_id": q.id, "kind": q.kind})

	current, err := m.reg.Get(q.id)
	if err != nil || current.Status.Terminal() {
		entry.Info("job was canceled before processing")
		return
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if m.cfg.JobTimeout > 0 {
		ctx, cancel = context.WithTimeout(parent, m.cfg.JobTimeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	defer cancel()

	// Registering the cancel func and leaving pending happen under one lock,
	// so Cancel sees the job either queued or running, never in between.
	m.mu.Lock()
	if err := m.reg.Advance(q.id, 0, ""); err != nil {
		m.mu.Unlock()
		entry.Info("job was canceled before processing")
		return
	}
	m.cancels[q.id] = cancel
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.cancels, q.id)
		m.mu.Unlock()
	}()
	entry.Info("processing job")

	// A nil error means the runner committed its result.
	result, err := m.runSafely(ctx, q)
	if err != nil {
		err = m.describe(ctx, err)
		entry.WithError(err).Warn("job failed")
		_ = m.reg.Fail(q.id, err)
		return
	}

	if err := m.reg.Complete(q.id, result, completedMessage(q.kind)); err != nil {
		entry.WithError(err).Warn("could not mark job completed")
		return
	}
	entry.Info("job completed")
}

func (m *Manager) runSafely(ctx context.Context, q queued) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return q.run(ctx, &Progress{reg: m.reg, id: q.id})
}

// describe replaces context errors with wording a client can act on.
func (m *Manager) describe(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("job exceeded maximum duration of %s", m.cfg.JobTimeout)
	case errors.Is(ctx.Err(), context.Canceled):
		return errJobCanceled
	}
	return err
}

// Dispatch registers a pending job and hands it to the worker loop. It
// never blocks: when the queue is full the job is dropped and ErrQueueFull
// is returned.
func (m *Manager) Dispatch(kind Kind, run RunFunc) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return Job{}, ErrNotRunning
	}

	j := m.reg.Create(kind, queuedMessage(kind))
	select {
	case m.queue <- queued{id: j.ID, kind: kind, run: run}:
	default:
		m.reg.Remove(j.ID)
		return Job{}, ErrQueueFull
	}

	m.log.WithFields(logrus.Fields{"job_id": j.ID, "kind": kind}).Info("job queued")
	return j, nil
}

func (m *Manager) Get(id string) (Job, error) {
	return m.reg.Get(id)
}

func (m *Manager) List() []Job {
	return m.reg.List()
}

// Cancel fails a pending job right away, or signals a running one to stop.
// A running job is marked failed once its runner returns an error; a runner
// that already committed its result still completes.
func (m *Manager) Cancel(id string) error {
	j, err := m.reg.Get(id)
	if err != nil {
		return err
	}
	if j.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrTerminal, id, j.Status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cancel, running := m.cancels[id]; running {
		cancel()
		m.log.WithField("job_id", id).Info("cancellation signal sent to running job")
		return nil
	}

	if err := m.reg.Fail(id, errJobCanceled); err != nil {
		return err
	}
	m.log.WithField("job_id", id).Info("job canceled while queued")
	return nil
}
