// Package transfer implements the Transfer Manager (spec §4.6):
// background upload/download jobs on a bounded worker pool, with
// progress coalescing, cancellation, and completion events.
package transfer

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/s3c/s3c/internal/apperr"
)

// Direction is Up (local→S3) or Down (S3→local) (spec §3).
type Direction int

const (
	Up Direction = iota
	Down
)

// State is one of the Job lifecycle states (spec §3).
type State int

const (
	Queued State = iota
	Running
	Cancelling
	Done
	Failed
)

const maxWorkers = 4

// progressCoalesceInterval bounds progress-message frequency to at most
// 20 Hz (spec §4.6).
const progressCoalesceInterval = 50 * time.Millisecond

// Job is a queued or running transfer (spec §3).
type Job struct {
	ID               string
	Direction        Direction
	Src, Dst         string
	TotalBytes       int64
	TransferredBytes int64
	State            State
	Err              error

	cancel context.CancelFunc
}

// Runner performs the actual byte transfer for a Job. Implementations
// close over an s3gw.Gateway or fsgw.Gateway as appropriate and must check
// ctx between chunks (spec §5's cooperative-cancellation contract).
type Runner func(ctx context.Context, job *Job, report func(transferred int64)) error

// ProgressEvent is posted at most 20 times/sec per job (spec §4.6).
type ProgressEvent struct {
	JobID       string
	Transferred int64
}

// CompletionEvent is posted once per job, success or failure.
type CompletionEvent struct {
	JobID string
	Err   error
}

// Manager runs jobs on a pool bounded to maxWorkers concurrent transfers.
type Manager struct {
	sem *semaphore.Weighted

	mu   sync.Mutex
	jobs map[string]*Job
	// order records submission order so All() is deterministic; ranging
	// over jobs directly would return jobs in random map order, which
	// breaks cursor-based selection in the transfer queue overlay.
	order []string

	Progress   chan ProgressEvent
	Completion chan CompletionEvent
}

// NewManager builds a Manager with the default pool size of 4 (spec
// §4.6, §5 "Bounded resources").
func NewManager() *Manager {
	return &Manager{
		sem:        semaphore.NewWeighted(maxWorkers),
		jobs:       make(map[string]*Job),
		Progress:   make(chan ProgressEvent, 64),
		Completion: make(chan CompletionEvent, 16),
	}
}

// Submit enqueues a Job and immediately starts it once a worker slot is
// free (spec §4.6).
func (m *Manager) Submit(ctx context.Context, direction Direction, src, dst string, totalBytes int64, run Runner) *Job {
	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		ID:         uuid.NewString(),
		Direction:  direction,
		Src:        src,
		Dst:        dst,
		TotalBytes: totalBytes,
		State:      Queued,
		cancel:     cancel,
	}
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	m.mu.Unlock()

	go m.execute(jobCtx, job, run)
	return job
}

func (m *Manager) execute(ctx context.Context, job *Job, run Runner) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.finish(job, apperr.New(apperr.Canceled, ""))
		return
	}
	defer m.sem.Release(1)

	m.mu.Lock()
	job.State = Running
	m.mu.Unlock()

	var lastReport time.Time
	report := func(transferred int64) {
		m.mu.Lock()
		job.TransferredBytes = transferred
		m.mu.Unlock()
		now := time.Now()
		if now.Sub(lastReport) < progressCoalesceInterval {
			return
		}
		lastReport = now
		select {
		case m.Progress <- ProgressEvent{JobID: job.ID, Transferred: transferred}:
		default:
		}
	}

	err := run(ctx, job, report)
	if err == nil {
		select {
		case m.Progress <- ProgressEvent{JobID: job.ID, Transferred: job.TotalBytes}:
		default:
		}
	}
	m.finish(job, err)
}

func (m *Manager) finish(job *Job, err error) {
	m.mu.Lock()
	job.Err = err
	if err != nil {
		job.State = Failed
	} else {
		job.State = Done
		job.TransferredBytes = job.TotalBytes
	}
	m.mu.Unlock()
	m.Completion <- CompletionEvent{JobID: job.ID, Err: err}
}

// Cancel sets the job's cancel token; the running task observes it at the
// next chunk boundary (spec §4.6, §5).
func (m *Manager) Cancel(jobID string) {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if ok {
		job.State = Cancelling
	}
	m.mu.Unlock()
	if ok {
		job.cancel()
	}
}

// Job returns a snapshot of job state by ID.
func (m *Manager) Job(jobID string) (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// All returns a snapshot of every job submitted this session, oldest
// first, for the transfer queue overlay (SPEC_FULL.md supplemented
// feature). Submission order, not map order, so a cursor position into
// this slice stays meaningful across calls.
func (m *Manager) All() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Job, 0, len(m.order))
	for _, id := range m.order {
		if j, ok := m.jobs[id]; ok {
			out = append(out, *j)
		}
	}
	return out
}

// ClearCompleted removes Done/Failed jobs from the manager's bookkeeping
// (SPEC_FULL.md supplemented feature, ClearCompletedTransfers).
func (m *Manager) ClearCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.order[:0]
	for _, id := range m.order {
		j, ok := m.jobs[id]
		if !ok {
			continue
		}
		if j.State == Done || j.State == Failed {
			delete(m.jobs, id)
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
}

// Remove deletes a single job from the manager's bookkeeping regardless
// of its state (SPEC_FULL.md supplemented feature, DeleteFromQueue). A
// job that is still queued or running is canceled as it is removed, since
// Cancel cannot find it afterwards.
func (m *Manager) Remove(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[jobID]; ok {
		j.cancel()
	}
	delete(m.jobs, jobID)
	for i, id := range m.order {
		if id == jobID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// cancelableReader wraps an io.Reader, returning apperr.Canceled once ctx
// is done; Runners should wrap their source stream with this so Put/Write
// calls observe cancellation between chunks without plumbing ctx through
// every io.Reader consumer.
type cancelableReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *cancelableReader) Read(p []byte) (int, error) {
	select {
	case <-c.ctx.Done():
		return 0, apperr.New(apperr.Canceled, "")
	default:
	}
	return c.r.Read(p)
}

// WithCancel wraps r so reads fail fast once ctx is canceled.
func WithCancel(ctx context.Context, r io.Reader) io.Reader {
	return &cancelableReader{ctx: ctx, r: r}
}
