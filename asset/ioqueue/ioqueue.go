// Package ioqueue implements the engine's IO concurrency layer: a fixed
// worker pool drains a request queue (file reads) and posts completions
// to a thread-safe queue the main thread drains at its own pace, keeping
// blocking file IO off the simulation scheduler's worker pool.
package ioqueue

import (
	"context"
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sync/semaphore"

	"github.com/hive-engine/hive/internal/hivelog"
)

// Request is one unit of IO work: read path fully and hand the bytes (or
// an error) to Completion.
type Request struct {
	Path string
	Read func() ([]byte, error)
}

// Completion is a finished request's outcome, posted to the completion
// queue for the main thread to drain.
type Completion struct {
	Path string
	Data []byte
	Err  error
}

// DefaultWorkerCount returns a worker count derived from the detected
// logical core count, matching the scheduler's own cpuid-based default
// so IO and simulation workers scale together on the host machine.
func DefaultWorkerCount() int {
	n := cpuid.CPU.LogicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Queue runs a fixed pool of IO workers draining submitted requests and
// posting their results to a completion queue drained by Poll.
type Queue struct {
	sem        *semaphore.Weighted
	wg         sync.WaitGroup
	mu         sync.Mutex
	completed  []Completion
	cancelled  map[string]struct{}
	log        *hivelog.Logger
}

// New returns a Queue with workers concurrent IO slots.
func New(workers int, log *hivelog.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = hivelog.Nop()
	}
	return &Queue{
		sem:       semaphore.NewWeighted(int64(workers)),
		cancelled: make(map[string]struct{}),
		log:       log,
	}
}

// Submit dispatches req to a worker, blocking only long enough to
// acquire a free slot; the actual read runs on the worker.
func (q *Queue) Submit(ctx context.Context, req Request) error {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	q.mu.Lock()
	_, cancelled := q.cancelled[req.Path]
	q.mu.Unlock()
	if cancelled {
		q.sem.Release(1)
		q.clearCancel(req.Path)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer q.sem.Release(1)
		data, err := req.Read()
		q.mu.Lock()
		_, cancelled := q.cancelled[req.Path]
		delete(q.cancelled, req.Path)
		if !cancelled {
			q.completed = append(q.completed, Completion{Path: req.Path, Data: data, Err: err})
		}
		q.mu.Unlock()
	}()
	return nil
}

// Cancel marks path's in-flight or not-yet-dispatched request to be
// dropped instead of posted to the completion queue. A request already
// past its read when Cancel is called still completes normally — only
// cancellation issued before dispatch or before the read finishes takes
// effect.
func (q *Queue) Cancel(path string) {
	q.mu.Lock()
	q.cancelled[path] = struct{}{}
	q.mu.Unlock()
}

func (q *Queue) clearCancel(path string) {
	q.mu.Lock()
	delete(q.cancelled, path)
	q.mu.Unlock()
}

// Poll drains and returns every completion posted since the last Poll,
// for the main thread to process.
func (q *Queue) Poll() []Completion {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.completed) == 0 {
		return nil
	}
	out := q.completed
	q.completed = nil
	return out
}

// Wait blocks until every submitted request has finished, for tests and
// orderly shutdown.
func (q *Queue) Wait() {
	q.wg.Wait()
}
