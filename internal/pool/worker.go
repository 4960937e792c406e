// Licensed to LinDB under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. LinDB licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package pool

import (
	"container/list"
	"context"

	"github.com/talex5/build-scheduler/internal/item"
	"github.com/talex5/build-scheduler/internal/metrics"
	"github.com/talex5/build-scheduler/internal/poolerr"
)

// workerState tags the Worker.state sum type.
type workerState int

const (
	stateInactive workerState = iota
	stateRunning
	stateFinished
)

// Worker is one registered worker's record, returned by Pool.Register.
// Every field below is read and written exclusively while holding
// pool.mu; the wake/ready channels are the one exception, since blocking
// on them must happen with the lock released.
type Worker struct {
	name  string
	pool  *Pool
	stats *metrics.WorkerStatistics

	state    workerState
	shutdown bool

	// Valid (non-nil) only while state == stateInactive. Closed by
	// whatever transition leaves Inactive (set_active(true) or release),
	// resolving any pop loop parked on it.
	ready chan struct{}

	// Valid (non-nil) only while state == stateRunning.
	queue *workerQueue
	// wake is a capacity-1 coalescing signal: multiple wakes before the
	// pop loop observes one collapse into a single wakeup, per the
	// condition-variable note.
	wake chan struct{}

	// readyElem is non-nil while this worker is parked in pool.main's
	// Ready list, letting Pop remove itself in O(1) on wake.
	readyElem *list.Element
}

func newWorker(p *Pool, name string) *Worker {
	return &Worker{
		name:  name,
		pool:  p,
		stats: metrics.NewWorkerStatistics(),
		state: stateInactive,
		ready: make(chan struct{}),
	}
}

// Name returns the worker's registered name.
func (w *Worker) Name() string { return w.name }

// Stats exposes the worker's local queue counters for admin callers.
func (w *Worker) Stats() *metrics.WorkerStatistics { return w.stats }

// SetActive flips this worker between Running and Inactive. See
// Pool.setActiveLocked for the full transition semantics.
func (w *Worker) SetActive(active bool) {
	w.pool.mu.Lock()
	defer w.pool.mu.Unlock()
	w.pool.setActiveLocked(w, active)
}

// Shutdown marks the worker for permanent deactivation and deactivates
// it immediately; subsequent SetActive(true) calls are refused.
func (w *Worker) Shutdown() {
	w.pool.mu.Lock()
	w.shutdown = true
	w.pool.setActiveLocked(w, false)
	w.pool.mu.Unlock()
}

// Release finalizes the worker. See Pool.Release.
func (w *Worker) Release() error {
	return w.pool.releaseWorker(w)
}

// wakeLocked delivers a coalescing wake to a Running worker's pop loop.
// Caller must hold pool.mu and the worker must be Running.
func (w *Worker) wakeLocked() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Pop implements the per-worker pop loop. It blocks until
// an item is available, the worker is released, or ctx is cancelled.
func (w *Worker) Pop(ctx context.Context) (item.Item, error) {
	p := w.pool
	for {
		if err := p.awaitActive(ctx); err != nil {
			return nil, err
		}

		p.mu.Lock()
		switch w.state {
		case stateFinished:
			p.mu.Unlock()
			return nil, poolerr.ErrFinished

		case stateInactive:
			readyCh := w.ready
			p.mu.Unlock()
			select {
			case <-readyCh:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}

		case stateRunning:
			if t := w.queue.dequeueOpt(); t != nil {
				p.dao.MarkCached(p.Name, t.Item.CacheHint(), w.name)
				p.stats.Accepted.Inc()
				p.mu.Unlock()
				return t.Item, nil
			}

			switch m := p.main.(type) {
			case *mainReady:
				w.readyElem = m.workers.PushFront(w)
				p.stats.ReadyWorkers.Inc()
				wakeCh := w.wake
				p.mu.Unlock()
				select {
				case <-wakeCh:
					p.mu.Lock()
					if w.readyElem != nil {
						m.workers.Remove(w.readyElem)
						w.readyElem = nil
						p.stats.ReadyWorkers.Dec()
					}
					p.mu.Unlock()
					continue
				case <-ctx.Done():
					p.mu.Lock()
					if w.readyElem != nil {
						m.workers.Remove(w.readyElem)
						w.readyElem = nil
						p.stats.ReadyWorkers.Dec()
					}
					p.mu.Unlock()
					return nil, ctx.Err()
				}

			case *mainBacklog:
				t := m.backlog.dequeue()
				if t == nil {
					p.main = newMainReady()
					p.mu.Unlock()
					continue
				}
				if p.assignPreferredLocked(t) {
					p.mu.Unlock()
					continue
				}
				p.dao.MarkCached(p.Name, t.Item.CacheHint(), w.name)
				p.stats.Accepted.Inc()
				p.mu.Unlock()
				return t.Item, nil
			}
		}
	}
}