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

// Package pool implements the placement core described by the system's
// design: backlog, per-worker queues, an active gate, and the policy
// that moves tickets between them. This is the ~50% component; almost
// everything else in the service is a thin adapter over it.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/lindb/common/pkg/logger"

	"github.com/talex5/build-scheduler/internal/item"
	"github.com/talex5/build-scheduler/internal/metrics"
	"github.com/talex5/build-scheduler/internal/poolerr"
)

// CacheDAO is the persistence boundary consulted for locality routing.
// It is the only externally shared resource the core touches directly;
// implementations must tolerate concurrent insert-or-replace and select
// calls without surprising the caller.
type CacheDAO interface {
	MarkCached(pool, hint, worker string)
	QueryCache(pool, hint string) []string
}

// Pool is a named collection of workers and the queues that route work
// to them. All exported methods are safe for concurrent use; internally
// every mutation is serialized under mu, per the cooperative-concurrency
// design — suspension happens only at the wait points
// inside Worker.Pop and Pool.AwaitReconnect.
type Pool struct {
	Name string

	mu      sync.Mutex
	main    poolMain
	workers map[string]*Worker
	gate    *activeGate

	dao   CacheDAO
	stats *metrics.PoolStatistics

	log logger.Logger
}

// New constructs an empty, active pool backed by dao.
func New(name string, dao CacheDAO) *Pool {
	stats := metrics.NewPoolStatistics()
	return &Pool{
		Name:    name,
		main:    newMainBacklog(stats),
		workers: make(map[string]*Worker),
		gate:    newActiveGate(),
		dao:     dao,
		stats:   stats,
		log:     logger.GetLogger("Pool", name),
	}
}

// Stats exposes the pool's counters and gauges for admin/observability
// callers; it is not part of the scheduling policy itself.
func (p *Pool) Stats() *metrics.PoolStatistics { return p.stats }

// awaitActive blocks until the pool's active gate is open, or ctx is
// cancelled. It must never be called with mu held.
func (p *Pool) awaitActive(ctx context.Context) error {
	for {
		p.mu.Lock()
		ch := p.gate.awaitChanLocked()
		p.mu.Unlock()
		if ch == nil {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SetGateActive flips the process-wide pause switch. It never blocks.
func (p *Pool) SetGateActive(active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gate.setLocked(active)
}

// GateActive reports whether the gate currently admits pops.
func (p *Pool) GateActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gate.active
}

// Submit constructs a ticket for it and places it per the placement
// policy below. Submit never blocks on worker availability.
func (p *Pool) Submit(it item.Item, urgent bool) *Ticket {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := newTicket(p, it, urgent)
	p.stats.Submitted.Inc()
	p.addLocked(t)
	return t
}

// addLocked implements the placement policy. Caller must
// hold mu.
func (p *Pool) addLocked(t *Ticket) {
	for {
		switch m := p.main.(type) {
		case *mainBacklog:
			m.backlog.enqueue(t)
			return

		case *mainReady:
			if m.workers.Len() == 0 {
				p.main = newMainBacklog(p.stats)
				continue
			}
			if p.assignPreferredLocked(t) {
				return
			}

			elem := m.workers.Back()
			w := elem.Value.(*Worker)
			m.workers.Remove(elem)
			w.readyElem = nil
			p.stats.ReadyWorkers.Dec()

			if w.state != stateRunning {
				// Stale ready-list entry: the worker moved on since it
				// parked. Discard and retry placement.
				continue
			}

			cost := t.Item.CostEstimate().NonCached
			w.queue.enqueueItem(cost, t)
			p.dao.MarkCached(p.Name, t.Item.CacheHint(), w.name)
			w.wakeLocked()
			return
		}
	}
}

// assignPreferredLocked implements the assign_preferred: it
// steers t onto a cache-warm worker if one exists under the non_cached
// cost cap. Caller must hold mu.
func (p *Pool) assignPreferredLocked(t *Ticket) bool {
	hint := t.Item.CacheHint()
	if hint == "" {
		return false
	}

	candidates := p.dao.QueryCache(p.Name, hint)
	maxWorkload := int64(t.Item.CostEstimate().NonCached)
	best := p.bestWorkerLocked(candidates, maxWorkload)
	if best == nil {
		return false
	}

	cost := t.Item.CostEstimate().Cached
	best.queue.enqueueItem(cost, t)
	best.wakeLocked()
	return true
}

// bestWorkerLocked scans candidates (in caller-supplied order) and picks
// the Running worker within maxWorkload whose current workload is
// highest — packing cache-warm workers up to the cap while leaving cold
// workers free for unseen hints. Ties go to the earliest candidate.
// Caller must hold mu.
func (p *Pool) bestWorkerLocked(candidates []string, maxWorkload int64) *Worker {
	var best *Worker
	var bestLoad int64 = -1
	for _, name := range candidates {
		w, ok := p.workers[name]
		if !ok || w.state != stateRunning {
			continue
		}
		load := w.queue.workload.Load()
		if load > maxWorkload {
			continue
		}
		if load > bestLoad {
			best = w
			bestLoad = load
		}
	}
	return best
}

// Register adds a new, initially paused worker to the pool.
func (p *Pool) Register(name string) (*Worker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.workers[name]; exists {
		return nil, poolerr.ErrNameTaken
	}

	w := newWorker(p, name)
	p.workers[name] = w
	p.stats.ConnectedWorkers.Inc()
	p.stats.PausedWorkers.Inc()
	return w, nil
}

// SetActive flips a worker's running state, by name, for admin callers.
func (p *Pool) SetActive(name string, active bool) error {
	p.mu.Lock()
	w, ok := p.workers[name]
	if !ok {
		p.mu.Unlock()
		return poolerr.ErrUnknownWorker
	}
	p.setActiveLocked(w, active)
	p.mu.Unlock()
	return nil
}

// setActiveLocked implements set_active/set_inactive.
// Caller must hold mu.
func (p *Pool) setActiveLocked(w *Worker, active bool) {
	if active {
		if w.shutdown {
			p.log.Warn("ignoring reactivate of worker marked for shutdown", logger.String("worker", w.name))
			return
		}
		if w.state == stateRunning {
			return
		}
		// Inactive -> Running.
		close(w.ready)
		w.ready = nil
		w.queue = newWorkerQueue(&w.stats.Workload, &w.stats.QueueLen, &p.stats.Cancelled)
		w.wake = make(chan struct{}, 1)
		w.state = stateRunning
		p.stats.PausedWorkers.Dec()
		return
	}

	switch w.state {
	case stateFinished, stateInactive:
		return
	case stateRunning:
		drained := w.queue.drain()
		w.queue = nil
		wake := w.wake
		w.wake = nil
		w.ready = make(chan struct{})
		w.state = stateInactive
		p.stats.PausedWorkers.Inc()

		switch m := p.main.(type) {
		case *mainBacklog:
			for _, t := range drained {
				m.backlog.pushBack(t)
			}
		case *mainReady:
			// No backlog exists to re-park onto; resubmitting via
			// addLocked either finds a free worker or flips main to a
			// fresh Backlog. Replay back-to-front: drained lists the
			// oldest assignment last, and addLocked pushes each ticket
			// to the front of whatever queue it lands in, so feeding
			// the oldest ticket first leaves it nearest the rear,
			// where it is dequeued first.
			for i := len(drained) - 1; i >= 0; i-- {
				p.addLocked(drained[i])
			}
		}

		if wake != nil {
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}
}

// releaseWorker implements Release: set_inactive followed
// by a transition to Finished.
func (p *Pool) releaseWorker(w *Worker) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w.state == stateRunning {
		p.setActiveLocked(w, false)
	}
	if w.state != stateInactive {
		panic("pool: release of worker not in Inactive state")
	}

	w.state = stateFinished
	delete(p.workers, w.name)
	p.stats.ConnectedWorkers.Dec()
	p.stats.PausedWorkers.Dec()

	readyCh := w.ready
	w.ready = nil
	if readyCh != nil {
		close(readyCh)
	}
	return nil
}

// Release finalizes the named worker: it transitions Inactive ->
// Finished, is removed from the pool, and any pop loop parked on it
// returns poolerr.ErrFinished.
func (p *Pool) Release(name string) error {
	p.mu.Lock()
	w, ok := p.workers[name]
	p.mu.Unlock()
	if !ok {
		return poolerr.ErrUnknownWorker
	}
	return p.releaseWorker(w)
}

// Shutdown marks a worker for permanent deactivation: it is immediately
// set inactive and subsequent SetActive(true) calls are refused.
func (p *Pool) Shutdown(name string) error {
	p.mu.Lock()
	w, ok := p.workers[name]
	if !ok {
		p.mu.Unlock()
		return poolerr.ErrUnknownWorker
	}
	w.shutdown = true
	p.setActiveLocked(w, false)
	p.mu.Unlock()
	return nil
}

// AwaitReconnect implements the admin "update" workflow: it polls
// until a worker named name is registered, returning poolerr.ErrTimeout
// if none is within 600 seconds or ctx is done first. A worker that has
// been shut down but not released is still registered under its name,
// so for it AwaitReconnect returns at once; it waits only after the old
// worker has been released.
func (p *Pool) AwaitReconnect(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, 600*time.Second)
	defer cancel()

	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()

	for {
		p.mu.Lock()
		_, exists := p.workers[name]
		p.mu.Unlock()
		if exists {
			return nil
		}
		select {
		case <-poll.C:
		case <-ctx.Done():
			return poolerr.ErrTimeout
		}
	}
}

// Worker looks up a currently registered worker by name, for admin
// callers that already have the name (e.g. from WorkerNames).
func (p *Pool) Worker(name string) (*Worker, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.workers[name]
	return w, ok
}

// WorkerNames returns a snapshot of currently registered worker names,
// for admin "workers" listings.
func (p *Pool) WorkerNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.workers))
	for n := range p.workers {
		names = append(names, n)
	}
	return names
}