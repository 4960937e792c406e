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

// Package concurrent provides a small goroutine pool for background
// maintenance work (the cache DAO janitor, principally) that should not
// spin up an unbounded number of goroutines as tasks are scheduled.
package concurrent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/lindb/common/pkg/logger"
)

const (
	// size of the queue that workers register their availability to the dispatcher.
	readyWorkerQueueSize = 32
	// size of the tasks queue
	tasksCapacity = 8
	// sleeps in this interval when there are no available workers
	sleepInterval = time.Millisecond * 5
)

// Statistics tracks a pool's worker and task counters.
type Statistics struct {
	WorkersAlive   atomic.Int64
	WorkersCreated atomic.Int64
	WorkersKilled  atomic.Int64
	TasksConsumed  atomic.Int64
	TasksRejected  atomic.Int64
	TasksPanic     atomic.Int64
}

// NewStatistics returns a zeroed statistics block.
func NewStatistics() *Statistics { return &Statistics{} }

// Task represents a task function to be executed by a worker (goroutine).
type Task struct {
	// handle executes the task function.
	handle func()
	// panicHandle executes callback if task happens panic.
	panicHandle func(err error)

	createTime time.Time
}

// NewTask creates a task. panicHandle may be nil.
func NewTask(handle func(), panicHandle func(err error)) *Task {
	return &Task{
		handle:      handle,
		panicHandle: panicHandle,
		createTime:  time.Now(),
	}
}

func (t *Task) Exec() { t.handle() }

// Pool represents the goroutine pool that executes submitted tasks.
type Pool interface {
	// Submit enqueues a callable task for a worker to execute.
	//
	// Each submitted task is immediately given to a ready worker. If
	// there are no available workers, the dispatcher starts a new
	// worker, until the maximum number of workers are added.
	//
	// After the maximum number of workers are running, and no workers
	// are ready, tasks wait in a buffer of tasksCapacity; once that is
	// full, Submit blocks until the dispatcher takes one or ctx is done.
	Submit(ctx context.Context, task *Task)
	// Stopped returns true if this pool has been stopped.
	Stopped() bool
	// Stop stops all goroutines gracefully; all pending tasks are
	// finished before exit.
	Stop()
}

// workerPool is a pool for goroutines.
type workerPool struct {
	name                string
	maxWorkers          int
	tasks               chan *Task    // tasks channel
	readyWorkers        chan *worker  // available worker
	idleTimeout         time.Duration // idle goroutine recycle time
	onDispatcherStopped chan struct{} // signal that dispatcher is stopped
	stopped             atomic.Bool   // mark if the pool is closed or not
	ctx                 context.Context
	cancel              context.CancelFunc

	statistics *Statistics

	logger logger.Logger
}

// NewPool returns a new worker pool. maxWorkers is the maximum number of
// workers that will execute tasks concurrently.
func NewPool(name string, maxWorkers int, idleTimeout time.Duration, statistics *Statistics) Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if idleTimeout <= 0 {
		idleTimeout = time.Second * 5
	}
	ctx, cancel := context.WithCancel(context.Background())
	pool := &workerPool{
		name:                name,
		maxWorkers:          maxWorkers,
		tasks:               make(chan *Task, tasksCapacity),
		readyWorkers:        make(chan *worker, readyWorkerQueueSize),
		idleTimeout:         idleTimeout,
		onDispatcherStopped: make(chan struct{}),
		ctx:                 ctx,
		cancel:              cancel,
		statistics:          statistics,
		logger:              logger.GetLogger("Pool", name),
	}
	go pool.dispatch()
	return pool
}

func (p *workerPool) Submit(ctx context.Context, task *Task) {
	if task.handle == nil || p.Stopped() {
		return
	}
	select {
	case <-ctx.Done():
		p.statistics.TasksRejected.Inc()
		return
	case p.tasks <- task:
	}
}

// mustGetWorker makes sure that a ready worker is returned.
func (p *workerPool) mustGetWorker() *worker {
	var w *worker
	for {
		select {
		case w = <-p.readyWorkers:
			return w
		default:
			if p.statistics.WorkersAlive.Load() >= int64(p.maxWorkers) {
				time.Sleep(sleepInterval)
				continue
			}
			return newWorker(p)
		}
	}
}

func (p *workerPool) dispatch() {
	defer func() {
		p.onDispatcherStopped <- struct{}{}
	}()

	idleTimeoutTimer := time.NewTimer(p.idleTimeout)
	defer idleTimeoutTimer.Stop()
	var (
		w    *worker
		task *Task
	)

	for {
		idleTimeoutTimer.Reset(p.idleTimeout)
		select {
		case <-p.ctx.Done():
			return
		case task = <-p.tasks:
			w = p.mustGetWorker()
			w.execute(task)
		case <-idleTimeoutTimer.C:
			p.idle()
		}
	}
}

func (p *workerPool) idle() {
	if p.statistics.WorkersAlive.Load() > 0 {
		select {
		case w := <-p.readyWorkers:
			w.stop(func() {})
		case <-p.ctx.Done():
		default:
		}
	}
}

func (p *workerPool) Stopped() bool {
	return p.stopped.Load()
}

func (p *workerPool) stopWorkers() {
	var wg sync.WaitGroup
	for p.statistics.WorkersAlive.Load() > 0 {
		wg.Add(1)
		w := <-p.readyWorkers
		w.stop(func() {
			wg.Done()
		})
	}
	wg.Wait()
}

func (p *workerPool) consumedRemainingTasks() {
	for {
		select {
		case task := <-p.tasks:
			p.execTask(task)
		default:
			return
		}
	}
}

func (p *workerPool) execTask(task *Task) {
	defer func() {
		if r := recover(); r != nil {
			p.statistics.TasksPanic.Inc()
			err := fmt.Errorf("panic: %v", r)
			p.logger.Error("panic when execute task", logger.Error(err))
			if task.panicHandle != nil {
				task.panicHandle(err)
			}
		}
	}()
	task.Exec()
	p.statistics.TasksConsumed.Inc()
}

// Stop tells the dispatcher to exit with pending tasks done.
func (p *workerPool) Stop() {
	if p.stopped.Swap(true) {
		return
	}
	p.cancel()
	<-p.onDispatcherStopped
	p.stopWorkers()
	p.consumedRemainingTasks()
}

// worker represents the worker that executes the task.
type worker struct {
	pool   *workerPool
	tasks  chan *Task
	stopCh chan struct{}
}

func newWorker(pool *workerPool) *worker {
	w := &worker{
		pool:   pool,
		tasks:  make(chan *Task),
		stopCh: make(chan struct{}),
	}
	w.pool.statistics.WorkersAlive.Inc()
	w.pool.statistics.WorkersCreated.Inc()
	go w.process()
	return w
}

func (w *worker) execute(task *Task) {
	w.tasks <- task
}

func (w *worker) stop(callable func()) {
	defer callable()
	w.stopCh <- struct{}{}
	w.pool.statistics.WorkersKilled.Inc()
	w.pool.statistics.WorkersAlive.Dec()
}

func (w *worker) process() {
	var task *Task
	for {
		select {
		case <-w.stopCh:
			return
		case task = <-w.tasks:
			w.pool.execTask(task)
			w.pool.readyWorkers <- w
		}
	}
}
