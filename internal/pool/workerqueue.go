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

	"go.uber.org/atomic"
)

// assignment is one entry in a worker's local queue: a ticket paired with
// the cost it was costed at when assigned (cached or non_cached, depending
// on how it was routed there).
type assignment struct {
	cost   uint32
	ticket *Ticket
}

// workerQueue is a single worker's local FIFO of assigned work: newest at
// the front, consumed from the rear. workload is always
// kept equal to the sum of the cost fields currently queued.
//
// Not safe for concurrent use on its own — every method assumes the
// owning Pool's mutex is already held.
type workerQueue struct {
	list.List

	workload  *atomic.Int64
	queueLen  *atomic.Int64
	cancelled *atomic.Int64
}

func newWorkerQueue(workload, queueLen, cancelled *atomic.Int64) *workerQueue {
	wq := &workerQueue{workload: workload, queueLen: queueLen, cancelled: cancelled}
	wq.Init()
	return wq
}

func (wq *workerQueue) empty() bool {
	return wq.Len() == 0
}

// enqueueItem appends (cost, ticket) to the front of the queue and installs
// a detach hook that undoes the enqueue on cancellation.
func (wq *workerQueue) enqueueItem(cost uint32, t *Ticket) {
	elem := wq.PushFront(&assignment{cost: cost, ticket: t})
	wq.workload.Add(int64(cost))
	wq.queueLen.Inc()

	workload := wq.workload
	queueLen := wq.queueLen
	cancelled := wq.cancelled
	list := &wq.List
	t.setDetachLocked(func() {
		list.Remove(elem)
		workload.Sub(int64(cost))
		queueLen.Dec()
		cancelled.Inc()
	})
}

// dequeueOpt pops from the rear, clearing the returned ticket's detach
// hook and decrementing workload. Returns nil if the queue is empty.
func (wq *workerQueue) dequeueOpt() *Ticket {
	elem := wq.Back()
	if elem == nil {
		return nil
	}
	wq.Remove(elem)
	a := elem.Value.(*assignment)
	wq.workload.Sub(int64(a.cost))
	wq.queueLen.Dec()
	a.ticket.clearDetachLocked()
	return a.ticket
}

// drain removes and returns every queued ticket, front to back (newest
// assignment first), clearing each one's detach hook as it goes. Used
// when a worker leaves Running and its assignments must be re-parked
// elsewhere.
//
// Callers re-parking onto a Backlog via push_back should replay the
// result in this same front-to-back order, which preserves the worker
// queue's own rear-to-front dequeue order once pushed. Callers
// re-submitting via add (which pushes to the front) should replay it
// back to front instead — see Pool.setActiveLocked(false).
func (wq *workerQueue) drain() []*Ticket {
	var out []*Ticket
	for elem := wq.Front(); elem != nil; elem = wq.Front() {
		wq.Remove(elem)
		a := elem.Value.(*assignment)
		wq.workload.Sub(int64(a.cost))
		wq.queueLen.Dec()
		a.ticket.clearDetachLocked()
		out = append(out, a.ticket)
	}
	return out
}