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

	"github.com/talex5/build-scheduler/internal/metrics"
)

// backlog is the pool-wide holding area for tickets that no worker has yet
// taken: two priority FIFOs, urgent ("high") and non-urgent ("low").
//
// enqueue pushes at the front of the relevant list, so a freshly submitted
// ticket queues behind older same-priority work; push_back pushes at the
// rear, so tickets re-parked after a worker disappears are dequeued ahead
// of anything submitted after them. dequeue always pops from the rear, so
// same-priority submissions leave in submission order.
//
// Not safe for concurrent use on its own — every method assumes the
// owning Pool's mutex is already held.
type backlog struct {
	high list.List
	low  list.List

	stats *metrics.PoolStatistics
}

func newBacklog(stats *metrics.PoolStatistics) *backlog {
	b := &backlog{stats: stats}
	b.high.Init()
	b.low.Init()
	return b
}

func (b *backlog) empty() bool {
	return b.high.Len() == 0 && b.low.Len() == 0
}

func (b *backlog) listFor(t *Ticket) *list.List {
	if t.Urgent {
		return &b.high
	}
	return &b.low
}

func (b *backlog) gaugeFor(t *Ticket) *atomic.Int64 {
	if t.Urgent {
		return &b.stats.BacklogHighLength
	}
	return &b.stats.BacklogLowLength
}

// enqueue pushes t at the front of its priority list, installing a detach
// hook that removes it again on cancellation.
func (b *backlog) enqueue(t *Ticket) {
	lst := b.listFor(t)
	elem := lst.PushFront(t)
	b.gaugeFor(t).Inc()
	b.installDetach(t, lst, elem)
}

// pushBack pushes t at the rear of its priority list — used when
// re-parking work that was already queued elsewhere (preserves order
// against tickets submitted after it).
func (b *backlog) pushBack(t *Ticket) {
	lst := b.listFor(t)
	elem := lst.PushBack(t)
	b.gaugeFor(t).Inc()
	b.installDetach(t, lst, elem)
}

func (b *backlog) installDetach(t *Ticket, lst *list.List, elem *list.Element) {
	gauge := b.gaugeFor(t)
	stats := b.stats
	t.setDetachLocked(func() {
		lst.Remove(elem)
		gauge.Dec()
		stats.Cancelled.Inc()
	})
}

// dequeue returns the oldest urgent ticket if any, else the oldest
// non-urgent ticket, else nil. The returned ticket's detach hook is
// cleared (it is leaving the backlog for a worker, not being cancelled).
func (b *backlog) dequeue() *Ticket {
	if t := b.dequeueFrom(&b.high, &b.stats.BacklogHighLength); t != nil {
		return t
	}
	return b.dequeueFrom(&b.low, &b.stats.BacklogLowLength)
}

func (b *backlog) dequeueFrom(lst *list.List, gauge *atomic.Int64) *Ticket {
	elem := lst.Back()
	if elem == nil {
		return nil
	}
	lst.Remove(elem)
	gauge.Dec()
	t := elem.Value.(*Ticket)
	t.clearDetachLocked()
	return t
}