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
	"sync"

	"github.com/google/uuid"

	"github.com/talex5/build-scheduler/internal/item"
	"github.com/talex5/build-scheduler/internal/poolerr"
)

// Ticket is the handle returned to a submitter.
//
// Invariant: a live ticket sits in exactly one queue (the backlog or a
// single worker's queue) and carries a non-nil detach hook; an accepted
// ticket has no detach hook; a cancelled ticket has no detach hook and is
// in no queue. detachLocked must only ever be invoked while the owning
// pool's mutex is held — it mutates whichever list node currently owns
// this ticket.
type Ticket struct {
	// ID is surfaced in admin/diagnostic output; it plays no role in
	// scheduling.
	ID string

	Item   item.Item
	Urgent bool

	pool *Pool

	mu           sync.Mutex
	detachLocked func()
}

func newTicket(p *Pool, it item.Item, urgent bool) *Ticket {
	return &Ticket{
		ID:     uuid.NewString(),
		Item:   it,
		Urgent: urgent,
		pool:   p,
	}
}

// setDetachLocked installs or clears the detach hook. Callers must already
// hold t.pool.mu.
func (t *Ticket) setDetachLocked(fn func()) {
	t.mu.Lock()
	t.detachLocked = fn
	t.mu.Unlock()
}

// clearDetachLocked removes the detach hook without invoking it — used
// when a ticket is accepted by a worker (it leaves its queue by being
// handed to the caller, not by cancellation).
func (t *Ticket) clearDetachLocked() {
	t.setDetachLocked(nil)
}

// queuedLocked reports whether the ticket still carries a detach hook.
// Callers must already hold t.pool.mu.
func (t *Ticket) queuedLocked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.detachLocked != nil
}

// Cancel removes the ticket from wherever it currently lives. It fails
// with poolerr.ErrNotQueued if the ticket has already been accepted,
// already cancelled, or was never queued.
func (t *Ticket) Cancel() error {
	t.pool.mu.Lock()
	defer t.pool.mu.Unlock()

	t.mu.Lock()
	fn := t.detachLocked
	t.detachLocked = nil
	t.mu.Unlock()

	if fn == nil {
		return poolerr.ErrNotQueued
	}
	fn()
	return nil
}