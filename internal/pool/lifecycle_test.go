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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talex5/build-scheduler/internal/item"
)

// Test_Deactivate_requeuesAssignedWork exercises set_active(false) on a
// worker that already has a ticket sitting in its own queue: the ticket
// must survive, landing back in the backlog, and be deliverable again
// once some worker reactivates and pops it.
func Test_Deactivate_requeuesAssignedWork(t *testing.T) {
	p := New("p1", newFakeDAO())
	w1, err := p.Register("w1")
	require.NoError(t, err)
	w1.SetActive(true)

	it := item.NewBasic("a", "", 0, 10)
	ticket := newTicket(p, it, false)

	p.mu.Lock()
	w1.queue.enqueueItem(it.CostEstimate().NonCached, ticket)
	p.mu.Unlock()

	assert.EqualValues(t, 1, w1.Stats().QueueLen.Load())

	w1.SetActive(false)

	assert.EqualValues(t, 0, w1.Stats().QueueLen.Load())
	assert.EqualValues(t, 1, p.Stats().BacklogLowLength.Load())

	w1.SetActive(true)
	got, err := w1.Pop(context.Background())
	require.NoError(t, err)
	assert.Same(t, it, got)
}

func Test_Release_cleansUpWorkerState(t *testing.T) {
	p := New("p1", newFakeDAO())
	w1, err := p.Register("w1")
	require.NoError(t, err)
	w1.SetActive(true)

	assert.EqualValues(t, 1, p.Stats().ConnectedWorkers.Load())

	require.NoError(t, w1.Release())

	assert.EqualValues(t, 0, p.Stats().ConnectedWorkers.Load())
	_, ok := p.Worker("w1")
	assert.False(t, ok)
}

func Test_WorkerNames_reflectsRegistrations(t *testing.T) {
	p := New("p1", newFakeDAO())
	_, err := p.Register("w1")
	require.NoError(t, err)
	_, err = p.Register("w2")
	require.NoError(t, err)

	names := p.WorkerNames()
	assert.ElementsMatch(t, []string{"w1", "w2"}, names)
}
