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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talex5/build-scheduler/internal/item"
	"github.com/talex5/build-scheduler/internal/poolerr"
)

func basicItem(label string) *item.Basic {
	return item.NewBasic(label, "", 0, 10)
}

func Test_Register_duplicateNameRejected(t *testing.T) {
	p := New("p1", newFakeDAO())
	_, err := p.Register("w1")
	require.NoError(t, err)

	_, err = p.Register("w1")
	assert.ErrorIs(t, err, poolerr.ErrNameTaken)
}

func Test_Submit_dispatchesToWaitingWorker(t *testing.T) {
	p := New("p1", newFakeDAO())
	w, err := p.Register("w1")
	require.NoError(t, err)
	w.SetActive(true)

	result := make(chan item.Item, 1)
	go func() {
		it, err := w.Pop(context.Background())
		assert.NoError(t, err)
		result <- it
	}()

	time.Sleep(30 * time.Millisecond) // let w park in the ready list

	it := basicItem("a")
	p.Submit(it, false)

	select {
	case got := <-result:
		assert.Equal(t, it, got)
	case <-time.After(time.Second):
		t.Fatal("worker never received the submitted item")
	}
}

func Test_Submit_urgentJumpsBacklog(t *testing.T) {
	p := New("p1", newFakeDAO())
	w, err := p.Register("w1")
	require.NoError(t, err)

	a := basicItem("a")
	b := basicItem("b")
	c := basicItem("c")

	p.Submit(a, false)
	p.Submit(b, true)
	p.Submit(c, false)

	w.SetActive(true)

	got1, err := w.Pop(context.Background())
	require.NoError(t, err)
	assert.Same(t, b, got1, "urgent ticket should be served before any non-urgent one")

	got2, err := w.Pop(context.Background())
	require.NoError(t, err)
	assert.Same(t, a, got2, "non-urgent tickets preserve submission order")

	got3, err := w.Pop(context.Background())
	require.NoError(t, err)
	assert.Same(t, c, got3)
}

func Test_Ticket_cancelRemovesFromBacklog(t *testing.T) {
	p := New("p1", newFakeDAO())
	w, err := p.Register("w1")
	require.NoError(t, err)

	kept := basicItem("kept")
	cancelled := basicItem("cancelled")

	p.Submit(kept, false)
	ticket := p.Submit(cancelled, false)

	require.NoError(t, ticket.Cancel())
	assert.ErrorIs(t, ticket.Cancel(), poolerr.ErrNotQueued)

	w.SetActive(true)
	got, err := w.Pop(context.Background())
	require.NoError(t, err)
	assert.Same(t, kept, got)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = w.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "the cancelled ticket must not be delivered")
}

func Test_Ticket_cancelAfterAcceptFails(t *testing.T) {
	p := New("p1", newFakeDAO())
	w, err := p.Register("w1")
	require.NoError(t, err)

	it := basicItem("a")
	ticket := p.Submit(it, false)

	w.SetActive(true)
	_, err = w.Pop(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, ticket.Cancel(), poolerr.ErrNotQueued)
}

func Test_Pop_finishedWorkerReturnsErrFinished(t *testing.T) {
	p := New("p1", newFakeDAO())
	w, err := p.Register("w1")
	require.NoError(t, err)
	w.SetActive(true)

	require.NoError(t, w.Release())

	_, err = w.Pop(context.Background())
	assert.ErrorIs(t, err, poolerr.ErrFinished)
}

func Test_Shutdown_refusesReactivation(t *testing.T) {
	p := New("p1", newFakeDAO())
	w, err := p.Register("w1")
	require.NoError(t, err)
	w.SetActive(true)

	w.Shutdown()
	assert.Equal(t, stateInactive, w.state)

	w.SetActive(true)
	assert.Equal(t, stateInactive, w.state, "a worker marked for shutdown must not be reactivated")
}

func Test_AwaitReconnect_resolvesOnReRegister(t *testing.T) {
	p := New("p1", newFakeDAO())
	w, err := p.Register("w1")
	require.NoError(t, err)
	w.SetActive(true)
	require.NoError(t, w.Release())

	done := make(chan error, 1)
	go func() {
		done <- p.AwaitReconnect(context.Background(), "w1")
	}()

	time.Sleep(20 * time.Millisecond)
	_, err = p.Register("w1")
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("AwaitReconnect never observed the re-registration")
	}
}

func Test_GateActive_pausesAndResumesDispatch(t *testing.T) {
	p := New("p1", newFakeDAO())
	w, err := p.Register("w1")
	require.NoError(t, err)
	w.SetActive(true)

	p.SetGateActive(false)
	assert.False(t, p.GateActive())

	it := basicItem("a")
	p.Submit(it, false)

	result := make(chan item.Item, 1)
	go func() {
		got, err := w.Pop(context.Background())
		assert.NoError(t, err)
		result <- got
	}()

	select {
	case <-result:
		t.Fatal("dispatch must not happen while the gate is closed")
	case <-time.After(50 * time.Millisecond):
	}

	p.SetGateActive(true)

	select {
	case got := <-result:
		assert.Same(t, it, got)
	case <-time.After(time.Second):
		t.Fatal("dispatch never resumed after the gate reopened")
	}
}
