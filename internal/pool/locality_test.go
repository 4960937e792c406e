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
)

func Test_Locality_routesToPriorWorkerUnderCap(t *testing.T) {
	dao := newFakeDAO()
	p := New("p1", dao)

	w1, err := p.Register("w1")
	require.NoError(t, err)
	w1.SetActive(true)

	w2, err := p.Register("w2")
	require.NoError(t, err)
	w2.SetActive(true)

	dao.MarkCached("p1", "hintX", "w2")

	it := item.NewBasic("a", "hintX", 5, 50)
	p.Submit(it, false)

	// w2 should receive it directly from its own queue with no blocking.
	got, err := w2.Pop(context.Background())
	require.NoError(t, err)
	assert.Same(t, it, got)

	// w1 was never a candidate for this hint; it should find nothing.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = w1.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func Test_Locality_capSkipsOverloadedWorker(t *testing.T) {
	dao := newFakeDAO()
	p := New("p1", dao)

	w1, err := p.Register("w1")
	require.NoError(t, err)
	w1.SetActive(true)

	w2, err := p.Register("w2")
	require.NoError(t, err)
	w2.SetActive(true)
	w2.Stats().Workload.Add(1000) // far over any cost cap used below

	dao.MarkCached("p1", "hintX", "w2")

	it := item.NewBasic("a", "hintX", 5, 50)
	p.Submit(it, false)

	// w2 is over the non-cached cost cap, so whichever worker pops the
	// backlog first keeps the ticket instead of steering it to w2.
	got, err := w1.Pop(context.Background())
	require.NoError(t, err)
	assert.Same(t, it, got)
}

func Test_Locality_emptyHintNeverSteers(t *testing.T) {
	dao := newFakeDAO()
	p := New("p1", dao)

	w1, err := p.Register("w1")
	require.NoError(t, err)
	w1.SetActive(true)

	it := item.NewBasic("a", "", 5, 50)
	p.Submit(it, false)

	got, err := w1.Pop(context.Background())
	require.NoError(t, err)
	assert.Same(t, it, got)
}
