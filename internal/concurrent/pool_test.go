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

package concurrent

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Pool_Submit_runsTasks(t *testing.T) {
	p := NewPool("t", 4, time.Second, NewStatistics())
	defer p.Stop()

	var n int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		p.Submit(context.Background(), NewTask(func() {
			atomic.AddInt64(&n, 1)
			wg.Done()
		}, nil))
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks did not complete")
	}
	assert.EqualValues(t, 20, atomic.LoadInt64(&n))
}

func Test_Pool_Submit_recoversPanic(t *testing.T) {
	stats := NewStatistics()
	p := NewPool("t", 2, time.Second, stats)
	defer p.Stop()

	caught := make(chan error, 1)
	p.Submit(context.Background(), NewTask(func() {
		panic("boom")
	}, func(err error) {
		caught <- err
	}))

	select {
	case err := <-caught:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("panic handler never ran")
	}
}

func Test_Pool_Submit_afterStopIsNoop(t *testing.T) {
	p := NewPool("t", 1, time.Second, NewStatistics())
	p.Stop()
	assert.True(t, p.Stopped())

	ran := false
	p.Submit(context.Background(), NewTask(func() { ran = true }, nil))
	time.Sleep(10 * time.Millisecond)
	assert.False(t, ran)
}

func Test_Pool_Stop_drainsPendingTasks(t *testing.T) {
	stats := NewStatistics()
	p := NewPool("t", 1, time.Second, stats)

	var n int64
	for i := 0; i < 5; i++ {
		p.Submit(context.Background(), NewTask(func() {
			atomic.AddInt64(&n, 1)
			time.Sleep(time.Millisecond)
		}, nil))
	}
	p.Stop()
	assert.EqualValues(t, 5, atomic.LoadInt64(&n))
}
