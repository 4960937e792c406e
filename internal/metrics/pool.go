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

// Package metrics holds the scheduler's internal counters and gauges.
//
// These are plain atomic counters, not a Prometheus exposition surface —
// the design puts metrics exposition formatting out of scope for
// this core, but the gauges and counters it names (paused workers,
// ready workers, accepted/cancelled tickets, ...) still need to exist
// somewhere for the invariants in the design to be checkable.
// Grounded on internal/concurrent/pool.go's workerPool.statistics idiom.
package metrics

import "go.uber.org/atomic"

// PoolStatistics tracks a single pool's lifecycle and throughput counters.
type PoolStatistics struct {
	ConnectedWorkers atomic.Int64
	PausedWorkers    atomic.Int64
	ReadyWorkers     atomic.Int64

	BacklogHighLength atomic.Int64
	BacklogLowLength  atomic.Int64

	Accepted  atomic.Int64
	Cancelled atomic.Int64
	Submitted atomic.Int64
}

// NewPoolStatistics creates a zeroed statistics block for one pool.
func NewPoolStatistics() *PoolStatistics {
	return &PoolStatistics{}
}

// WorkerStatistics tracks a single worker's local queue.
type WorkerStatistics struct {
	Workload atomic.Int64
	QueueLen atomic.Int64
}

// NewWorkerStatistics creates a zeroed statistics block for one worker.
func NewWorkerStatistics() *WorkerStatistics {
	return &WorkerStatistics{}
}