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

	"github.com/talex5/build-scheduler/internal/metrics"
)

// poolMain is the Pool.main sum type: either a Backlog
// holding unclaimed tickets, or a Ready list of workers parked waiting
// for work. Invariant: at least one of "workers waiting in Ready" and
// "tickets sitting in Backlog" is empty at any time.
type poolMain interface {
	isPoolMain()
}

type mainBacklog struct {
	backlog *backlog
}

func (*mainBacklog) isPoolMain() {}

func newMainBacklog(stats *metrics.PoolStatistics) *mainBacklog {
	return &mainBacklog{backlog: newBacklog(stats)}
}

// mainReady holds a FIFO of *Worker values parked waiting for work; new
// parkers push to the front (see Worker.Pop), so the pool's "rear worker"
// (oldest waiter) sits at workers.Back().
type mainReady struct {
	workers list.List
}

func (*mainReady) isPoolMain() {}

func newMainReady() *mainReady {
	r := &mainReady{}
	r.workers.Init()
	return r
}