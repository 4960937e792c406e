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

package cachedao

import (
	"context"
	"time"

	"github.com/lindb/common/pkg/logger"

	"github.com/talex5/build-scheduler/internal/concurrent"
)

// Janitor periodically runs maintenance against a DAO's backing store.
// It submits one Vacuum task per tick onto a single-worker pool so that
// a slow VACUUM never overlaps with the next tick.
type Janitor struct {
	dao      *DAO
	interval time.Duration
	pool     concurrent.Pool
	stop     chan struct{}
	log      logger.Logger
}

// NewJanitor builds a janitor for dao that runs every interval. Call Run
// to start it and Stop to shut it down.
func NewJanitor(dao *DAO, interval time.Duration) *Janitor {
	return &Janitor{
		dao:      dao,
		interval: interval,
		pool:     concurrent.NewPool("cache-janitor", 1, interval, concurrent.NewStatistics()),
		stop:     make(chan struct{}),
		log:      logger.GetLogger("CacheDAO", "Janitor"),
	}
}

// Run blocks, ticking every interval until ctx is cancelled or Stop is
// called, submitting a Vacuum task each time.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.pool.Stop()
			return
		case <-j.stop:
			j.pool.Stop()
			return
		case <-ticker.C:
			j.pool.Submit(ctx, concurrent.NewTask(func() {
				if err := j.dao.Vacuum(ctx); err != nil {
					j.log.Warn("vacuum failed", logger.Error(err))
				}
			}, func(err error) {
				j.log.Error("vacuum task panicked", logger.Error(err))
			}))
		}
	}
}

// Stop ends the janitor's ticking loop.
func (j *Janitor) Stop() {
	close(j.stop)
}
