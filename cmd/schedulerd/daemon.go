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

package main

import (
	"context"
	"fmt"
	"sync"

	"time"

	"github.com/lindb/common/pkg/logger"

	"github.com/talex5/build-scheduler/config"
	"github.com/talex5/build-scheduler/internal/cachedao"
	"github.com/talex5/build-scheduler/internal/hostinfo"
	"github.com/talex5/build-scheduler/internal/pool"
)

// daemon wires together the pieces a scheduler process needs regardless
// of how workers eventually reach it: the cache DAO and its janitor, a
// default pool, and a host-resource poller for admin visibility. It has
// no network surface of its own; the optional debug listener is started
// by serve.
type daemon struct {
	cfg     *config.Scheduler
	dao     *cachedao.DAO
	janitor *cachedao.Janitor
	pool    *pool.Pool
	poller  *hostinfo.Poller

	log logger.Logger
}

func newDaemon(cfg *config.Scheduler) (*daemon, error) {
	dao, err := cachedao.Open(cfg.CacheDB.Path, cfg.CacheDB.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	janitor := cachedao.NewJanitor(dao, time.Duration(cfg.CacheDB.VacuumInterval))
	p := pool.New(cfg.Server.DefaultPool, dao)
	collector := hostinfo.NewCollector(cfg.CacheDB.Path)

	return &daemon{
		cfg:     cfg,
		dao:     dao,
		janitor: janitor,
		pool:    p,
		poller:  hostinfo.NewPoller(collector, time.Duration(cfg.HostInfo.PollInterval)),
		log:     logger.GetLogger("Main", "Daemon"),
	}, nil
}

// Run blocks until ctx is cancelled, running the janitor and the
// host-resource poller in the background.
func (d *daemon) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		d.janitor.Run(ctx)
	}()

	go func() {
		defer wg.Done()
		d.poller.Run(ctx, func(snap *hostinfo.Snapshot) {
			if snap.Memory != nil {
				d.log.Info("host snapshot",
					logger.Int64("memUsedPercent", int64(snap.Memory.UsedPercent)))
			}
		})
	}()

	<-ctx.Done()
	wg.Wait()
}

// Close releases the daemon's resources. Safe to call once after Run
// returns.
func (d *daemon) Close() {
	if err := d.dao.Close(); err != nil {
		d.log.Error("close cache db", logger.Error(err))
	}
}
