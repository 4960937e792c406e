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

// Package hostinfo snapshots resource usage of the host the scheduler
// runs on, for admin display. It plays no role in scheduling policy —
// worker placement never consults it — it exists purely so an operator
// using the admin console can see whether that host is under memory or
// disk pressure.
package hostinfo

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/lindb/common/pkg/logger"
)

// Snapshot is one point-in-time read of host resource usage.
type Snapshot struct {
	Memory *mem.VirtualMemoryStat
	CPU    []cpu.TimesStat
	Disk   *disk.UsageStat
	Net    []net.IOCountersStat
}

// Collector gathers a Snapshot. Its four getters are swappable fields,
// not interface methods, so tests can inject failures for any single
// sub-collection without constructing a full gopsutil environment.
type Collector struct {
	diskPath string

	MemoryStatGetter    func() (*mem.VirtualMemoryStat, error)
	CPUStatGetter       func() ([]cpu.TimesStat, error)
	DiskUsageStatGetter func(ctx context.Context, path string) (*disk.UsageStat, error)
	NetStatGetter       func(ctx context.Context) ([]net.IOCountersStat, error)

	log logger.Logger
}

// NewCollector returns a Collector reporting disk usage for diskPath
// (typically the cache DAO's data directory).
func NewCollector(diskPath string) *Collector {
	return &Collector{
		diskPath:            diskPath,
		MemoryStatGetter:    mem.VirtualMemory,
		CPUStatGetter:       func() ([]cpu.TimesStat, error) { return cpu.Times(false) },
		DiskUsageStatGetter: disk.UsageWithContext,
		NetStatGetter:       net.IOCountersWithContext,
		log:                 logger.GetLogger("HostInfo", "Collector"),
	}
}

// Collect gathers one Snapshot. A failure in any single sub-collection
// is logged and leaves the corresponding field nil/empty rather than
// aborting the whole snapshot.
func (c *Collector) Collect(ctx context.Context) *Snapshot {
	snap := &Snapshot{}

	if v, err := c.MemoryStatGetter(); err != nil {
		c.log.Warn("memory stat collection failed", logger.Error(err))
	} else {
		snap.Memory = v
	}

	if v, err := c.CPUStatGetter(); err != nil {
		c.log.Warn("cpu stat collection failed", logger.Error(err))
	} else {
		snap.CPU = v
	}

	if v, err := c.DiskUsageStatGetter(ctx, c.diskPath); err != nil {
		c.log.Warn("disk usage collection failed", logger.String("path", c.diskPath), logger.Error(err))
	} else {
		snap.Disk = v
	}

	if v, err := c.NetStatGetter(ctx); err != nil {
		c.log.Warn("net stat collection failed", logger.Error(err))
	} else {
		snap.Net = v
	}

	return snap
}

// Poller runs Collect on a fixed interval and hands each Snapshot to fn,
// until ctx is cancelled.
type Poller struct {
	collector *Collector
	interval  time.Duration
}

// NewPoller builds a Poller around collector.
func NewPoller(collector *Collector, interval time.Duration) *Poller {
	return &Poller{collector: collector, interval: interval}
}

// Run blocks, invoking fn with a fresh Snapshot every interval until ctx
// is done.
func (p *Poller) Run(ctx context.Context, fn func(*Snapshot)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(p.collector.Collect(ctx))
		}
	}
}
