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

// Package config defines the on-disk and environment configuration
// surface for the scheduler daemon and its admin console.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v7"
	"github.com/lindb/common/pkg/logger"
	"github.com/lindb/common/pkg/ltoml"
)

const (
	// EnvPrefix is prepended to every environment variable name this
	// package recognizes, e.g. SCHEDULER_POOL_NAME.
	EnvPrefix = "SCHEDULER_"

	defaultCacheDir = "scheduler"
)

// CacheDB configures the SQLite-backed cache-locality store.
type CacheDB struct {
	Path           string         `env:"PATH" toml:"path"`
	CacheSize      int            `env:"CACHE_SIZE" toml:"cache-size"`
	VacuumInterval ltoml.Duration `env:"VACUUM_INTERVAL" toml:"vacuum-interval"`
}

// TOML renders the [cache-db] section.
func (c *CacheDB) TOML() string {
	return fmt.Sprintf(`
## SQLite-backed cache-locality store.
[cache-db]
## path to the sqlite database file.
## Default: %s
## Env: %sCACHE_DB_PATH
path = "%s"
## number of (pool, cache-hint) lookups kept warm in memory.
## Default: %d
## Env: %sCACHE_DB_CACHE_SIZE
cache-size = %d
## how often the janitor VACUUMs the database.
## Default: %s
## Env: %sCACHE_DB_VACUUM_INTERVAL
vacuum-interval = "%s"`,
		c.Path, EnvPrefix, c.Path,
		c.CacheSize, EnvPrefix, c.CacheSize,
		c.VacuumInterval.String(), EnvPrefix, c.VacuumInterval.String(),
	)
}

// HostInfo configures the periodic host-resource snapshot used by the
// admin console; it never influences placement.
type HostInfo struct {
	PollInterval ltoml.Duration `env:"POLL_INTERVAL" toml:"poll-interval"`
}

// TOML renders the [host-info] section.
func (h *HostInfo) TOML() string {
	return fmt.Sprintf(`
## Host resource snapshot for admin display.
[host-info]
## how often the host-resource snapshot refreshes.
## Default: %s
## Env: %sHOST_INFO_POLL_INTERVAL
poll-interval = "%s"`,
		h.PollInterval.String(), EnvPrefix, h.PollInterval.String(),
	)
}

// Server configures the daemon's admin surfaces: a pprof/fgprof debug
// listener and the name of the daemon's pool.
type Server struct {
	DefaultPool  string `env:"DEFAULT_POOL" toml:"default-pool"`
	DebugAddr    string `env:"DEBUG_ADDR" toml:"debug-addr"`
	EnableFgprof bool   `env:"ENABLE_FGPROF" toml:"enable-fgprof"`
}

// TOML renders the [server] section.
func (s *Server) TOML() string {
	return fmt.Sprintf(`
## Daemon-wide server settings.
[server]
## name of the pool new workers register into when none is specified.
## Default: %s
## Env: %sSERVER_DEFAULT_POOL
default-pool = "%s"
## listen address for the debug/fgprof HTTP endpoint; empty disables it.
## Default: %s
## Env: %sSERVER_DEBUG_ADDR
debug-addr = "%s"
## expose /debug/fgprof alongside the standard net/http/pprof handlers.
## Default: %v
## Env: %sSERVER_ENABLE_FGPROF
enable-fgprof = %v`,
		s.DefaultPool, EnvPrefix, s.DefaultPool,
		s.DebugAddr, EnvPrefix, s.DebugAddr,
		s.EnableFgprof, EnvPrefix, s.EnableFgprof,
	)
}

// Scheduler is the top-level configuration for the scheduler daemon.
type Scheduler struct {
	Server   Server   `envPrefix:"SERVER_" toml:"server"`
	CacheDB  CacheDB  `envPrefix:"CACHE_DB_" toml:"cache-db"`
	HostInfo HostInfo `envPrefix:"HOST_INFO_" toml:"host-info"`
	Logging  logger.Setting `envPrefix:"LOGGING_" toml:"logging"`
}

// TOML renders the complete config file.
func (s *Scheduler) TOML() string {
	return fmt.Sprintf(`## Scheduler daemon configuration.
%s
%s
%s
%s`,
		s.Server.TOML(),
		s.CacheDB.TOML(),
		s.HostInfo.TOML(),
		s.Logging.TOML(trimTrailingUnderscore(EnvPrefix)),
	)
}

func trimTrailingUnderscore(s string) string {
	if len(s) > 0 && s[len(s)-1] == '_' {
		return s[:len(s)-1]
	}
	return s
}

// NewDefault returns a Scheduler config with sane defaults for local
// development: a cache db under the OS temp dir and a ten-minute vacuum
// cadence.
func NewDefault() *Scheduler {
	dir := filepath.Join(os.TempDir(), defaultCacheDir)
	return &Scheduler{
		Server: Server{
			DefaultPool: "default",
			DebugAddr:   "",
		},
		CacheDB: CacheDB{
			Path:           filepath.Join(dir, "cache.db"),
			CacheSize:      1024,
			VacuumInterval: ltoml.Duration(10 * time.Minute),
		},
		HostInfo: HostInfo{
			PollInterval: ltoml.Duration(30 * time.Second),
		},
		Logging: logger.NewDefaultSetting(),
	}
}

// Load decodes path as TOML into a fresh default Scheduler, then overlays
// any SCHEDULER_-prefixed environment variables on top.
func Load(path string) (*Scheduler, error) {
	cfg := NewDefault()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: apply environment overrides: %w", err)
	}
	return cfg, nil
}
