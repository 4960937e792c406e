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

// Package cachedao persists the cache-locality table: which workers
// have, at some point, accepted an item carrying a given cache hint.
// It is the only state that survives a scheduler restart.
package cachedao

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"github.com/lindb/common/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS cached (
	pool       TEXT NOT NULL,
	cache_hint TEXT NOT NULL,
	worker     TEXT NOT NULL,
	created    DATETIME NOT NULL,
	PRIMARY KEY (pool, cache_hint, worker)
);
`

// cacheKey is the read-through lookup key: one pool/hint pair maps to
// the sorted set of worker names that have ever handled it.
type cacheKey struct {
	pool string
	hint string
}

// DAO implements pool.CacheDAO against a SQLite-backed cached table,
// fronted by an LRU of recent (pool, hint) -> worker-name-set lookups.
// Cache entries here are never aged out against an expiry of their own;
// this LRU is a deliberate, clearly-scoped extension bounding memory
// rather than the underlying table, which is never pruned.
type DAO struct {
	db    *sql.DB
	cache *lru.Cache[cacheKey, []string]
	log   logger.Logger
}

// Open creates (if needed) the schema at path and returns a ready DAO.
// cacheSize bounds the number of distinct (pool, hint) pairs kept warm
// in memory; a read that misses falls through to the database.
func Open(path string, cacheSize int) (*DAO, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cachedao: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers anyway

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cachedao: create schema: %w", err)
	}

	cache, err := lru.New[cacheKey, []string](cacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cachedao: new lru: %w", err)
	}

	return &DAO{db: db, cache: cache, log: logger.GetLogger("CacheDAO", path)}, nil
}

// Close releases the underlying database handle.
func (d *DAO) Close() error { return d.db.Close() }

// MarkCached records that worker has now handled an item carrying hint
// in pool, insert-or-replace semantics on the (pool, hint, worker) key.
// Any cached lookup result for this (pool, hint) is invalidated.
func (d *DAO) MarkCached(pool, hint, worker string) {
	_, err := d.db.Exec(
		`INSERT INTO cached (pool, cache_hint, worker, created) VALUES (?, ?, ?, ?)
		 ON CONFLICT (pool, cache_hint, worker) DO UPDATE SET created = excluded.created`,
		pool, hint, worker, time.Now().UTC(),
	)
	if err != nil {
		d.log.Error("mark_cached failed", logger.String("pool", pool), logger.String("hint", hint),
			logger.String("worker", worker), logger.Error(err))
		return
	}
	d.cache.Remove(cacheKey{pool: pool, hint: hint})
}

// QueryCache returns every worker name ever marked for (pool, hint), in
// ascending order. A read-through miss queries the database and warms
// the LRU; a hit returns the cached slice directly.
func (d *DAO) QueryCache(pool, hint string) []string {
	key := cacheKey{pool: pool, hint: hint}
	if names, ok := d.cache.Get(key); ok {
		return names
	}

	rows, err := d.db.Query(
		`SELECT worker FROM cached WHERE pool = ? AND cache_hint = ? ORDER BY worker ASC`,
		pool, hint,
	)
	if err != nil {
		d.log.Error("query_cache failed", logger.String("pool", pool), logger.String("hint", hint), logger.Error(err))
		return nil
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			d.log.Error("query_cache scan failed", logger.Error(err))
			return nil
		}
		names = append(names, name)
	}
	sort.Strings(names) // defensive: the query is already ordered

	d.cache.Add(key, names)
	return names
}

// Vacuum reclaims space left by sqlite's insert-or-replace churn. It is
// intended to run periodically from a background janitor, not inline
// with request handling.
func (d *DAO) Vacuum(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, "VACUUM")
	return err
}