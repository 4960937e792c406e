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

import "sync"

// fakeDAO is an in-memory stand-in for the real SQLite-backed CacheDAO,
// good enough to exercise locality routing without touching a database.
type fakeDAO struct {
	mu    sync.Mutex
	cache map[string][]string // "pool|hint" -> worker names, insertion order
}

func newFakeDAO() *fakeDAO {
	return &fakeDAO{cache: make(map[string][]string)}
}

func (f *fakeDAO) key(pool, hint string) string { return pool + "|" + hint }

func (f *fakeDAO) MarkCached(pool, hint, worker string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(pool, hint)
	for _, w := range f.cache[k] {
		if w == worker {
			return
		}
	}
	f.cache[k] = append(f.cache[k], worker)
}

func (f *fakeDAO) QueryCache(pool, hint string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.cache[f.key(pool, hint)]))
	copy(out, f.cache[f.key(pool, hint)])
	return out
}
