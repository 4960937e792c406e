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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDAO(t *testing.T) *DAO {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	dao, err := Open(path, 64)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dao.Close() })
	return dao
}

func Test_DAO_QueryCache_emptyByDefault(t *testing.T) {
	dao := openTestDAO(t)
	assert.Empty(t, dao.QueryCache("pool1", "hint1"))
}

func Test_DAO_MarkCached_thenQuery(t *testing.T) {
	dao := openTestDAO(t)

	dao.MarkCached("pool1", "hint1", "w1")
	dao.MarkCached("pool1", "hint1", "w2")

	names := dao.QueryCache("pool1", "hint1")
	assert.ElementsMatch(t, []string{"w1", "w2"}, names)
}

func Test_DAO_MarkCached_idempotentOnSameWorker(t *testing.T) {
	dao := openTestDAO(t)

	dao.MarkCached("pool1", "hint1", "w1")
	dao.MarkCached("pool1", "hint1", "w1")

	assert.Equal(t, []string{"w1"}, dao.QueryCache("pool1", "hint1"))
}

func Test_DAO_QueryCache_isolatedByPoolAndHint(t *testing.T) {
	dao := openTestDAO(t)

	dao.MarkCached("pool1", "hint1", "w1")
	dao.MarkCached("pool2", "hint1", "w2")
	dao.MarkCached("pool1", "hint2", "w3")

	assert.Equal(t, []string{"w1"}, dao.QueryCache("pool1", "hint1"))
	assert.Equal(t, []string{"w2"}, dao.QueryCache("pool2", "hint1"))
	assert.Equal(t, []string{"w3"}, dao.QueryCache("pool1", "hint2"))
}

func Test_DAO_persistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	dao, err := Open(path, 64)
	require.NoError(t, err)
	dao.MarkCached("pool1", "hint1", "w1")
	require.NoError(t, dao.Close())

	reopened, err := Open(path, 64)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, []string{"w1"}, reopened.QueryCache("pool1", "hint1"))
}

func Test_DAO_Vacuum_noError(t *testing.T) {
	dao := openTestDAO(t)
	dao.MarkCached("pool1", "hint1", "w1")
	assert.NoError(t, dao.Vacuum(context.Background()))
}
