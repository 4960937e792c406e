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

package item

import "fmt"

// Basic is a minimal Item implementation for callers with no richer
// payload type of their own: the admin console's submit command and the
// test suite both build tickets around it.
type Basic struct {
	Label string
	Hint  string
	Cost  CostEstimate
}

// NewBasic builds a Basic item. cost is the non-cached cost; cachedCost
// is the cost on a worker that already holds hint.
func NewBasic(label, hint string, cachedCost, cost uint32) *Basic {
	return &Basic{
		Label: label,
		Hint:  hint,
		Cost:  CostEstimate{Cached: cachedCost, NonCached: cost},
	}
}

func (b *Basic) String() string { return fmt.Sprintf("Basic(%s)", b.Label) }

func (b *Basic) CacheHint() string { return b.Hint }

func (b *Basic) CostEstimate() CostEstimate { return b.Cost }
