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

// Package item defines the submitter payload contract.
package item

import "fmt"

// CostEstimate is the pair of expected durations for an item: how long it
// takes on a worker that already holds the item's cache hint, versus one
// that does not. Both are opaque cost units (typically milliseconds), never
// negative.
type CostEstimate struct {
	Cached    uint32
	NonCached uint32
}

// Item is the opaque submitter payload. CacheHint returns the empty string
// when the submitter has no locality preference.
type Item interface {
	fmt.Stringer

	CacheHint() string
	CostEstimate() CostEstimate
}