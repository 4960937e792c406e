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

// activeGate is the pool-wide pause switch.
// It is a sum type, Active or Paused(ready), expressed here as a flag
// plus a one-shot signal that is only meaningful while paused.
//
// Every method here assumes the owning Pool's mutex is held. The blocking
// wait on ready happens in Pool.awaitActive, which must be called without
// the mutex held.
type activeGate struct {
	active bool
	ready  chan struct{} // non-nil and open iff paused
}

func newActiveGate() *activeGate {
	return &activeGate{active: true}
}

// setLocked flips the gate. Setting true on a paused gate resolves the
// current ready signal; setting false on an active gate allocates a
// fresh, unresolved one. Setting to the current value is a no-op.
func (g *activeGate) setLocked(active bool) {
	if active == g.active {
		return
	}
	g.active = active
	if active {
		close(g.ready)
		g.ready = nil
	} else {
		g.ready = make(chan struct{})
	}
}

// awaitChanLocked returns nil if the gate is active (caller need not
// wait), else the channel to wait on.
func (g *activeGate) awaitChanLocked() chan struct{} {
	if g.active {
		return nil
	}
	return g.ready
}