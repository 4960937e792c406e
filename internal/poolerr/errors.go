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

// Package poolerr defines the error kinds returned across the scheduler
// API surface. Internal assertion failures — the kind a
// caller cannot recover from, such as releasing a worker twice — are not
// part of this package; they panic at the call site instead.
package poolerr

import (
	"context"
	"errors"
)

var (
	// ErrNameTaken is returned by Pool.Register when the worker name is
	// already present in the pool's worker map.
	ErrNameTaken = errors.New("pool: worker name already registered")

	// ErrNotQueued is returned by Ticket.Cancel when the ticket has
	// already been accepted, already cancelled, or never held a detach
	// hook in the first place.
	ErrNotQueued = errors.New("pool: ticket is not queued")

	// ErrFinished is returned by Pop once a worker has been released.
	ErrFinished = errors.New("pool: worker has been released")

	// ErrUnknownWorker is returned by admin operations addressing a
	// worker name that is not currently registered.
	ErrUnknownWorker = errors.New("pool: unknown worker")

	// ErrTimeout is returned by AwaitReconnect when no worker registers
	// under the name within 600 seconds, or its ctx is done first. It wraps
	// context.DeadlineExceeded so callers can match on either.
	ErrTimeout error = timeoutError{}
)

// timeoutError backs ErrTimeout with a domain-specific message while
// still satisfying errors.Is(ErrTimeout, context.DeadlineExceeded).
type timeoutError struct{}

func (timeoutError) Error() string { return "pool: timed out waiting for worker reconnect" }
func (timeoutError) Unwrap() error { return context.DeadlineExceeded }