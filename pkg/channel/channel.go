// Copyright 2024 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package channel provides the message-passing primitives compared by the
// benchmark harness.
//
// Two primitives live here. Rendezvous is a synchronous handoff: a send blocks
// until a receive arrives, so producer and consumer proceed in lockstep.
// Buffered is an asynchronous unbounded queue: a send enqueues and returns at
// once, so a fast producer can race arbitrarily far ahead of a slow consumer.
// The per-actor Mailbox in pkg/actor shares Buffered's transfer semantics.
//
// All synchronization between benchmark actors is expressed through these
// primitives; no locks are exposed to callers.
package channel

import (
	"context"
)

// Channel moves values between two concurrently running parties.
type Channel[T any] interface {
	// Send is the primitive's designated transfer operation. On a Rendezvous
	// it blocks the caller until a receiver is matched; on asynchronous
	// primitives it enqueues and returns immediately.
	//
	// The ctx is only for cancelling a blocked operation. A successful Send
	// returns nil.
	Send(ctx context.Context, v T) error
	// Receive blocks until a value is available and returns it.
	Receive(ctx context.Context) (T, error)
}
