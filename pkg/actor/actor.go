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

package actor

import (
	"context"
)

// ID is ID for actors.
type ID uint64

// Actor is a callback-queue unit of concurrent computation. It never blocks
// waiting for input; the System delivers batches of pending mailbox messages
// to Poll on a shared worker pool.
//
// This is one of the two actor encodings the harness compares. The other is
// the blocking-loop encoding in pkg/ring, which runs one goroutine per actor.
type Actor[T any] interface {
	// Poll handles messages that were sent to the actor's mailbox.
	//
	// The ctx is only for cancellation, and an actor must be aware of
	// the cancellation.
	//
	// If it returns true, the actor is polled again when more messages
	// arrive. If it returns false, the actor is removed from the System and
	// never polled again. Once it returns false, it must always return
	// false.
	Poll(ctx context.Context, msgs []T) (running bool)
}
