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

package channel

import (
	"context"

	"github.com/pingcap/errors"
	"go.uber.org/atomic"
)

const (
	stateWaiting int32 = iota
	stateMatched
	stateCancelled
)

// waiter is one blocked party of a primitive. Its state moves
// waiting->matched exactly once, claimed by the peer with a CAS, or
// waiting->cancelled, claimed by the owner on ctx expiry. A waiter that lost
// the claim race to a cancellation stays in its queue and is skipped when it
// surfaces, which keeps matching strictly FIFO by arrival among live waiters.
type waiter[T any] struct {
	state atomic.Int32
	// v carries the transferred value. It is written before done is closed
	// and read only after done is closed.
	v    T
	done chan struct{}
}

func newWaiter[T any]() *waiter[T] {
	return &waiter[T]{done: make(chan struct{})}
}

// claim marks the waiter matched. It returns false when the waiter was
// already cancelled.
func (w *waiter[T]) claim() bool {
	return w.state.CompareAndSwap(stateWaiting, stateMatched)
}

// await parks the caller until the waiter is matched or ctx expires.
func (w *waiter[T]) await(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
	}
	if !w.state.CompareAndSwap(stateWaiting, stateCancelled) {
		// A peer claimed the waiter concurrently with the cancellation,
		// so the transfer has already happened. Honor it.
		<-w.done
		return nil
	}
	return errors.Trace(ctx.Err())
}
