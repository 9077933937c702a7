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
	"sync"

	"github.com/pingcap/errors"

	"github.com/ringbench/ringbench/pkg/containers"
)

// Rendezvous is a synchronous handoff channel. Send and Receive block until
// matched with each other; exactly one value is in flight per match and
// nothing is buffered. Excess senders and excess receivers queue separately
// and are matched FIFO by arrival.
//
// Rendezvous is safe for any number of concurrent senders and receivers.
type Rendezvous[T any] struct {
	mu        sync.Mutex
	senders   *containers.Queue[*waiter[T]]
	receivers *containers.Queue[*waiter[T]]
}

var _ Channel[int64] = (*Rendezvous[int64])(nil)

// NewRendezvous creates an empty Rendezvous channel.
func NewRendezvous[T any]() *Rendezvous[T] {
	return &Rendezvous[T]{
		senders:   containers.NewQueue[*waiter[T]](),
		receivers: containers.NewQueue[*waiter[T]](),
	}
}

// Send gives v to a receiver, blocking until one arrives.
func (c *Rendezvous[T]) Send(ctx context.Context, v T) error {
	c.mu.Lock()
	for {
		r, ok := c.receivers.Pop()
		if !ok {
			break
		}
		if r.claim() {
			c.mu.Unlock()
			r.v = v
			close(r.done)
			return nil
		}
	}
	w := newWaiter[T]()
	w.v = v
	c.senders.Push(w)
	c.mu.Unlock()
	return errors.Trace(w.await(ctx))
}

// Receive takes a value from a sender, blocking until one arrives.
func (c *Rendezvous[T]) Receive(ctx context.Context) (T, error) {
	c.mu.Lock()
	for {
		s, ok := c.senders.Pop()
		if !ok {
			break
		}
		if s.claim() {
			c.mu.Unlock()
			v := s.v
			close(s.done)
			return v, nil
		}
	}
	w := newWaiter[T]()
	c.receivers.Push(w)
	c.mu.Unlock()
	if err := w.await(ctx); err != nil {
		var zero T
		return zero, errors.Trace(err)
	}
	return w.v, nil
}
