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

// Buffered is an asynchronous channel with an unbounded FIFO backlog.
// Send never blocks; Receive blocks while the backlog is empty. Blocked
// receivers are served FIFO by arrival.
//
// Buffered is safe for any number of concurrent senders and receivers.
type Buffered[T any] struct {
	mu        sync.Mutex
	backlog   *containers.Queue[T]
	receivers *containers.Queue[*waiter[T]]
}

var _ Channel[int64] = (*Buffered[int64])(nil)

// NewBuffered creates an empty Buffered channel.
func NewBuffered[T any]() *Buffered[T] {
	return &Buffered[T]{
		backlog:   containers.NewQueue[T](),
		receivers: containers.NewQueue[*waiter[T]](),
	}
}

// Send enqueues v and returns immediately, waking one blocked receiver if
// present. The ctx is accepted for interface symmetry only; Send cannot
// block.
func (c *Buffered[T]) Send(_ context.Context, v T) error {
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
	c.backlog.Push(v)
	c.mu.Unlock()
	return nil
}

// Receive dequeues the oldest backlog value, blocking while the backlog is
// empty.
func (c *Buffered[T]) Receive(ctx context.Context) (T, error) {
	c.mu.Lock()
	if v, ok := c.backlog.Pop(); ok {
		c.mu.Unlock()
		return v, nil
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

// TryReceive dequeues the oldest backlog value without blocking.
func (c *Buffered[T]) TryReceive() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backlog.Pop()
}

// Len returns the current backlog length.
func (c *Buffered[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backlog.Len()
}
