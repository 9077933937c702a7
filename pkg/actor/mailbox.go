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

	"github.com/ringbench/ringbench/pkg/channel"
)

// Mailbox is an actor's unbounded asynchronous inbox. It has the same
// transfer semantics as channel.Buffered, scoped to one owner identity:
// Send enqueues without blocking, Receive blocks the owner while the inbox
// is empty, order is FIFO per mailbox.
// Mailbox is threadsafe.
type Mailbox[T any] struct {
	id ID
	ch *channel.Buffered[T]
}

var _ channel.Channel[int64] = (*Mailbox[int64])(nil)

// NewMailbox creates an empty mailbox owned by actor id.
func NewMailbox[T any](id ID) *Mailbox[T] {
	return &Mailbox[T]{id: id, ch: channel.NewBuffered[T]()}
}

// ID returns the owner's ID.
func (m *Mailbox[T]) ID() ID {
	return m.id
}

// Send enqueues a message without blocking.
func (m *Mailbox[T]) Send(ctx context.Context, msg T) error {
	return m.ch.Send(ctx, msg)
}

// Receive blocks until a message is available. Only the owning actor may
// call it.
func (m *Mailbox[T]) Receive(ctx context.Context) (T, error) {
	return m.ch.Receive(ctx)
}

// TryReceive takes one pending message without blocking.
// It should only be called by System.
func (m *Mailbox[T]) TryReceive() (T, bool) {
	return m.ch.TryReceive()
}

// Len returns the number of pending messages.
func (m *Mailbox[T]) Len() int {
	return m.ch.Len()
}
