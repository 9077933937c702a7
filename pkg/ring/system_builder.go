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

package ring

import (
	"context"

	"github.com/pingcap/errors"
	"go.uber.org/atomic"

	"github.com/ringbench/ringbench/pkg/actor"
	"github.com/ringbench/ringbench/pkg/channel"
	cerrors "github.com/ringbench/ringbench/pkg/errors"
)

// SystemBuilder runs ring nodes as poll actors on a shared actor.System, so
// any number of nodes are multiplexed onto the system's fixed worker pool.
// Edges are system mailboxes; only the asynchronous mailbox primitive can
// back this encoding, since a rendezvous transfer cannot be expressed as a
// nonblocking poll.
//
// Mailbox IDs are allocated globally across every ring built by this
// builder, so one system can host many parallel rings.
type SystemBuilder struct {
	sys      *actor.System[int64]
	nextID   atomic.Uint64
	disposed atomic.Uint64
}

var (
	_ NodeBuilder = (*SystemBuilder)(nil)
	_ Disposer    = (*SystemBuilder)(nil)
)

// NewSystemBuilder creates a SystemBuilder over a started system.
func NewSystemBuilder(sys *actor.System[int64]) *SystemBuilder {
	return &SystemBuilder{sys: sys}
}

// NewChannel implements NodeBuilder.
func (b *SystemBuilder) NewChannel() channel.Channel[int64] {
	return b.sys.NewMailbox(actor.ID(b.nextID.Inc()))
}

// Start implements NodeBuilder.
func (b *SystemBuilder) Start(
	_ context.Context, id actor.ID,
	in, out channel.Channel[int64], finish *FinishChannel,
) error {
	smb, ok := in.(*actor.SystemMailbox[int64])
	if !ok {
		return cerrors.ErrNodeChannel.GenWithStackByArgs(uint64(id))
	}
	node := &pollNode{id: id, out: out, finish: finish}
	return errors.Trace(smb.Spawn(node))
}

// Dispose implements Disposer: it unregisters every node this builder
// created since the previous Dispose. Only the reporting node stops by
// polling false; its n-1 peers stay registered and would accumulate on a
// long-lived system without explicit removal.
func (b *SystemBuilder) Dispose() {
	hi := b.nextID.Load()
	for id := b.disposed.Swap(hi) + 1; id <= hi; id++ {
		b.sys.Remove(actor.ID(id))
	}
}

// pollNode is the callback-queue actor encoding of a ring node. The polled
// token batch is processed in arrival order; forwarding never blocks because
// the outbound edge is a mailbox.
type pollNode struct {
	id     actor.ID
	out    channel.Channel[int64]
	finish *FinishChannel
	done   bool
}

var _ actor.Actor[int64] = (*pollNode)(nil)

// Poll implements actor.Actor.
func (n *pollNode) Poll(ctx context.Context, tokens []int64) bool {
	if n.done {
		return false
	}
	for _, token := range tokens {
		if token == 0 {
			// Giving the report blocks this worker until the runner takes
			// it; the runner is always draining, so the worker is released
			// promptly.
			if err := n.finish.Send(ctx, n.id); err != nil {
				return false
			}
			n.done = true
			return false
		}
		if err := n.out.Send(ctx, token-1); err != nil {
			return false
		}
	}
	return true
}
