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

// Package ring builds closed token-passing rings of actors and runs many of
// them in parallel.
//
// A ring of n nodes is wired inbound-to-outbound: node i reads from channel i
// and writes to channel i+1, node n writes back to channel 1. A token
// injected into channel 1 circulates, decremented by one per hop; the node
// that receives zero gives its own position on the shared finish channel and
// stops. Ring size affects which node reports and the latency per lap, never
// the hop count.
package ring

import (
	"context"

	"github.com/pingcap/errors"

	"github.com/ringbench/ringbench/pkg/actor"
	"github.com/ringbench/ringbench/pkg/channel"
	cerrors "github.com/ringbench/ringbench/pkg/errors"
)

// FinishChannel collects one report per ring: the position of the node that
// observed the terminal token. It is a rendezvous so reports from many rings
// queue FIFO and are drained one by one by the runner.
type FinishChannel = channel.Rendezvous[actor.ID]

// NewFinishChannel creates an empty FinishChannel.
func NewFinishChannel() *FinishChannel {
	return channel.NewRendezvous[actor.ID]()
}

// NodeBuilder abstracts how ring nodes are created and started, so the same
// wiring runs over any transfer primitive and either actor encoding.
type NodeBuilder interface {
	// NewChannel allocates one ring edge.
	NewChannel() channel.Channel[int64]
	// Start brings node id to life, reading from in and writing to out.
	// The node must be ready to receive as soon as Start returns. A
	// self-loop is signalled by in and out being the same value; builders
	// that decorate another builder's edges must preserve that identity.
	Start(ctx context.Context, id actor.ID, in, out channel.Channel[int64], finish *FinishChannel) error
}

// Disposer is implemented by builders whose nodes need explicit removal once
// a run completes. RunParallel invokes Dispose as part of releasing a run's
// resources.
type Disposer interface {
	Dispose()
}

// MakeChain builds a closed ring of n nodes and returns its entry channel.
//
// Nodes are started as they are constructed, before the ring is fully wired.
// That is safe because no node can receive until the caller injects the
// first token into the entry channel, which cannot happen before MakeChain
// returns. n == 1 forms a self-loop: one node whose outbound edge is its own
// inbound edge.
func MakeChain(ctx context.Context, b NodeBuilder, n int, finish *FinishChannel) (channel.Channel[int64], error) {
	if n < 1 {
		return nil, cerrors.ErrRingSize.GenWithStackByArgs(n)
	}
	entry := b.NewChannel()
	in := entry
	for i := 1; i <= n; i++ {
		out := entry
		if i < n {
			out = b.NewChannel()
		}
		if err := b.Start(ctx, actor.ID(i), in, out, finish); err != nil {
			return nil, errors.Trace(err)
		}
		in = out
	}
	return entry, nil
}
