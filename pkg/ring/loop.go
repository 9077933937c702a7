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
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/ringbench/ringbench/pkg/actor"
	"github.com/ringbench/ringbench/pkg/channel"
)

// LoopBuilder starts one goroutine per ring node running a blocking receive
// loop. It works with any transfer primitive; the New factory picks which
// one the ring is measured over.
type LoopBuilder struct {
	New func() channel.Channel[int64]
}

var _ NodeBuilder = (*LoopBuilder)(nil)

// NewLoopBuilder creates a LoopBuilder over the given channel factory.
func NewLoopBuilder(newChannel func() channel.Channel[int64]) *LoopBuilder {
	return &LoopBuilder{New: newChannel}
}

// NewChannel implements NodeBuilder.
func (b *LoopBuilder) NewChannel() channel.Channel[int64] {
	return b.New()
}

// Start implements NodeBuilder.
func (b *LoopBuilder) Start(
	ctx context.Context, id actor.ID,
	in, out channel.Channel[int64], finish *FinishChannel,
) error {
	go func() {
		err := runLoopNode(ctx, id, in, out, finish)
		if err != nil && errors.Cause(err) != context.Canceled {
			log.Warn("ring node exited",
				zap.Uint64("id", uint64(id)), zap.Error(err))
		}
	}()
	return nil
}

// runLoopNode is the blocking-loop actor encoding: take, decrement, forward,
// and report on the terminal token. Receiving zero is the node's only exit
// path besides cancellation of ctx, which the runner uses to release the
// n-1 nodes still parked in Receive once a ring has finished.
//
// A self-loop node forwards to itself, so a rendezvous give issued inline
// would park the node before it could reach the matching take. Self-forwards
// are issued from a spawned task instead; the node loops straight back to
// Receive and matches its own parked give. Hop count, FIFO matching and the
// one-value-in-flight invariant are unchanged: a self-loop carries exactly
// one token, so at most one self-forward is ever outstanding.
func runLoopNode(
	ctx context.Context, id actor.ID,
	in, out channel.Channel[int64], finish *FinishChannel,
) error {
	selfLoop := in == out
	for {
		token, err := in.Receive(ctx)
		if err != nil {
			return errors.Trace(err)
		}
		if token == 0 {
			return errors.Trace(finish.Send(ctx, id))
		}
		if selfLoop {
			go func(v int64) {
				// Only cancellation can fail the give, and cancellation
				// also releases the node itself.
				_ = out.Send(ctx, v)
			}(token - 1)
			continue
		}
		if err := out.Send(ctx, token-1); err != nil {
			return errors.Trace(err)
		}
	}
}
