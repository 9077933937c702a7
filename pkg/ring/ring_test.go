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
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/ringbench/ringbench/pkg/actor"
	"github.com/ringbench/ringbench/pkg/channel"
	cerrors "github.com/ringbench/ringbench/pkg/errors"
	"github.com/ringbench/ringbench/pkg/leakutil"
)

func TestMain(m *testing.M) {
	leakutil.SetUpLeakTest(m)
}

func rendezvousBuilder() *LoopBuilder {
	return NewLoopBuilder(func() channel.Channel[int64] {
		return channel.NewRendezvous[int64]()
	})
}

func bufferedBuilder() *LoopBuilder {
	return NewLoopBuilder(func() channel.Channel[int64] {
		return channel.NewBuffered[int64]()
	})
}

func mailboxBuilder() *LoopBuilder {
	var next atomic.Uint64
	return NewLoopBuilder(func() channel.Channel[int64] {
		return actor.NewMailbox[int64](actor.ID(next.Inc()))
	})
}

// countingChannel counts node forwards so tests can assert the hop-count
// law. The entry channel handed back to the caller stays unwrapped, so the
// initial injection is not counted.
type countingChannel struct {
	channel.Channel[int64]
	hops *atomic.Int64
}

func (c *countingChannel) Send(ctx context.Context, v int64) error {
	c.hops.Inc()
	return c.Channel.Send(ctx, v)
}

type countingBuilder struct {
	inner NodeBuilder
	hops  atomic.Int64
}

func (b *countingBuilder) NewChannel() channel.Channel[int64] {
	return b.inner.NewChannel()
}

func (b *countingBuilder) Start(
	ctx context.Context, id actor.ID,
	in, out channel.Channel[int64], finish *FinishChannel,
) error {
	wrapped := &countingChannel{Channel: out, hops: &b.hops}
	if in == out {
		// A decorated self-loop edge must stay a single value.
		in = wrapped
	}
	return b.inner.Start(ctx, id, in, wrapped, finish)
}

// A ring of size 3 with token 7: hop count equals the token, never the ring
// size, and the reporter sits at position (7 mod 3)+1 = 2.
func TestHopCountLaw(t *testing.T) {
	t.Parallel()

	b := &countingBuilder{inner: rendezvousBuilder()}
	reporters, err := RunParallel(context.Background(), b, 1, 3, 7)
	require.NoError(t, err)
	require.Equal(t, []actor.ID{2}, reporters)
	require.Equal(t, int64(7), b.hops.Load())
}

// A self-loop must cycle through its single node token times.
func TestSelfLoop(t *testing.T) {
	t.Parallel()

	b := &countingBuilder{inner: rendezvousBuilder()}
	reporters, err := RunParallel(context.Background(), b, 1, 1, 3)
	require.NoError(t, err)
	require.Equal(t, []actor.ID{1}, reporters)
	require.Equal(t, int64(3), b.hops.Load())
}

// A self-loop node forwards a rendezvous token to itself, so it must give
// asynchronously or it would never reach the matching take. Every primitive
// must complete a self-loop run.
func TestSelfLoopEveryPrimitive(t *testing.T) {
	t.Parallel()

	builders := map[string]func() NodeBuilder{
		"rendezvous": func() NodeBuilder { return rendezvousBuilder() },
		"buffered":   func() NodeBuilder { return bufferedBuilder() },
		"mailbox":    func() NodeBuilder { return mailboxBuilder() },
	}
	for name, newBuilder := range builders {
		name, newBuilder := name, newBuilder
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			reporters, err := RunParallel(context.Background(), newBuilder(), 2, 1, 5)
			require.NoError(t, err)
			require.Equal(t, []actor.ID{1, 1}, reporters)
		})
	}
}

// An initial token of zero terminates on the first node without any hop.
func TestZeroToken(t *testing.T) {
	t.Parallel()

	b := &countingBuilder{inner: rendezvousBuilder()}
	reporters, err := RunParallel(context.Background(), b, 1, 5, 0)
	require.NoError(t, err)
	require.Equal(t, []actor.ID{1}, reporters)
	require.Equal(t, int64(0), b.hops.Load())
}

// Exactly p reports are collected and per-chain behavior is independent of p.
func TestFanInCompleteness(t *testing.T) {
	t.Parallel()

	for _, p := range []int{1, 8} {
		reporters, err := RunParallel(context.Background(), bufferedBuilder(), p, 3, 7)
		require.NoError(t, err)
		require.Len(t, reporters, p)
		for _, id := range reporters {
			require.Equal(t, actor.ID(2), id)
		}
	}
}

// Swapping the transfer primitive must not change the outcome, only the
// measured throughput.
func TestPrimitiveEquivalence(t *testing.T) {
	t.Parallel()

	const (
		p = 4
		n = 11
		m = 100
	)
	want := actor.ID(m%n + 1)

	builders := map[string]func() NodeBuilder{
		"rendezvous": func() NodeBuilder { return rendezvousBuilder() },
		"buffered":   func() NodeBuilder { return bufferedBuilder() },
		"mailbox":    func() NodeBuilder { return mailboxBuilder() },
	}
	for name, newBuilder := range builders {
		name, newBuilder := name, newBuilder
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			reporters, err := RunParallel(context.Background(), newBuilder(), p, n, m)
			require.NoError(t, err)
			require.Len(t, reporters, p)
			for _, id := range reporters {
				require.Equal(t, want, id)
			}
		})
	}
}

func TestSystemRing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sys := actor.NewSystem[int64]("ring-test", 4)
	sys.Start(ctx)
	defer func() {
		require.NoError(t, sys.Stop())
	}()

	reporters, err := RunParallel(ctx, NewSystemBuilder(sys), 4, 11, 100)
	require.NoError(t, err)
	require.Len(t, reporters, 4)
	for _, id := range reporters {
		require.Equal(t, actor.ID(100%11+1), id)
	}
}

// A finished run must leave no node registered on a shared system, however
// many runs the same builder serves.
func TestSystemRingDisposal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sys := actor.NewSystem[int64]("ring-disposal-test", 4)
	sys.Start(ctx)
	defer func() {
		require.NoError(t, sys.Stop())
	}()

	b := NewSystemBuilder(sys)
	for i := 0; i < 2; i++ {
		reporters, err := RunParallel(ctx, b, 3, 5, 12)
		require.NoError(t, err)
		require.Equal(t, []actor.ID{3, 3, 3}, reporters)
		require.Equal(t, 0, sys.ActorCount())
	}
}

// Re-running the same configuration must be a fresh, correct run each time.
func TestRepeatedRuns(t *testing.T) {
	t.Parallel()

	for i := 0; i < 2; i++ {
		reporters, err := RunParallel(context.Background(), rendezvousBuilder(), 2, 3, 7)
		require.NoError(t, err)
		require.Equal(t, []actor.ID{2, 2}, reporters)
	}
}

func TestMakeChainInvalidSize(t *testing.T) {
	t.Parallel()

	_, err := MakeChain(context.Background(), rendezvousBuilder(), 0, NewFinishChannel())
	require.True(t, cerrors.ErrRingSize.Equal(err))
}

func TestRunParallelValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := rendezvousBuilder()

	_, err := RunParallel(ctx, b, 0, 3, 7)
	require.True(t, cerrors.ErrChainCount.Equal(err))
	_, err = RunParallel(ctx, b, 1, 0, 7)
	require.True(t, cerrors.ErrRingSize.Equal(err))
	_, err = RunParallel(ctx, b, 1, 3, -1)
	require.True(t, cerrors.ErrNegativeToken.Equal(err))
	_, err = RunParallel(ctx, b, 4096, 2048, 1)
	require.True(t, cerrors.ErrTooManyActors.Equal(err))
}

// Reports from many chains arrive in unspecified order but always one per
// chain. Use distinct ring sizes per run to vary reporter identities.
func TestReporterIdentity(t *testing.T) {
	t.Parallel()

	const m = 17
	for _, n := range []int{2, 5, 17, 20} {
		reporters, err := RunParallel(context.Background(), bufferedBuilder(), 3, n, m)
		require.NoError(t, err)
		sort.Slice(reporters, func(i, j int) bool { return reporters[i] < reporters[j] })
		want := actor.ID(m%n + 1)
		require.Equal(t, []actor.ID{want, want, want}, reporters)
	}
}
