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
	"golang.org/x/sync/errgroup"

	"github.com/ringbench/ringbench/pkg/actor"
	cerrors "github.com/ringbench/ringbench/pkg/errors"
)

// maxActors bounds n*p so a misconfigured run fails fast instead of
// exhausting scheduling capacity.
const maxActors = 1 << 22

// RunParallel builds p independent rings of n nodes each, injects the
// initial token m into every ring concurrently, and blocks until all p rings
// report completion. It returns the reporter position of each ring, in
// arrival order of the reports; the order across rings is unspecified.
//
// Every chain performs exactly m meaningful hops: the token enters as m and
// is decremented by one per hop until the terminal zero.
func RunParallel(ctx context.Context, b NodeBuilder, p, n int, m int64) ([]actor.ID, error) {
	if p < 1 {
		return nil, cerrors.ErrChainCount.GenWithStackByArgs(p)
	}
	if n < 1 {
		return nil, cerrors.ErrRingSize.GenWithStackByArgs(n)
	}
	if m < 0 {
		return nil, cerrors.ErrNegativeToken.GenWithStackByArgs(m)
	}
	if actors := int64(n) * int64(p); actors > maxActors {
		return nil, cerrors.ErrTooManyActors.GenWithStackByArgs(actors, maxActors)
	}

	// All nodes share runCtx. Cancelling it after every report has been
	// collected releases the nodes still parked on a receive, which is the
	// uniform disposal step: a finished run leaves nothing behind. Builders
	// whose nodes are not goroutines additionally unregister them here.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if d, ok := b.(Disposer); ok {
		defer d.Dispose()
	}

	finish := NewFinishChannel()
	g, injectCtx := errgroup.WithContext(ctx)
	for i := 0; i < p; i++ {
		g.Go(func() error {
			entry, err := MakeChain(runCtx, b, n, finish)
			if err != nil {
				return errors.Trace(err)
			}
			// The one external transfer per chain. Under a rendezvous
			// primitive it blocks until node 1 takes the token.
			return errors.Trace(entry.Send(injectCtx, m))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Trace(err)
	}

	reporters := make([]actor.ID, 0, p)
	for i := 0; i < p; i++ {
		id, err := finish.Receive(ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		reporters = append(reporters, id)
	}
	log.Debug("all chains finished",
		zap.Int("chains", p), zap.Int("ringSize", n), zap.Int64("token", m))
	return reporters, nil
}
