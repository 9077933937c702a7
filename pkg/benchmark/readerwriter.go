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

package benchmark

import (
	"context"

	"github.com/pingcap/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ringbench/ringbench/pkg/channel"
)

// Style selects the control-flow encoding of the reader/writer pair. The two
// styles are numerically identical; any throughput delta between them is the
// object of measurement.
type Style int

const (
	// StyleStrict runs both sides as plain blocking loops.
	StyleStrict Style = iota
	// StyleTweaked runs both sides as trampolined continuations, one step
	// per suspension point.
	StyleTweaked
)

// ReaderWriter measures raw give/take over a single rendezvous channel
// without any ring overhead. The writer counts n down to zero giving every
// value including the terminal zero; the reader accumulates every nonzero
// value and stops on zero. The returned sum is n*(n+1)/2 by construction.
func ReaderWriter(ctx context.Context, style Style, n int64) (int64, error) {
	ch := channel.NewRendezvous[int64]()
	var sum int64

	g, gctx := errgroup.WithContext(ctx)
	switch style {
	case StyleTweaked:
		g.Go(func() error {
			return runSteps(writeFrom(gctx, ch, n))
		})
		g.Go(func() error {
			return runSteps(readInto(gctx, ch, &sum))
		})
	default:
		g.Go(func() error {
			for v := n; v >= 0; v-- {
				if err := ch.Send(gctx, v); err != nil {
					return errors.Trace(err)
				}
			}
			return nil
		})
		g.Go(func() error {
			for {
				v, err := ch.Receive(gctx)
				if err != nil {
					return errors.Trace(err)
				}
				if v == 0 {
					return nil
				}
				sum += v
			}
		})
	}
	if err := g.Wait(); err != nil {
		return 0, errors.Trace(err)
	}
	return sum, nil
}

// step is one continuation of the tweaked encoding. Returning a nil step
// terminates the trampoline.
type step func() (step, error)

func runSteps(s step) error {
	for s != nil {
		next, err := s()
		if err != nil {
			return errors.Trace(err)
		}
		s = next
	}
	return nil
}

func writeFrom(ctx context.Context, ch *channel.Rendezvous[int64], v int64) step {
	return func() (step, error) {
		if err := ch.Send(ctx, v); err != nil {
			return nil, errors.Trace(err)
		}
		if v == 0 {
			return nil, nil
		}
		return writeFrom(ctx, ch, v-1), nil
	}
}

func readInto(ctx context.Context, ch *channel.Rendezvous[int64], sum *int64) step {
	return func() (step, error) {
		v, err := ch.Receive(ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if v == 0 {
			return nil, nil
		}
		*sum += v
		return readInto(ctx, ch, sum), nil
	}
}
