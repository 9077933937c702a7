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
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/ringbench/ringbench/pkg/actor"
	"github.com/ringbench/ringbench/pkg/channel"
	"github.com/ringbench/ringbench/pkg/clock"
	cerrors "github.com/ringbench/ringbench/pkg/errors"
	"github.com/ringbench/ringbench/pkg/ring"
)

// benchmark variants
const (
	// Single rendezvous channel, one writer and one reader.
	VariantReaderWriterStrict  = "ReaderWriterStrict"
	VariantReaderWriterTweaked = "ReaderWriterTweaked"
	// Token-passing rings, one goroutine per node.
	VariantRendezvousRing = "RendezvousRing"
	VariantBufferedRing   = "BufferedRing"
	VariantMailboxRing    = "MailboxRing"
	// Token-passing ring, poll actors multiplexed on a worker pool.
	VariantMailboxSystemRing = "MailboxSystemRing"
)

// RingVariants lists the variants that take ring size and chain count.
var RingVariants = []string{
	VariantRendezvousRing,
	VariantBufferedRing,
	VariantMailboxRing,
	VariantMailboxSystemRing,
}

// The canonical thread-ring size.
const defaultRingSize = 503

// Config is one benchmark configuration.
type Config struct {
	Variant string
	// Rings is the ring size n. Ignored by reader/writer variants.
	Rings int
	// Token is the initial token value m, the number of meaningful hops
	// per chain.
	Token int64
	// Chains is the parallel chain count p. Ignored by reader/writer
	// variants.
	Chains int
}

func (c Config) name() string {
	if c.Chains > 1 {
		return fmt.Sprintf("%s-p%d", c.Variant, c.Chains)
	}
	return c.Variant
}

// DefaultMatrix is the fixed benchmark set executed on a plain invocation.
// The widest parallel configurations are sized by the number of available
// processors.
func DefaultMatrix() []Config {
	procs := runtime.GOMAXPROCS(0)
	cfgs := []Config{
		{Variant: VariantReaderWriterStrict, Token: 2_000_000},
		{Variant: VariantReaderWriterTweaked, Token: 2_000_000},
	}
	for _, variant := range RingVariants {
		cfgs = append(cfgs,
			Config{Variant: variant, Rings: defaultRingSize, Token: 100_000, Chains: 1})
		if procs > 1 {
			cfgs = append(cfgs,
				Config{Variant: variant, Rings: defaultRingSize, Token: 100_000, Chains: procs})
		}
	}
	return cfgs
}

// Harness executes benchmark configurations sequentially, with a quiescence
// period between runs, and emits one result line per completed run. A failed
// run emits no line and aborts the remainder of the matrix.
type Harness struct {
	clk   clock.Clock
	out   io.Writer
	pause time.Duration
}

// NewHarness creates a Harness writing result lines to out.
func NewHarness(clk clock.Clock, out io.Writer, pause time.Duration) *Harness {
	return &Harness{clk: clk, out: out, pause: pause}
}

// Run executes every configuration to completion.
func (h *Harness) Run(ctx context.Context, cfgs []Config) error {
	for i, cfg := range cfgs {
		if i > 0 {
			Quiesce(h.clk, h.pause)
		}
		report, err := h.RunConfig(ctx, cfg)
		if err != nil {
			return errors.Trace(err)
		}
		fmt.Fprintln(h.out, report)
		log.Info("benchmark run complete",
			zap.String("variant", cfg.name()),
			zap.Int64("messages", report.Messages),
			zap.Duration("elapsed", report.Elapsed))
	}
	return nil
}

// RunConfig executes one configuration and returns its report.
func (h *Harness) RunConfig(ctx context.Context, cfg Config) (Report, error) {
	switch cfg.Variant {
	case VariantReaderWriterStrict, VariantReaderWriterTweaked:
		style := StyleStrict
		if cfg.Variant == VariantReaderWriterTweaked {
			style = StyleTweaked
		}
		return Measure(ctx, h.clk, cfg.name(), UnitHops, cfg.Token,
			func(ctx context.Context) (int64, error) {
				return ReaderWriter(ctx, style, cfg.Token)
			})
	case VariantRendezvousRing, VariantBufferedRing, VariantMailboxRing:
		return h.runRing(ctx, cfg, loopBuilder(cfg.Variant), nil)
	case VariantMailboxSystemRing:
		sys := actor.NewSystem[int64]("ringbench", 0)
		sys.Start(ctx)
		return h.runRing(ctx, cfg, ring.NewSystemBuilder(sys), sys.Stop)
	}
	return Report{}, cerrors.ErrUnknownVariant.GenWithStackByArgs(cfg.Variant)
}

func loopBuilder(variant string) ring.NodeBuilder {
	switch variant {
	case VariantBufferedRing:
		return ring.NewLoopBuilder(func() channel.Channel[int64] {
			return channel.NewBuffered[int64]()
		})
	case VariantMailboxRing:
		var next atomic.Uint64
		return ring.NewLoopBuilder(func() channel.Channel[int64] {
			return actor.NewMailbox[int64](actor.ID(next.Inc()))
		})
	default:
		return ring.NewLoopBuilder(func() channel.Channel[int64] {
			return channel.NewRendezvous[int64]()
		})
	}
}

func (h *Harness) runRing(
	ctx context.Context, cfg Config, b ring.NodeBuilder, stop func() error,
) (Report, error) {
	chains := cfg.Chains
	if chains < 1 {
		chains = 1
	}
	rings := cfg.Rings
	if rings < 1 {
		rings = defaultRingSize
	}
	report, err := Measure(ctx, h.clk, cfg.name(), UnitMessages, cfg.Token*int64(chains),
		func(ctx context.Context) (int64, error) {
			reporters, err := ring.RunParallel(ctx, b, chains, rings, cfg.Token)
			if err != nil {
				return 0, errors.Trace(err)
			}
			return int64(len(reporters)), nil
		})
	if stop != nil {
		if stopErr := stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}
	if err != nil {
		return Report{}, errors.Trace(err)
	}
	return report, nil
}
