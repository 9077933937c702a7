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

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ringbench/ringbench/pkg/actor"
	"github.com/ringbench/ringbench/pkg/benchmark"
	"github.com/ringbench/ringbench/pkg/clock"
)

// options defines flags for the ringbench command.
type options struct {
	variants []string
	ringSize int
	token    int64
	chains   int
	pause    time.Duration
	logLevel string
}

// newOptions creates new options with the harness defaults.
func newOptions() *options {
	return &options{
		ringSize: 503,
		token:    100_000,
		chains:   1,
		pause:    100 * time.Millisecond,
		logLevel: "warn",
	}
}

// addFlags binds the benchmark flags to cmd. Without any flag the fixed
// default matrix runs.
func (o *options) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&o.variants, "variant", nil,
		"benchmark variants to run (default: the full fixed matrix)")
	cmd.Flags().IntVar(&o.ringSize, "ring-size", o.ringSize, "number of actors per ring")
	cmd.Flags().Int64Var(&o.token, "token", o.token, "initial token value, the hops per chain")
	cmd.Flags().IntVar(&o.chains, "chains", o.chains, "number of parallel chains")
	cmd.Flags().DurationVar(&o.pause, "pause", o.pause, "quiescence pause between runs")
	cmd.Flags().StringVar(&o.logLevel, "log-level", o.logLevel, "log level (etc: debug|info|warn|error)")
}

// configs translates flags into the benchmark set to execute.
func (o *options) configs(cmd *cobra.Command) []benchmark.Config {
	overridden := cmd.Flags().Changed("ring-size") ||
		cmd.Flags().Changed("token") || cmd.Flags().Changed("chains")
	if len(o.variants) == 0 && !overridden {
		return benchmark.DefaultMatrix()
	}
	variants := o.variants
	if len(variants) == 0 {
		variants = append([]string{
			benchmark.VariantReaderWriterStrict,
			benchmark.VariantReaderWriterTweaked,
		}, benchmark.RingVariants...)
	}
	cfgs := make([]benchmark.Config, 0, len(variants))
	for _, variant := range variants {
		cfgs = append(cfgs, benchmark.Config{
			Variant: variant,
			Rings:   o.ringSize,
			Token:   o.token,
			Chains:  o.chains,
		})
	}
	return cfgs
}

// run executes the benchmark matrix to completion.
func (o *options) run(cmd *cobra.Command) error {
	lg, props, err := log.InitLogger(&log.Config{Level: o.logLevel})
	if err != nil {
		return errors.Trace(err)
	}
	log.ReplaceGlobals(lg, props)

	registry := prometheus.NewRegistry()
	actor.InitMetrics(registry)

	ctx, cancel := cmdContext()
	defer cancel()

	h := benchmark.NewHarness(clock.New(), os.Stdout, o.pause)
	return errors.Trace(h.Run(ctx, o.configs(cmd)))
}

// cmdContext returns a context cancelled on exit signals.
func cmdContext() (context.Context, context.CancelFunc) {
	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-sc
		log.Info("got signal to exit", zap.Stringer("signal", sig))
		cancel()
	}()
	return ctx, cancel
}

// NewCmd creates the root command of ringbench.
func NewCmd() *cobra.Command {
	o := newOptions()
	cmd := &cobra.Command{
		Use:          "ringbench",
		Short:        "ringbench measures in-process message-passing throughput",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}
	o.addFlags(cmd)
	return cmd
}

// Run executes the root command. Any unrecovered failure terminates the
// process with a non-zero exit status.
func Run() {
	if err := NewCmd().Execute(); err != nil {
		log.Error("ringbench failed", zap.Error(err))
		os.Exit(1)
	}
}
