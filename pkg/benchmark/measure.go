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
	"math"
	"runtime"
	"time"

	"github.com/pingcap/errors"

	"github.com/ringbench/ringbench/pkg/clock"
)

// Unit is the unit a report's throughput is expressed in.
type Unit string

// units
const (
	UnitMessages Unit = "msgs/s"
	UnitHops     Unit = "hops per second"
)

// Report is the outcome of one measured configuration.
type Report struct {
	Name     string
	Unit     Unit
	Messages int64
	Elapsed  time.Duration
	Result   int64
}

// Throughput is messages per elapsed second. A zero elapsed time yields NaN
// rather than a division by zero.
func (r Report) Throughput() float64 {
	secs := r.Elapsed.Seconds()
	if secs == 0 {
		return math.NaN()
	}
	return float64(r.Messages) / secs
}

// String renders the report's stdout line.
func (r Report) String() string {
	if r.Unit == UnitHops {
		return fmt.Sprintf("%s: %.0f %s - %dm/%.3fs - %d",
			r.Name, r.Throughput(), UnitHops, r.Messages, r.Elapsed.Seconds(), r.Result)
	}
	return fmt.Sprintf("%s: %.0f %s - %dm/%.3fs - %d",
		r.Name, r.Throughput(), UnitMessages, r.Messages, r.Elapsed.Seconds(), r.Result)
}

// Measure records monotonic wall-clock time around fn run to completion.
// messages is the number of meaningful transfers fn performs; fn's return
// value is carried into the report as the run's result.
func Measure(
	ctx context.Context, clk clock.Clock, name string, unit Unit, messages int64,
	fn func(ctx context.Context) (int64, error),
) (Report, error) {
	start := clk.Mono()
	result, err := fn(ctx)
	if err != nil {
		return Report{}, errors.Trace(err)
	}
	return Report{
		Name:     name,
		Unit:     unit,
		Messages: messages,
		Elapsed:  clk.Mono().Sub(start),
		Result:   result,
	}, nil
}

// Quiesce forces a collection and a short pause so one run's residual
// scheduler and memory pressure does not bias the next run. It is a
// noise-reduction step between measured runs, not part of any primitive's
// contract.
func Quiesce(clk clock.Clock, pause time.Duration) {
	runtime.GC()
	if pause > 0 {
		clk.Sleep(pause)
	}
}
