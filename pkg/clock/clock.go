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

// Package clock is the harness's time source: a monotonic reading for
// measured intervals, immune to wall-clock adjustment, and a sleep for
// quiescing between runs. Both are mockable in tests.
package clock

import (
	"time"

	bclock "github.com/benbjohnson/clock"
	"github.com/gavv/monotime"
)

// MonotonicTime is a duration since an arbitrary fixed origin.
type MonotonicTime time.Duration

// Sub returns the duration m-other.
func (m MonotonicTime) Sub(other MonotonicTime) time.Duration {
	return time.Duration(m - other)
}

// Clock is the surface measurement code depends on.
type Clock interface {
	// Mono returns the current monotonic reading.
	Mono() MonotonicTime
	// Sleep pauses the calling goroutine for at least d.
	Sleep(d time.Duration)
}

type realClock struct {
	inner bclock.Clock
}

func (r realClock) Mono() MonotonicTime {
	return MonotonicTime(monotime.Now())
}

func (r realClock) Sleep(d time.Duration) {
	r.inner.Sleep(d)
}

// New creates a Clock backed by the real time source.
func New() Clock {
	return realClock{inner: bclock.New()}
}

// Mock is a Clock under test control: Add advances it, Sleep parks until it
// is advanced, and the monotonic reading follows the mocked wall clock.
type Mock struct {
	*bclock.Mock
}

var unixEpoch = time.Unix(0, 0)

func (m *Mock) Mono() MonotonicTime {
	return MonotonicTime(m.Now().Sub(unixEpoch))
}

// NewMock creates a mock Clock for tests.
func NewMock() *Mock {
	return &Mock{bclock.NewMock()}
}
