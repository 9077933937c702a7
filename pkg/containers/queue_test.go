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

package containers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	t.Parallel()

	q := NewQueue[int]()
	require.Equal(t, 0, q.Len())
	_, ok := q.Pop()
	require.False(t, ok)
	_, ok = q.Peek()
	require.False(t, ok)

	for i := 0; i < 1000; i++ {
		q.Push(i)
	}
	require.Equal(t, 1000, q.Len())

	front, ok := q.Peek()
	require.True(t, ok)
	require.Equal(t, 0, front)

	for i := 0; i < 1000; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	require.Equal(t, 0, q.Len())
}

func TestQueueInterleaved(t *testing.T) {
	t.Parallel()

	q := NewQueue[string]()
	q.Push("a")
	q.Push("b")
	v, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, "a", v)
	q.Push("c")
	v, _ = q.Pop()
	require.Equal(t, "b", v)
	v, _ = q.Pop()
	require.Equal(t, "c", v)
	_, ok = q.Pop()
	require.False(t, ok)
}
