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
	"github.com/edwingeng/deque"
)

// Queue is an unbounded FIFO backed by edwingeng/deque.
// It is not safe for concurrent use; owners guard it with their own lock.
type Queue[T any] struct {
	dq deque.Deque
}

// NewQueue creates an empty Queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{dq: deque.NewDeque()}
}

// Push appends v to the back of the queue.
func (q *Queue[T]) Push(v T) {
	q.dq.PushBack(v)
}

// Pop removes and returns the front of the queue.
func (q *Queue[T]) Pop() (T, bool) {
	if q.dq.Empty() {
		var zero T
		return zero, false
	}
	return q.dq.PopFront().(T), true
}

// Peek returns the front of the queue without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if q.dq.Empty() {
		var zero T
		return zero, false
	}
	return q.dq.Front().(T), true
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int {
	return q.dq.Len()
}
