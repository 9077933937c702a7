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

package actor

import (
	"context"
	"runtime"
	"sync"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ringbench/ringbench/pkg/channel"
	"github.com/ringbench/ringbench/pkg/containers"
	cerrors "github.com/ringbench/ringbench/pkg/errors"
)

const (
	// The default size of polled actor batch.
	defaultMsgBatchSize = 64
	// The upper bound of workers a system may run.
	maxWorkerNum = 64
)

// proc is the unit of scheduling. It pins an actor to its mailbox and tracks
// whether the proc currently sits in the ready queue or under a worker.
type proc[T any] struct {
	mb    *Mailbox[T]
	actor Actor[T]

	// scheduled stays true from enqueue until the owning worker finishes a
	// poll round, which makes enqueueing at-most-once. A stopped proc keeps
	// the flag set forever so it can never be enqueued again.
	scheduled atomic.Bool
}

// System schedules actors on a fixed pool of workers. Any number of actors
// can be multiplexed: an actor with an empty mailbox occupies no worker and
// no goroutine, it is simply absent from the ready queue until a send wakes
// it.
type System[T any] struct {
	name      string
	numWorker int
	batchSize int

	mu     sync.Mutex
	cond   *sync.Cond
	ready  *containers.Queue[*proc[T]]
	closed bool

	procs sync.Map // ID -> *proc[T]

	workers *errgroup.Group
	cancel  context.CancelFunc
}

// NewSystem creates a System with numWorker workers. Zero or negative
// numWorker defaults to the number of processors.
func NewSystem[T any](name string, numWorker int) *System[T] {
	if numWorker <= 0 {
		numWorker = runtime.GOMAXPROCS(0)
	}
	if numWorker > maxWorkerNum {
		numWorker = maxWorkerNum
	}
	s := &System[T]{
		name:      name,
		numWorker: numWorker,
		batchSize: defaultMsgBatchSize,
		ready:     containers.NewQueue[*proc[T]](),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Start runs the system's workers. It must be called before any actor can be
// polled and at most once.
func (s *System[T]) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.workers, ctx = errgroup.WithContext(ctx)
	totalWorkers.WithLabelValues(s.name).Add(float64(s.numWorker))
	for i := 0; i < s.numWorker; i++ {
		s.workers.Go(func() error {
			defer workerPanicHandler(s.name)
			return s.poll(ctx)
		})
	}
}

// Stop cancels in-flight polls and waits for all workers to quit.
func (s *System[T]) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
	totalWorkers.WithLabelValues(s.name).Sub(float64(s.numWorker))
	if s.workers == nil {
		return nil
	}
	return errors.Trace(s.workers.Wait())
}

func workerPanicHandler(name string) {
	if r := recover(); r != nil {
		log.Panic("actor worker panicked",
			zap.String("name", name), zap.Any("panic", r))
	}
}

// Spawn registers an actor under its mailbox's ID. Messages sent before
// Spawn are delivered on the first poll.
func (s *System[T]) Spawn(mb *Mailbox[T], a Actor[T]) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return cerrors.ErrSystemStopped.GenWithStackByArgs()
	}
	p := &proc[T]{mb: mb, actor: a}
	if _, loaded := s.procs.LoadOrStore(mb.ID(), p); loaded {
		return cerrors.ErrActorDuplicate.GenWithStackByArgs(uint64(mb.ID()))
	}
	if mb.Len() > 0 {
		s.schedule(p)
	}
	return nil
}

// Remove unregisters actor id. Messages still queued in its mailbox are
// dropped; removing an unknown or already stopped id is a no-op. Callers use
// it to unwire actors that stopped forwarding without ever polling false.
func (s *System[T]) Remove(id ID) {
	s.procs.Delete(id)
}

// ActorCount returns the number of registered actors.
func (s *System[T]) ActorCount() int {
	count := 0
	s.procs.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Send routes a message to actor id's mailbox and wakes the actor.
// It never blocks.
func (s *System[T]) Send(ctx context.Context, id ID, msg T) error {
	v, ok := s.procs.Load(id)
	if !ok {
		return cerrors.ErrActorNotFound.FastGenByArgs(uint64(id))
	}
	p := v.(*proc[T])
	if err := p.mb.Send(ctx, msg); err != nil {
		return errors.Trace(err)
	}
	s.schedule(p)
	return nil
}

// NewMailbox creates a mailbox wired to this system's scheduler.
func (s *System[T]) NewMailbox(id ID) *SystemMailbox[T] {
	return &SystemMailbox[T]{sys: s, mb: NewMailbox[T](id)}
}

func (s *System[T]) schedule(p *proc[T]) {
	if !p.scheduled.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	s.ready.Push(p)
	s.mu.Unlock()
	s.cond.Signal()
}

// fetchProc blocks until a proc is ready or the system is stopped.
func (s *System[T]) fetchProc() *proc[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.closed {
			return nil
		}
		if p, ok := s.ready.Pop(); ok {
			return p
		}
		s.cond.Wait()
	}
}

func (s *System[T]) poll(ctx context.Context) error {
	batch := make([]T, 0, s.batchSize)
	for {
		p := s.fetchProc()
		if p == nil {
			return nil
		}

		batch = batch[:0]
		for len(batch) < s.batchSize {
			msg, ok := p.mb.TryReceive()
			if !ok {
				break
			}
			batch = append(batch, msg)
		}

		running := true
		if len(batch) > 0 {
			workingWorkers.WithLabelValues(s.name).Inc()
			running = p.actor.Poll(ctx, batch)
			polledMessages.WithLabelValues(s.name).Add(float64(len(batch)))
			workingWorkers.WithLabelValues(s.name).Dec()
		}
		if !running {
			// Leave scheduled set so the proc can never be enqueued again.
			s.procs.Delete(p.mb.ID())
			continue
		}

		// Clearing scheduled must precede the backlog re-check, otherwise a
		// send racing with the end of this round could be lost.
		p.scheduled.Store(false)
		if p.mb.Len() > 0 {
			s.schedule(p)
		}
	}
}

// SystemMailbox couples a mailbox with its system's scheduler so that a bare
// channel Send wakes the owning actor.
type SystemMailbox[T any] struct {
	sys *System[T]
	mb  *Mailbox[T]
}

var _ channel.Channel[int64] = (*SystemMailbox[int64])(nil)

// ID returns the owner's ID.
func (sm *SystemMailbox[T]) ID() ID {
	return sm.mb.ID()
}

// Spawn registers a as the owner of this mailbox.
func (sm *SystemMailbox[T]) Spawn(a Actor[T]) error {
	return sm.sys.Spawn(sm.mb, a)
}

// Send enqueues a message and schedules the owning actor. It never blocks.
func (sm *SystemMailbox[T]) Send(ctx context.Context, msg T) error {
	if err := sm.mb.Send(ctx, msg); err != nil {
		return errors.Trace(err)
	}
	if v, ok := sm.sys.procs.Load(sm.mb.ID()); ok {
		sm.sys.schedule(v.(*proc[T]))
	}
	return nil
}

// Receive blocks until a message is available. It is only meaningful before
// the mailbox's actor is spawned; afterwards the System delivers messages
// through Poll.
func (sm *SystemMailbox[T]) Receive(ctx context.Context) (T, error) {
	return sm.mb.Receive(ctx)
}
