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

package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRendezvousHandoff(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ch := NewRendezvous[int]()

	got := make(chan int)
	go func() {
		v, err := ch.Receive(ctx)
		require.NoError(t, err)
		got <- v
	}()
	require.NoError(t, ch.Send(ctx, 42))
	require.Equal(t, 42, <-got)
}

func TestRendezvousSendBlocksUntilReceive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ch := NewRendezvous[int]()

	sent := make(chan struct{})
	go func() {
		require.NoError(t, ch.Send(ctx, 1))
		close(sent)
	}()
	select {
	case <-sent:
		t.Fatal("send completed without a receiver")
	case <-time.After(50 * time.Millisecond):
	}
	_, err := ch.Receive(ctx)
	require.NoError(t, err)
	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("send did not complete after receive")
	}
}

func TestRendezvousReceiveBlocksUntilSend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ch := NewRendezvous[int]()

	got := make(chan int)
	go func() {
		v, err := ch.Receive(ctx)
		require.NoError(t, err)
		got <- v
	}()
	select {
	case <-got:
		t.Fatal("receive completed without a sender")
	case <-time.After(50 * time.Millisecond):
	}
	require.NoError(t, ch.Send(ctx, 7))
	require.Equal(t, 7, <-got)
}

// Queued senders must be matched in arrival order.
func TestRendezvousSenderFIFO(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ch := NewRendezvous[int]()

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, ch.Send(ctx, i))
		}()
		// Let sender i park before sender i+1 starts so arrival order
		// is deterministic.
		waitParked(t, ch, i+1)
	}
	for i := 0; i < n; i++ {
		v, err := ch.Receive(ctx)
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
	wg.Wait()
}

func waitParked(t *testing.T, ch *Rendezvous[int], want int) {
	require.Eventually(t, func() bool {
		ch.mu.Lock()
		defer ch.mu.Unlock()
		return ch.senders.Len() == want
	}, time.Second, time.Millisecond)
}

func TestRendezvousCancelSend(t *testing.T) {
	t.Parallel()

	ch := NewRendezvous[int]()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error)
	go func() {
		errCh <- ch.Send(ctx, 1)
	}()
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	// A cancelled sender must not poison later matches.
	go func() {
		errCh <- ch.Send(context.Background(), 2)
	}()
	v, err := ch.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, v)
	require.NoError(t, <-errCh)
}

func TestRendezvousCancelReceive(t *testing.T) {
	t.Parallel()

	ch := NewRendezvous[int]()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error)
	go func() {
		_, err := ch.Receive(ctx)
		errCh <- err
	}()
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	// A cancelled receiver must be skipped by the next send.
	got := make(chan int)
	go func() {
		v, err := ch.Receive(context.Background())
		require.NoError(t, err)
		got <- v
	}()
	require.NoError(t, ch.Send(context.Background(), 3))
	require.Equal(t, 3, <-got)
}

func TestRendezvousConcurrentPairs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ch := NewRendezvous[int]()

	const pairs = 64
	const perPair = 100
	var wg sync.WaitGroup
	sums := make(chan int, pairs)
	for p := 0; p < pairs; p++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 1; i <= perPair; i++ {
				require.NoError(t, ch.Send(ctx, i))
			}
		}()
		go func() {
			defer wg.Done()
			sum := 0
			for i := 0; i < perPair; i++ {
				v, err := ch.Receive(ctx)
				require.NoError(t, err)
				sum += v
			}
			sums <- sum
		}()
	}
	wg.Wait()
	total := 0
	for p := 0; p < pairs; p++ {
		total += <-sums
	}
	require.Equal(t, pairs*perPair*(perPair+1)/2, total)
}
