package subscribe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect[T any](t *testing.T, ch <-chan T, n int) []T {
	t.Helper()
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed early after %d items", len(out))
			}
			out = append(out, v)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for item %d", i)
		}
	}
	return out
}

func TestFanIn_MergesAllSourcesAndClosesWhenDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := make(chan int, 2)
	b := make(chan int, 2)
	a <- 1
	a <- 2
	close(a)
	b <- 3
	close(b)

	out := fanIn(ctx, []<-chan int{a, b})
	got := collect(t, out, 3)
	assert.ElementsMatch(t, []int{1, 2, 3}, got)

	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("fanIn output never closed")
	}
}

func TestFanIn_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := make(chan int)
	out := fanIn(ctx, []<-chan int{src})

	cancel()
	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("fanIn did not close after cancel")
	}
}

func TestChunkedSortMerge_SortsWithinReadyChunk(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int, 5)
	in <- 5
	in <- 3
	in <- 4
	in <- 1
	in <- 2
	close(in)

	out := chunkedSortMerge(ctx, in, 10, func(a, b int) bool { return a < b })
	got := collect(t, out, 5)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestChunkedSortMerge_FlushesPartialChunkWhenSourceGoesQuiet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int, 2)
	in <- 10
	in <- 1
	out := chunkedSortMerge(ctx, in, 10, func(a, b int) bool { return a < b })

	// Both buffered items are ready before the merge goroutine's drain
	// loop runs, so the first chunk flushes both, sorted, without
	// waiting for a third item that never comes.
	first := collect(t, out, 2)
	assert.Equal(t, []int{1, 10}, first)

	in <- 20
	close(in)
	second := collect(t, out, 1)
	assert.Equal(t, []int{20}, second)

	_, ok := <-out
	assert.False(t, ok)
}

func TestRecvOrDone_ReturnsFalseOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := recvOrDone(ctx, make(chan int))
	require.False(t, ok)
}
