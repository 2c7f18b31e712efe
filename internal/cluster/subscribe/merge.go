package subscribe

import (
	"context"
	"sort"
	"sync"
)

// fanIn merges N source channels into one, closing the combined channel
// once every source has closed. Used as the "combined stream" the
// chunked sort-merge reads ready items from (§4.12.2).
func fanIn[T any](ctx context.Context, sources []<-chan T) <-chan T {
	out := make(chan T)
	var wg sync.WaitGroup
	wg.Add(len(sources))
	for _, s := range sources {
		go func(s <-chan T) {
			defer wg.Done()
			for {
				select {
				case v, ok := <-s:
					if !ok {
						return
					}
					select {
					case out <- v:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}(s)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// chunkedSortMerge reads ready items from in in chunks of up to
// chunkSize, stable-sorts each chunk with less, and flushes it
// downstream before pulling the next chunk. A chunk always contains at
// least one item (the read that opens it blocks until one is
// available); every subsequent slot in the same chunk is filled only by
// items already waiting, so a quiet source never head-of-line-blocks a
// chunk that's ready to flush (§4.12.2). This gives coarse, chunk-local
// time ordering, not a total order across the whole stream.
func chunkedSortMerge[T any](ctx context.Context, in <-chan T, chunkSize int, less func(a, b T) bool) <-chan T {
	if chunkSize < 1 {
		chunkSize = 1
	}
	out := make(chan T)
	go func() {
		defer close(out)
		for {
			first, ok := recvOrDone(ctx, in)
			if !ok {
				return
			}
			chunk := make([]T, 0, chunkSize)
			chunk = append(chunk, first)
		drain:
			for len(chunk) < chunkSize {
				select {
				case v, ok := <-in:
					if !ok {
						break drain
					}
					chunk = append(chunk, v)
				default:
					break drain
				}
			}

			sort.SliceStable(chunk, func(i, j int) bool { return less(chunk[i], chunk[j]) })

			for _, v := range chunk {
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func recvOrDone[T any](ctx context.Context, in <-chan T) (T, bool) {
	select {
	case v, ok := <-in:
		return v, ok
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}
