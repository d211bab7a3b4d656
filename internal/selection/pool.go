package selection

import (
	"context"
	"sync"
)

// runPool calls fn for every index in [0, n) on at most workers goroutines.
// Indices not yet started when ctx ends are skipped.
func runPool(ctx context.Context, n, workers int, fn func(ctx context.Context, i int)) {
	if workers > n {
		workers = n
	}

	jobCh := make(chan int, n)
	for i := 0; i < n; i++ {
		jobCh <- i
	}
	close(jobCh)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				select {
				case <-ctx.Done():
					return
				default:
				}
				fn(ctx, i)
			}
		}()
	}
	wg.Wait()
}
