package utils

import (
	"context"
	"fmt"
	"sync"
)

// ParallelTask is one named unit of work for RunParallel
type ParallelTask struct {
	Name string
	Fn   func(ctx context.Context) error
}

// RunParallel executes tasks concurrently and returns the first error,
// prefixed with the failing task's name. The context passed to the tasks is
// cancelled as soon as one of them fails.
func RunParallel(ctx context.Context, tasks ...ParallelTask) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errChan := make(chan error, len(tasks))

	for _, task := range tasks {
		wg.Add(1)
		go func(t ParallelTask) {
			defer wg.Done()
			if err := t.Fn(ctx); err != nil {
				errChan <- fmt.Errorf("%s: %w", t.Name, err)
				cancel()
			}
		}(task)
	}

	wg.Wait()
	close(errChan)

	// First error wins
	for err := range errChan {
		return err
	}
	return ctx.Err()
}
