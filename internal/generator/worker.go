package generator

import (
	"fmt"
	"runtime"
	"sync"
)

// IDRange represents a pre-allocated range of IDs for one chunk
type IDRange struct {
	Start int64 // First ID (inclusive)
	End   int64 // Last ID (exclusive)
}

// Len returns the number of IDs in the range
func (r IDRange) Len() int {
	return int(r.End - r.Start)
}

// GetWorkerCount returns the number of workers to use.
// If configured workers is 0, auto-detects using runtime.NumCPU().
func GetWorkerCount(configured int) int {
	if configured > 0 {
		return configured
	}
	cpus := runtime.NumCPU()
	if cpus < 1 {
		return 1
	}
	return cpus
}

// ChunkRanges splits ids 1..total into consecutive ranges of chunkSize.
// The split depends only on total and chunkSize, never on the worker count,
// so each chunk sees the same ids and the same random stream on every run.
func ChunkRanges(total int64, chunkSize int) []IDRange {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 5000
	}
	size := int64(chunkSize)
	ranges := make([]IDRange, 0, (total+size-1)/size)
	for start := int64(1); start <= total; start += size {
		ranges = append(ranges, IDRange{Start: start, End: min(start+size, total+1)})
	}
	return ranges
}

// runChunks builds chunks [from, to) on at most workers goroutines and
// returns their results in chunk order. The first error wins.
func runChunks[T any](from, to, workers int, build func(chunk int) (T, error)) ([]T, error) {
	n := to - from
	if n <= 0 {
		return nil, nil
	}
	workers = max(1, min(workers, n))

	results := make([]T, n)
	errChan := make(chan error, n)
	jobs := make(chan int, n)
	for c := from; c < to; c++ {
		jobs <- c
	}
	close(jobs)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				res, err := build(c)
				if err != nil {
					errChan <- fmt.Errorf("chunk %d: %w", c, err)
					continue
				}
				results[c-from] = res
			}
		}()
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		return nil, err
	}
	return results, nil
}
