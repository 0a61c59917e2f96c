package rank

import (
	"runtime"
	"sync"

	"github.com/inodb/vibe-rank/internal/matrix"
)

// WorkItem holds one matrix row ready for testing.
type WorkItem struct {
	Seq   int
	ID    string
	Cells []matrix.Cell
}

// WorkResult holds the test output for a single row.
type WorkResult struct {
	Seq    int
	ID     string
	Median float64
	PValue float64
	OK     bool
}

// ParallelTest tests work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func ParallelTest(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				median, p, ok := TestRow(item.Cells)
				results <- WorkResult{
					Seq:    item.Seq,
					ID:     item.ID,
					Median: median,
					PValue: p,
					OK:     ok,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
