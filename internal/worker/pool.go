package worker

import (
	"context"
	"sync"

	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

var logger = sync.OnceValue(func() *logger_i.Logger {
	return logger_i.NewLogger("WorkerPool")
})

// Run calls task for every index in [0, n) on at most size workers and
// returns once all dispatched tasks have finished. Tasks still queued when
// ctx is cancelled are never started. Callers keep per-index results in
// their own slice, so output order never depends on scheduling.
func Run(ctx context.Context, size, n int, task func(ctx context.Context, i int)) {
	if n <= 0 {
		return
	}
	if size <= 0 {
		size = 1
	}
	size = min(size, n)

	jobChannel := make(chan int)
	var workerWaitGroup sync.WaitGroup

	logger().Debug("starting workers", "workers", size, "tasks", n)
	for w := 0; w < size; w++ {
		workerWaitGroup.Add(1)
		metrics.IncrementActiveWorkerCount()
		go func() {
			defer func() {
				metrics.DecrementActiveWorkerCount()
				workerWaitGroup.Done()
			}()
			for i := range jobChannel {
				task(ctx, i)
				metrics.DecrementTasksInQueue()
			}
		}()
	}

	dispatch(ctx, n, jobChannel)
	workerWaitGroup.Wait()
}

func dispatch(ctx context.Context, n int, jobChannel chan<- int) {
	defer close(jobChannel)
	for i := 0; i < n; i++ {
		metrics.IncrementTasksInQueue()
		select {
		case jobChannel <- i:
		case <-ctx.Done():
			metrics.DecrementTasksInQueue()
			logger().Warn("dispatch stopped", "dispatched", i, "tasks", n, "error", ctx.Err())
			return
		}
	}
}
