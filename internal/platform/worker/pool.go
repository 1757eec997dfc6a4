package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// PoolConfig configures a bounded worker pool run.
type PoolConfig struct {
	// Name identifies the pool for logging.
	Name string

	// Concurrency is the number of workers; values below 1 mean 1.
	Concurrency int

	// Logger for the pool.
	Logger *zerolog.Logger
}

// Pool runs task for every index in [0, n) using at most cfg.Concurrency
// workers. Workers pull the next index from a shared queue as soon as they
// finish, so one slow task never holds back unrelated ones. Pool returns when
// every dequeued task has finished; once ctx is canceled no further index is
// handed out. A panicking task is recovered and logged.
func Pool(ctx context.Context, cfg PoolConfig, n int, task func(ctx context.Context, i int)) {
	if n <= 0 {
		return
	}

	workers := cfg.Concurrency
	if workers < 1 {
		workers = 1
	}

	if workers > n {
		workers = n
	}

	logger := getLogger(cfg.Logger)

	queue := make(chan int, n)
	for i := 0; i < n; i++ {
		queue <- i
	}

	close(queue)

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range queue {
				if ctx.Err() != nil {
					return
				}

				runTask(ctx, logger, cfg.Name, i, task)
			}
		}()
	}

	wg.Wait()
}

func runTask(ctx context.Context, logger *zerolog.Logger, name string, i int, task func(ctx context.Context, i int)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Str(logFieldWorker, name).
				Int("task", i).
				Msg("recovered from panic in pool task")
		}
	}()

	task(ctx, i)
}
