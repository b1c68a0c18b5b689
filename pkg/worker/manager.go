package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Task is one unit of work handed to the pool.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Result reports how a task finished.
type Result struct {
	Name     string
	WorkerID int
	Err      error
}

// Manager runs tasks on a fixed number of workers.
type Manager struct {
	workerCount int
	logger      *zap.Logger
}

// NewManager creates a new manager. workerCount below 1 is treated as 1.
func NewManager(workerCount int, logger *zap.Logger) *Manager {
	if workerCount < 1 {
		workerCount = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		workerCount: workerCount,
		logger:      logger,
	}
}

// Process runs every task and returns the results in task order. Tasks not
// yet started when ctx is canceled fail with the context error.
func (m *Manager) Process(ctx context.Context, tasks []Task) []Result {
	type job struct {
		index int
		task  Task
	}

	jobChan := make(chan job, len(tasks))
	for i, t := range tasks {
		jobChan <- job{index: i, task: t}
	}
	close(jobChan)

	type indexed struct {
		index int
		res   Result
	}
	resultsChan := make(chan indexed, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < m.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			w := NewWorker(workerID)
			for j := range jobChan {
				resultsChan <- indexed{index: j.index, res: w.Run(ctx, j.task)}
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Aggregate on a single goroutine.
	results := make([]Result, len(tasks))
	var successCount, errorCount int
	for r := range resultsChan {
		results[r.index] = r.res
		if r.res.Err != nil {
			errorCount++
			m.logger.Warn("task failed",
				zap.String("task", r.res.Name),
				zap.Int("worker", r.res.WorkerID),
				zap.Error(r.res.Err))
			continue
		}
		successCount++
	}

	m.logger.Debug("tasks completed",
		zap.Int("successful", successCount),
		zap.Int("errors", errorCount),
		zap.Int("total", len(tasks)))
	return results
}

// Join folds failed results into one error, nil when every task succeeded.
func Join(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}
