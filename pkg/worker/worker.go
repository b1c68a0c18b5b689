package worker

import (
	"context"
	"fmt"
)

// Worker executes tasks one at a time.
type Worker struct {
	id int
}

func NewWorker(id int) *Worker {
	return &Worker{id: id}
}

// Run executes task unless ctx is already done. A panicking task is reported
// as a failed result rather than taking down the pool.
func (w *Worker) Run(ctx context.Context, task Task) (res Result) {
	res = Result{Name: task.Name, WorkerID: w.id}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("panic: %v", p)
		}
	}()
	res.Err = task.Run(ctx)
	return res
}
