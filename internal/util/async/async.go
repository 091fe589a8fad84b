package async

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes tasks concurrently, at most limit at a time (limit <= 0
// means no limit). Every task runs to completion; the returned error joins the
// failures of all tasks, each prefixed with the task name.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "node-1", Func: provisionNode1},
//	    {Name: "node-2", Func: provisionNode2},
//	}
//	if err := RunParallel(ctx, tasks, 4); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task, limit int) error {
	if len(tasks) == 0 {
		return nil
	}

	errs := Collect(ctx, tasks, limit, func(ctx context.Context, task Task) error {
		if err := task.Func(ctx); err != nil {
			return fmt.Errorf("%s: %w", task.Name, err)
		}
		return nil
	})
	return errors.Join(errs...)
}

// Collect calls fn for every item concurrently, at most limit at a time, and
// returns the results in input order.
func Collect[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		g.Go(func() error {
			results[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
