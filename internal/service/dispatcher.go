package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultActionTimeout     = 10 * time.Second
	defaultActionConcurrency = 4
)

type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type TaskOutcome struct {
	Name  string `json:"action"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Dispatcher runs secondary actions after the primary record is committed.
// Every task is independent: a failure or panic is recorded in its outcome and
// never reaches the caller as an error.
type Dispatcher struct {
	timeout     time.Duration
	concurrency int
	log         zerolog.Logger
}

func NewDispatcher(timeout time.Duration, concurrency int, log zerolog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultActionTimeout
	}
	if concurrency <= 0 {
		concurrency = defaultActionConcurrency
	}
	return &Dispatcher{
		timeout:     timeout,
		concurrency: concurrency,
		log:         log,
	}
}

// Dispatch blocks until every task has finished. Tasks are detached from the
// caller's cancellation and bounded by the per-task timeout instead.
func (d *Dispatcher) Dispatch(ctx context.Context, tasks []Task) []TaskOutcome {
	base := context.WithoutCancel(ctx)
	outcomes := make([]TaskOutcome, len(tasks))

	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			taskCtx, cancel := context.WithTimeout(base, d.timeout)
			defer cancel()

			err := runTask(taskCtx, task)
			outcomes[i] = TaskOutcome{Name: task.Name, OK: err == nil}
			if err != nil {
				outcomes[i].Error = err.Error()
				d.log.Warn().Err(err).Str("action", task.Name).Msg("secondary action failed")
			}
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}

func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task.Run(ctx)
}

func failedOutcomes(outcomes []TaskOutcome) []string {
	var warnings []string
	for _, o := range outcomes {
		if !o.OK {
			warnings = append(warnings, fmt.Sprintf("action %s failed: %s", o.Name, o.Error))
		}
	}
	return warnings
}
