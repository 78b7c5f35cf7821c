package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Runner is the dispatcher's cycle entry point; the asynq worker triggers
// it so a due post is delivered promptly instead of waiting out the poll
// interval.
type Runner interface {
	RunCycle(ctx context.Context)
}

type Worker struct {
	runner Runner
}

func NewWorker(runner Runner) *Worker {
	return &Worker{runner: runner}
}

func (w *Worker) HandleDispatchTask(ctx context.Context, task *asynq.Task) error {
	var payload DispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	w.runner.RunCycle(ctx)
	return nil
}
