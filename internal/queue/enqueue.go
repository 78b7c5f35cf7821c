package queue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// EnqueueDispatch schedules a dispatch kick for when the post comes due.
func EnqueueDispatch(asynqClient *asynq.Client, payload DispatchPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeDispatch, taskPayload)

	if _, err = asynqClient.Enqueue(task, asynq.ProcessIn(delay)); err != nil {
		return err
	}

	slog.Info("dispatch kick scheduled", "post_id", payload.PostID, "delay", delay)
	return nil
}
