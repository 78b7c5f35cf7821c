package queue

import (
	"context"
	"log/slog"
	"time"

	config "github.com/postcaldev/postcal/configs"
	"github.com/postcaldev/postcal/internal/models"
	"github.com/postcaldev/postcal/internal/repository"
)

// Queue is the scheduling queue: the set of delivery tasks whose
// scheduled_time has passed, with atomic claiming and retry bookkeeping.
// The delivery_tasks table is the source of truth; claims go through a
// single compare-and-set so concurrent dispatchers never double-claim.
type Queue struct {
	dt          repository.DeliveryTaskRepository
	retryLimit  int
	backoffBase time.Duration
	backoffCap  time.Duration
}

func NewQueue(dt repository.DeliveryTaskRepository, cfg config.Dispatcher) *Queue {
	return &Queue{
		dt:          dt,
		retryLimit:  cfg.RetryLimit,
		backoffBase: time.Duration(cfg.BackoffBaseSeconds) * time.Second,
		backoffCap:  time.Duration(cfg.BackoffCapSeconds) * time.Second,
	}
}

// Outcome records how a claimed task resolved.
type Outcome struct {
	Posted    bool
	ResultRef string
	Error     string
	Retryable bool
}

// PollDue claims up to limit due tasks, transitioning each to in_flight so
// no other poller can return them.
func (q *Queue) PollDue(ctx context.Context, limit int) ([]*models.DeliveryTask, error) {
	return q.dt.ClaimDue(ctx, limit, time.Now())
}

// Release resolves a claimed task. Retryable failures under the retry limit
// go back to pending with an exponentially backed-off scheduled_time;
// everything else is terminal. A task deleted mid-flight (its post was
// removed) makes the guarded update a no-op, which is logged and dropped.
func (q *Queue) Release(ctx context.Context, task *models.DeliveryTask, outcome Outcome) error {
	var ok bool
	var err error

	switch {
	case outcome.Posted:
		ok, err = q.dt.MarkPosted(ctx, task.ID, outcome.ResultRef)
	case outcome.Retryable && task.AttemptCount+1 < q.retryLimit:
		next := time.Now().Add(q.Backoff(task.AttemptCount))
		ok, err = q.dt.Requeue(ctx, task.ID, outcome.Error, next)
	default:
		ok, err = q.dt.MarkFailed(ctx, task.ID, outcome.Error)
	}

	if err != nil {
		return err
	}
	if !ok {
		slog.Info("release skipped: task no longer claimed",
			"task_id", task.ID, "post_id", task.PostID, "platform", task.Platform)
	}
	return nil
}

// Backoff doubles per attempt from the base, capped.
func (q *Queue) Backoff(attempts int) time.Duration {
	d := q.backoffBase << uint(attempts)
	if d <= 0 || d > q.backoffCap {
		return q.backoffCap
	}
	return d
}
