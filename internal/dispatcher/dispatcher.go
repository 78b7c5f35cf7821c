package dispatcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	config "github.com/postcaldev/postcal/configs"
	"github.com/postcaldev/postcal/internal/adapters"
	"github.com/postcaldev/postcal/internal/apperrors"
	"github.com/postcaldev/postcal/internal/models"
	"github.com/postcaldev/postcal/internal/queue"
	"github.com/postcaldev/postcal/internal/repository"
	"github.com/postcaldev/postcal/internal/service"
)

// SchedulingQueue is the slice of the queue the dispatcher consumes.
type SchedulingQueue interface {
	PollDue(ctx context.Context, limit int) ([]*models.DeliveryTask, error)
	Release(ctx context.Context, task *models.DeliveryTask, outcome queue.Outcome) error
}

// PostReader resolves the content a claimed task should publish.
type PostReader interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
}

// Dispatcher ties queue, registry and adapters together: each cycle it
// claims due tasks, publishes them concurrently and records the outcomes.
type Dispatcher struct {
	q         SchedulingQueue
	registry  service.RegistryService
	posts     PostReader
	adapters  adapters.Set
	batchSize int
	workers   int
	timeout   time.Duration
}

func New(
	q SchedulingQueue,
	registry service.RegistryService,
	posts repository.PostRepository,
	set adapters.Set,
	cfg config.Dispatcher) *Dispatcher {
	return &Dispatcher{
		q:         q,
		registry:  registry,
		posts:     posts,
		adapters:  set,
		batchSize: cfg.BatchSize,
		workers:   cfg.Workers,
		timeout:   time.Duration(cfg.AdapterTimeoutSeconds) * time.Second,
	}
}

// RunCycle claims one batch and processes every task independently. A slow
// or stuck platform call only occupies one worker slot; it cannot starve
// the rest of the batch or stop the loop.
func (d *Dispatcher) RunCycle(ctx context.Context) {
	tasks, err := d.q.PollDue(ctx, d.batchSize)
	if err != nil {
		slog.Error("poll failed", "error", err)
		return
	}
	if len(tasks) == 0 {
		return
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, d.workers)

	for _, task := range tasks {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(task *models.DeliveryTask) {
			defer wg.Done()
			defer func() { <-semaphore }()
			d.deliver(ctx, task)
		}(task)
	}

	wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, task *models.DeliveryTask) {
	outcome := d.attempt(ctx, task)

	if err := d.q.Release(ctx, task, outcome); err != nil {
		slog.Error("release failed", "task_id", task.ID, "error", err)
		return
	}

	if outcome.Posted {
		slog.Info("task posted", "task_id", task.ID, "platform", task.Platform, "result_ref", outcome.ResultRef)
	} else {
		slog.Info("task failed", "task_id", task.ID, "platform", task.Platform,
			"error", outcome.Error, "retryable", outcome.Retryable)
	}
}

func (d *Dispatcher) attempt(ctx context.Context, task *models.DeliveryTask) queue.Outcome {
	post, err := d.posts.GetByID(ctx, task.PostID)
	if err != nil {
		return queue.Outcome{Error: "post lookup failed: " + err.Error(), Retryable: true}
	}
	if post == nil {
		// Post deleted after the claim; the release will no-op too.
		return queue.Outcome{Error: "post_deleted"}
	}

	account, err := d.registry.Lookup(ctx, post.ClientID, task.Platform)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// Retrying without credentials cannot succeed.
			return queue.Outcome{Error: "account_not_connected"}
		}
		return queue.Outcome{Error: "account lookup failed: " + err.Error(), Retryable: true}
	}
	if account.Status == models.AccountStatusAuthExpired {
		return queue.Outcome{Error: "account_auth_expired"}
	}

	publisher, ok := d.adapters.For(task.Platform)
	if !ok {
		return queue.Outcome{Error: "no adapter for platform " + task.Platform}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result, err := publisher.Publish(callCtx, &adapters.PublishRequest{
		Title:       post.Title,
		Body:        post.Body,
		MediaURL:    post.MediaURL,
		AccountID:   account.AccountID,
		AccessToken: account.AccessToken,
	})
	if err != nil {
		kind := adapters.KindOf(err)
		if kind == adapters.AuthExpired {
			if merr := d.registry.MarkAuthExpired(ctx, account.ID); merr != nil {
				slog.Error("failed to flag expired account", "account_id", account.ID, "error", merr)
			}
		}
		return queue.Outcome{Error: err.Error(), Retryable: kind == adapters.Transient}
	}

	return queue.Outcome{Posted: true, ResultRef: result.PlatformPostID}
}
