package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/postcaldev/postcal/internal/service"
)

// AccountExpiryJob periodically flags platform accounts whose tokens have
// lapsed so the dispatcher fails their tasks fast and clients see a
// reconnect prompt instead of silent delivery errors.
type AccountExpiryJob struct {
	registry service.RegistryService
}

func NewAccountExpiryJob(registry service.RegistryService) *AccountExpiryJob {
	return &AccountExpiryJob{registry: registry}
}

func (j *AccountExpiryJob) SweepExpired() {
	ctx := context.Background()

	marked, err := j.registry.SweepExpiring(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}

	if marked > 0 {
		slog.Info("expired platform accounts flagged", "count", marked)
	}
}
