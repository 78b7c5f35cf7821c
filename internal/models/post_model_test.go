package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func task(status string) *DeliveryTask {
	return &DeliveryTask{Status: status}
}

func TestRollupStatus(t *testing.T) {
	assert := assert.New(t)

	t.Run("no tasks", func(t *testing.T) {
		assert.Equal(PostStatusScheduled, RollupStatus(nil))
	})

	t.Run("all posted", func(t *testing.T) {
		tasks := []*DeliveryTask{task(TaskStatusPosted), task(TaskStatusPosted)}
		assert.Equal(PostStatusPublished, RollupStatus(tasks))
	})

	t.Run("failure with work remaining stays scheduled", func(t *testing.T) {
		tasks := []*DeliveryTask{task(TaskStatusFailed), task(TaskStatusPending)}
		assert.Equal(PostStatusScheduled, RollupStatus(tasks))
	})

	t.Run("all resolved with a failure", func(t *testing.T) {
		tasks := []*DeliveryTask{task(TaskStatusFailed), task(TaskStatusPosted)}
		assert.Equal(PostStatusFailed, RollupStatus(tasks))
	})

	t.Run("pending only", func(t *testing.T) {
		tasks := []*DeliveryTask{task(TaskStatusPending), task(TaskStatusInFlight)}
		assert.Equal(PostStatusScheduled, RollupStatus(tasks))
	})
}

func TestDisplayStatus(t *testing.T) {
	assert := assert.New(t)
	now := time.Now()

	pending := &DeliveryTask{Status: TaskStatusPending, ScheduledTime: now.Add(time.Hour)}
	assert.Equal(TaskStatusPending, pending.DisplayStatus(now))

	due := &DeliveryTask{Status: TaskStatusPending, ScheduledTime: now.Add(-time.Minute)}
	assert.Equal(TaskStatusDue, due.DisplayStatus(now))

	inFlight := &DeliveryTask{Status: TaskStatusInFlight, ScheduledTime: now.Add(-time.Minute)}
	assert.Equal(TaskStatusInFlight, inFlight.DisplayStatus(now))
}

func TestTerminal(t *testing.T) {
	assert := assert.New(t)

	assert.False(task(TaskStatusPending).Terminal())
	assert.False(task(TaskStatusInFlight).Terminal())
	assert.True(task(TaskStatusPosted).Terminal())
	assert.True(task(TaskStatusFailed).Terminal())
}
