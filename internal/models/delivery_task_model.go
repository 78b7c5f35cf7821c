package models

import (
	"database/sql"
	"time"
)

type DeliveryTask struct {
	ID            int64        `db:"id" json:"id"`
	PostID        int64        `db:"post_id" json:"post_id"`
	Platform      string       `db:"platform" json:"platform"`
	Status        string       `db:"status" json:"status"`
	ScheduledTime time.Time    `db:"scheduled_time" json:"scheduled_time"`
	AttemptCount  int          `db:"attempt_count" json:"attempt_count"`
	LastError     string       `db:"last_error" json:"last_error,omitempty"`
	ResultRef     string       `db:"result_ref" json:"result_ref,omitempty"`
	LastAttemptAt sql.NullTime `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
	CompletedAt   sql.NullTime `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// Task states. A failed task is terminal; retryable failures go back to
// pending with a backoff-advanced scheduled_time instead.
const (
	TaskStatusPending  = "pending"
	TaskStatusInFlight = "in_flight"
	TaskStatusPosted   = "posted"
	TaskStatusFailed   = "failed"
)

// TaskStatusDue is a display-only state for pending tasks whose
// scheduled_time has passed. It never appears in storage.
const TaskStatusDue = "due"

func (t *DeliveryTask) Terminal() bool {
	return t.Status == TaskStatusPosted || t.Status == TaskStatusFailed
}

// DisplayStatus reports due for pending tasks already past their
// scheduled_time.
func (t *DeliveryTask) DisplayStatus(now time.Time) string {
	if t.Status == TaskStatusPending && !t.ScheduledTime.After(now) {
		return TaskStatusDue
	}
	return t.Status
}
