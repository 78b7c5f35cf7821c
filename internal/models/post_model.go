package models

import "time"

type Post struct {
	ID            int64     `db:"id" json:"id"`
	ClientID      int64     `db:"client_id" json:"client_id"`
	Title         string    `db:"title" json:"title"`
	Body          string    `db:"body" json:"body"`
	MediaURL      string    `db:"media_url" json:"media_url,omitempty"`
	ScheduledTime time.Time `db:"scheduled_time" json:"scheduled_time"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type MediaAsset struct {
	ID        int64     `db:"id" json:"id"`
	ClientID  int64     `db:"client_id" json:"client_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Rollup statuses derived from a post's delivery tasks.
const (
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

// RollupStatus computes the display status for a post from its tasks.
// Published only when every task posted; failed when at least one task is
// terminally failed and nothing is still pending or in flight.
func RollupStatus(tasks []*DeliveryTask) string {
	if len(tasks) == 0 {
		return PostStatusScheduled
	}

	posted := 0
	failed := 0
	for _, t := range tasks {
		switch t.Status {
		case TaskStatusPosted:
			posted++
		case TaskStatusFailed:
			failed++
		}
	}

	switch {
	case posted == len(tasks):
		return PostStatusPublished
	case failed > 0 && posted+failed == len(tasks):
		return PostStatusFailed
	default:
		return PostStatusScheduled
	}
}
