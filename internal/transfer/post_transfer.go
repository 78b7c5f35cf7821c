package transfer

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/postcaldev/postcal/internal/models"
)

type PostCreation struct {
	Title         string
	Body          string
	ScheduledTime string
	Platforms     string // JSON array of platform names
}

type PostReschedule struct {
	PostID        int64  `json:"post_id"`
	ScheduledTime string `json:"scheduled_time"`
}

// PostView is a post with its delivery tasks and the derived rollup status.
type PostView struct {
	*models.Post
	Status string                 `json:"status"`
	Tasks  []*models.DeliveryTask `json:"tasks"`
}

// TaskView is a delivery task with its display status; pending tasks past
// their scheduled time show as due.
type TaskView struct {
	*models.DeliveryTask
	DisplayStatus string `json:"display_status"`
}

type CustomClaims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}
