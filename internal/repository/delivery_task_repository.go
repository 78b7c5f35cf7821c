package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postcaldev/postcal/internal/models"
)

type DeliveryTaskRepository interface {
	Create(ctx context.Context, tx *sql.Tx, task *models.DeliveryTask) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.DeliveryTask, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.DeliveryTask, error)
	ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.DeliveryTask, error)
	ClaimDue(ctx context.Context, limit int, now time.Time) ([]*models.DeliveryTask, error)
	MarkPosted(ctx context.Context, id int64, resultRef string) (bool, error)
	MarkFailed(ctx context.Context, id int64, lastError string) (bool, error)
	Requeue(ctx context.Context, id int64, lastError string, nextTime time.Time) (bool, error)
	CancelNonTerminal(ctx context.Context, tx *sql.Tx, postID int64) error
	RescheduleNonTerminal(ctx context.Context, tx *sql.Tx, postID int64, scheduledTime time.Time) error
	ListQueued(ctx context.Context, clientID int64, limit, offset int) ([]*models.DeliveryTask, error)
	ListPublished(ctx context.Context, clientID int64, limit, offset int) ([]*models.DeliveryTask, error)
}

type deliveryTaskRepository struct {
	db *sql.DB
}

func NewDeliveryTaskRepository(db *sql.DB) DeliveryTaskRepository {
	return &deliveryTaskRepository{db: db}
}

const taskColumns = `id, post_id, platform, status, scheduled_time, attempt_count,
	last_error, result_ref, last_attempt_at, completed_at, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*models.DeliveryTask, error) {
	var t models.DeliveryTask
	err := row.Scan(&t.ID, &t.PostID, &t.Platform, &t.Status, &t.ScheduledTime, &t.AttemptCount,
		&t.LastError, &t.ResultRef, &t.LastAttemptAt, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *deliveryTaskRepository) Create(ctx context.Context, tx *sql.Tx, task *models.DeliveryTask) (int64, error) {
	query := `
		INSERT INTO delivery_tasks (post_id, platform, status, scheduled_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, task.PostID, task.Platform, task.Status, task.ScheduledTime).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, task.PostID, task.Platform, task.Status, task.ScheduledTime).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *deliveryTaskRepository) GetByID(ctx context.Context, id int64) (*models.DeliveryTask, error) {
	query := `SELECT ` + taskColumns + ` FROM delivery_tasks WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return task, nil
}

func (r *deliveryTaskRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.DeliveryTask, error) {
	query := `SELECT ` + taskColumns + ` FROM delivery_tasks WHERE post_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (r *deliveryTaskRepository) ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.DeliveryTask, error) {
	if len(postIDs) == 0 {
		return map[int64][]*models.DeliveryTask{}, nil
	}

	query := `SELECT ` + taskColumns + ` FROM delivery_tasks WHERE post_id = ANY($1) ORDER BY post_id, id`
	rows, err := r.db.QueryContext(ctx, query, int64Array(postIDs))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}

	byPost := make(map[int64][]*models.DeliveryTask, len(postIDs))
	for _, t := range tasks {
		byPost[t.PostID] = append(byPost[t.PostID], t)
	}
	return byPost, nil
}

// ClaimDue atomically moves up to limit due pending tasks to in_flight and
// returns them. FOR UPDATE SKIP LOCKED keeps concurrent dispatchers from
// claiming the same row, so at most one attempt is ever in flight per task.
func (r *deliveryTaskRepository) ClaimDue(ctx context.Context, limit int, now time.Time) ([]*models.DeliveryTask, error) {
	query := `
		UPDATE delivery_tasks
		SET status = $1,
			last_attempt_at = $2,
			updated_at = $2
		WHERE id IN (
			SELECT id FROM delivery_tasks
			WHERE status = $3 AND scheduled_time <= $2
			ORDER BY scheduled_time, id
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + taskColumns

	rows, err := r.db.QueryContext(ctx, query, models.TaskStatusInFlight, now, models.TaskStatusPending, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (r *deliveryTaskRepository) MarkPosted(ctx context.Context, id int64, resultRef string) (bool, error) {
	query := `
		UPDATE delivery_tasks
		SET status = $1,
			result_ref = $2,
			last_error = '',
			completed_at = $3,
			updated_at = $3
		WHERE id = $4 AND status = $5
	`
	return r.execClaimed(ctx, query, models.TaskStatusPosted, resultRef, time.Now(), id, models.TaskStatusInFlight)
}

func (r *deliveryTaskRepository) MarkFailed(ctx context.Context, id int64, lastError string) (bool, error) {
	query := `
		UPDATE delivery_tasks
		SET status = $1,
			last_error = $2,
			attempt_count = attempt_count + 1,
			completed_at = $3,
			updated_at = $3
		WHERE id = $4 AND status = $5
	`
	return r.execClaimed(ctx, query, models.TaskStatusFailed, lastError, time.Now(), id, models.TaskStatusInFlight)
}

func (r *deliveryTaskRepository) Requeue(ctx context.Context, id int64, lastError string, nextTime time.Time) (bool, error) {
	query := `
		UPDATE delivery_tasks
		SET status = $1,
			last_error = $2,
			attempt_count = attempt_count + 1,
			scheduled_time = $3,
			updated_at = $4
		WHERE id = $5 AND status = $6
	`
	return r.execClaimed(ctx, query, models.TaskStatusPending, lastError, nextTime, time.Now(), id, models.TaskStatusInFlight)
}

// execClaimed runs a release-side transition guarded on the row still being
// in_flight. Zero rows affected means the task vanished (post deleted) or
// was never claimed; callers log and move on.
func (r *deliveryTaskRepository) execClaimed(ctx context.Context, query string, args ...any) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *deliveryTaskRepository) CancelNonTerminal(ctx context.Context, tx *sql.Tx, postID int64) error {
	query := `DELETE FROM delivery_tasks WHERE post_id = $1 AND status IN ($2, $3)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, postID, models.TaskStatusPending, models.TaskStatusInFlight)
	} else {
		_, err = r.db.ExecContext(ctx, query, postID, models.TaskStatusPending, models.TaskStatusInFlight)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *deliveryTaskRepository) RescheduleNonTerminal(ctx context.Context, tx *sql.Tx, postID int64, scheduledTime time.Time) error {
	query := `
		UPDATE delivery_tasks
		SET scheduled_time = $1,
			updated_at = $2
		WHERE post_id = $3 AND status IN ($4, $5)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, scheduledTime, time.Now(), postID, models.TaskStatusPending, models.TaskStatusInFlight)
	} else {
		_, err = r.db.ExecContext(ctx, query, scheduledTime, time.Now(), postID, models.TaskStatusPending, models.TaskStatusInFlight)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *deliveryTaskRepository) ListQueued(ctx context.Context, clientID int64, limit, offset int) ([]*models.DeliveryTask, error) {
	return r.listByStatuses(ctx, clientID, limit, offset, models.TaskStatusPending, models.TaskStatusInFlight)
}

func (r *deliveryTaskRepository) ListPublished(ctx context.Context, clientID int64, limit, offset int) ([]*models.DeliveryTask, error) {
	return r.listByStatuses(ctx, clientID, limit, offset, models.TaskStatusPosted, models.TaskStatusFailed)
}

func (r *deliveryTaskRepository) listByStatuses(ctx context.Context, clientID int64, limit, offset int, statuses ...string) ([]*models.DeliveryTask, error) {
	query := `
		SELECT t.id, t.post_id, t.platform, t.status, t.scheduled_time, t.attempt_count,
			t.last_error, t.result_ref, t.last_attempt_at, t.completed_at, t.created_at, t.updated_at
		FROM delivery_tasks t
	`
	args := []interface{}{}
	n := 1

	if clientID != 0 {
		query += ` JOIN posts p ON p.id = t.post_id WHERE p.client_id = $` + itoa(n)
		args = append(args, clientID)
		n++
	} else {
		query += ` WHERE 1 = 1`
	}

	query += ` AND t.status = ANY($` + itoa(n) + `)`
	args = append(args, stringArray(statuses))
	query += ` ORDER BY t.scheduled_time, t.id`
	if limit > 0 {
		query += ` LIMIT ` + itoa(limit) + ` OFFSET ` + itoa(offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]*models.DeliveryTask, error) {
	var tasks []*models.DeliveryTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
