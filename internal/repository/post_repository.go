package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postcaldev/postcal/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context, clientID int64, limit, offset int) ([]*models.Post, error)
	CheckByClientID(ctx context.Context, postID, clientID int64) (bool, error)
	UpdateScheduledTime(ctx context.Context, tx *sql.Tx, postID int64, scheduledTime time.Time) error
	Remove(ctx context.Context, tx *sql.Tx, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, client_id, title, body, media_url, scheduled_time, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.ClientID, &post.Title, &post.Body, &post.MediaURL,
		&post.ScheduledTime, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (client_id, title, body, media_url, scheduled_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.ClientID, post.Title, post.Body, post.MediaURL, post.ScheduledTime).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.ClientID, post.Title, post.Body, post.MediaURL, post.ScheduledTime).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND deleted_at IS NULL`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) List(ctx context.Context, clientID int64, limit, offset int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE deleted_at IS NULL`
	args := []interface{}{}

	if clientID != 0 {
		query += ` AND client_id = $1`
		args = append(args, clientID)
	}
	query += ` ORDER BY scheduled_time DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ` + itoa(limit) + ` OFFSET ` + itoa(offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) CheckByClientID(ctx context.Context, postID, clientID int64) (bool, error) {
	query := "SELECT 1 FROM posts WHERE id = $1 AND client_id = $2 AND deleted_at IS NULL"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, clientID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) UpdateScheduledTime(ctx context.Context, tx *sql.Tx, postID int64, scheduledTime time.Time) error {
	query := `
		UPDATE posts
		SET scheduled_time = $1,
			updated_at = $2
		WHERE id = $3
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, scheduledTime, time.Now(), postID)
	} else {
		_, err = r.db.ExecContext(ctx, query, scheduledTime, time.Now(), postID)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Remove marks the post deleted instead of dropping the row. Terminal
// delivery tasks resolve their client through the posts join, so the row
// has to stay behind for the published/failed history to remain owned.
func (r *postRepository) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	query := `
		UPDATE posts
		SET deleted_at = $1,
			updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, time.Now(), id)
	} else {
		_, err = r.db.ExecContext(ctx, query, time.Now(), id)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
