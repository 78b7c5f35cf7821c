package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func newPostRepo(t *testing.T) (PostRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostRepository(db), mock
}

// Deleting a post must keep the row so terminal delivery tasks can still
// resolve their owning client through the posts join.
func TestRemoveIsSoftDelete(t *testing.T) {
	assert := assert.New(t)

	repo, mock := newPostRepo(t)
	mock.ExpectExec(`UPDATE posts\s+SET deleted_at = \$1,\s+updated_at = \$1\s+WHERE id = \$2 AND deleted_at IS NULL`).
		WithArgs(sqlmock.AnyArg(), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.Nil(repo.Remove(context.Background(), nil, 99))
	assert.Nil(mock.ExpectationsWereMet())
}

func TestReadPathsExcludeDeletedPosts(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	columns := []string{"id", "client_id", "title", "body", "media_url", "scheduled_time", "created_at", "updated_at"}
	now := time.Now()

	t.Run("GetByID", func(t *testing.T) {
		repo, mock := newPostRepo(t)
		mock.ExpectQuery(`SELECT (.+) FROM posts WHERE id = \$1 AND deleted_at IS NULL`).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(columns))

		post, err := repo.GetByID(ctx, 5)
		assert.Nil(err)
		assert.Nil(post, "a deleted post reads as absent")
		assert.Nil(mock.ExpectationsWereMet())
	})

	t.Run("List", func(t *testing.T) {
		repo, mock := newPostRepo(t)
		mock.ExpectQuery(`SELECT (.+) FROM posts WHERE deleted_at IS NULL AND client_id = \$1`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(1), int64(7), "Launch", "Launch day!", "", now, now, now))

		posts, err := repo.List(ctx, 7, 20, 0)
		assert.Nil(err)
		assert.Len(posts, 1)
		assert.Nil(mock.ExpectationsWereMet())
	})

	t.Run("CheckByClientID", func(t *testing.T) {
		repo, mock := newPostRepo(t)
		mock.ExpectQuery(`SELECT 1 FROM posts WHERE id = \$1 AND client_id = \$2 AND deleted_at IS NULL`).
			WithArgs(int64(5), int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"1"}))

		owned, err := repo.CheckByClientID(ctx, 5, 7)
		assert.Nil(err)
		assert.False(owned)
		assert.Nil(mock.ExpectationsWereMet())
	})
}
