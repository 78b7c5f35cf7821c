package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/postcaldev/postcal/internal/apperrors"
	"github.com/postcaldev/postcal/internal/models"
	"github.com/postcaldev/postcal/internal/repository"
	"github.com/postcaldev/postcal/internal/transfer"
)

// PostService is the post store: durable CRUD for posts and the delivery
// tasks they own.
type PostService interface {
	Create(ctx context.Context, clientID int64, pc *transfer.PostCreation, file *multipart.FileHeader) (int64, time.Duration, error)
	Remove(ctx context.Context, clientID, postID int64) error
	Reschedule(ctx context.Context, clientID int64, pr *transfer.PostReschedule) error
	List(ctx context.Context, clientID int64, page, pageSize int) ([]*transfer.PostView, error)
	PostInfo(ctx context.Context, postID, clientID int64) (*transfer.PostView, error)
}

type postService struct {
	db *sql.DB
	cr repository.ClientRepository
	pr repository.PostRepository
	dt repository.DeliveryTaskRepository
	ma repository.MediaAssetRepository
	r2 *R2Service
}

func NewPostService(
	db *sql.DB,
	cr repository.ClientRepository,
	pr repository.PostRepository,
	dt repository.DeliveryTaskRepository,
	ma repository.MediaAssetRepository,
	r2 *R2Service) PostService {
	return &postService{
		db: db,
		cr: cr,
		pr: pr,
		dt: dt,
		ma: ma,
		r2: r2,
	}
}

// Create persists the post and fans it out into one pending delivery task
// per target platform, all inside one transaction. A crash can never leave
// a post without its full task set.
func (s *postService) Create(ctx context.Context, clientID int64, pc *transfer.PostCreation, file *multipart.FileHeader) (int64, time.Duration, error) {
	if pc == nil || pc.Body == "" {
		return 0, 0, apperrors.Validationf("post body cannot be empty")
	}

	scheduledTime, err := parseScheduledTime(pc.ScheduledTime)
	if err != nil {
		return 0, 0, err
	}

	platforms, err := parsePlatforms(pc.Platforms)
	if err != nil {
		return 0, 0, err
	}

	exists, err := s.cr.Exists(ctx, clientID)
	if err != nil {
		return 0, 0, err
	}
	if !exists {
		return 0, 0, apperrors.Validationf("client %d does not exist", clientID)
	}

	mediaURL := ""
	if file != nil {
		mediaURL, err = s.uploadMedia(ctx, clientID, file)
		if err != nil {
			return 0, 0, err
		}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		ClientID:      clientID,
		Title:         pc.Title,
		Body:          pc.Body,
		MediaURL:      mediaURL,
		ScheduledTime: scheduledTime,
	}

	postID, err := s.pr.Create(ctx, tx, &post)
	if err != nil {
		return 0, 0, fmt.Errorf("error creating post: %w", err)
	}

	for _, platform := range platforms {
		task := models.DeliveryTask{
			PostID:        postID,
			Platform:      platform,
			Status:        models.TaskStatusPending,
			ScheduledTime: scheduledTime,
		}
		if _, err = s.dt.Create(ctx, tx, &task); err != nil {
			return 0, 0, fmt.Errorf("error creating delivery task for %s: %w", platform, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	delay := time.Until(scheduledTime)
	if delay < 0 {
		delay = 0
	}

	return postID, delay, nil
}

func (s *postService) uploadMedia(ctx context.Context, clientID int64, file *multipart.FileHeader) (string, error) {
	allowedTypes := map[string]struct{}{
		"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
	}

	fileContent, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return "", fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return "", apperrors.Validationf("unsupported file type")
	}
	if _, ok := allowedTypes[fileType.Extension]; !ok {
		return "", apperrors.Validationf("file type %s is not allowed", fileType.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	fileURL, err := s.r2.Upload(ctx, key, fileBytes, fileType.MIME.Value)
	if err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}

	asset := models.MediaAsset{
		ClientID: clientID,
		FileName: key,
		FileType: fileType.MIME.Value,
		FileSize: int64(len(fileBytes)),
		FileURL:  fileURL,
	}
	if _, err := s.ma.Create(ctx, nil, &asset); err != nil {
		return "", err
	}

	return fileURL, nil
}

// Remove cancels every non-terminal task and marks the post deleted.
// Terminal tasks stay behind as the published/failed history.
func (s *postService) Remove(ctx context.Context, clientID, postID int64) error {
	owned, err := s.pr.CheckByClientID(ctx, postID, clientID)
	if err != nil {
		return err
	}
	if !owned {
		return apperrors.NotFound("post")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = s.dt.CancelNonTerminal(ctx, tx, postID); err != nil {
		return fmt.Errorf("error cancelling delivery tasks: %w", err)
	}

	if err = s.pr.Remove(ctx, tx, postID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}

	return tx.Commit()
}

// Reschedule moves the post and all of its non-terminal tasks to the new
// time; already posted or failed tasks keep their history untouched.
func (s *postService) Reschedule(ctx context.Context, clientID int64, pr *transfer.PostReschedule) error {
	scheduledTime, err := parseScheduledTime(pr.ScheduledTime)
	if err != nil {
		return err
	}

	owned, err := s.pr.CheckByClientID(ctx, pr.PostID, clientID)
	if err != nil {
		return err
	}
	if !owned {
		return apperrors.NotFound("post")
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = s.pr.UpdateScheduledTime(ctx, tx, pr.PostID, scheduledTime); err != nil {
		return fmt.Errorf("error rescheduling post: %w", err)
	}

	if err = s.dt.RescheduleNonTerminal(ctx, tx, pr.PostID, scheduledTime); err != nil {
		return fmt.Errorf("error rescheduling delivery tasks: %w", err)
	}

	return tx.Commit()
}

func (s *postService) List(ctx context.Context, clientID int64, page, pageSize int) ([]*transfer.PostView, error) {
	limit, offset := pageWindow(page, pageSize)

	posts, err := s.pr.List(ctx, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	postIDs := make([]int64, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}

	tasksByPost, err := s.dt.ListByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("error listing delivery tasks: %w", err)
	}

	views := make([]*transfer.PostView, 0, len(posts))
	for _, post := range posts {
		tasks := tasksByPost[post.ID]
		views = append(views, &transfer.PostView{
			Post:   post,
			Status: models.RollupStatus(tasks),
			Tasks:  tasks,
		})
	}
	return views, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, clientID int64) (*transfer.PostView, error) {
	owned, err := s.pr.CheckByClientID(ctx, postID, clientID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, apperrors.NotFound("post")
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperrors.NotFound("post")
	}

	tasks, err := s.dt.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &transfer.PostView{
		Post:   post,
		Status: models.RollupStatus(tasks),
		Tasks:  tasks,
	}, nil
}

func parsePlatforms(raw string) ([]string, error) {
	var platforms []string
	if err := json.Unmarshal([]byte(raw), &platforms); err != nil {
		return nil, apperrors.Validationf("invalid platforms format: %v", err)
	}
	if len(platforms) == 0 {
		return nil, apperrors.Validationf("no target platforms selected")
	}

	seen := make(map[string]struct{}, len(platforms))
	unique := make([]string, 0, len(platforms))
	for _, p := range platforms {
		if !models.SupportedPlatform(p) {
			return nil, apperrors.Validationf("unsupported platform %q", p)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	return unique, nil
}
