package service

import (
	"context"
	"time"

	"github.com/postcaldev/postcal/internal/repository"
	"github.com/postcaldev/postcal/internal/transfer"
)

// TaskViewService serves the read-only queue and history views the UI
// polls; it never mutates task state.
type TaskViewService interface {
	ListQueued(ctx context.Context, clientID int64, page, pageSize int) ([]*transfer.TaskView, error)
	ListPublished(ctx context.Context, clientID int64, page, pageSize int) ([]*transfer.TaskView, error)
}

type taskViewService struct {
	dt repository.DeliveryTaskRepository
}

func NewTaskViewService(dt repository.DeliveryTaskRepository) TaskViewService {
	return &taskViewService{dt: dt}
}

func (s *taskViewService) ListQueued(ctx context.Context, clientID int64, page, pageSize int) ([]*transfer.TaskView, error) {
	limit, offset := pageWindow(page, pageSize)

	tasks, err := s.dt.ListQueued(ctx, clientID, limit, offset)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]*transfer.TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, &transfer.TaskView{
			DeliveryTask:  task,
			DisplayStatus: task.DisplayStatus(now),
		})
	}
	return views, nil
}

func (s *taskViewService) ListPublished(ctx context.Context, clientID int64, page, pageSize int) ([]*transfer.TaskView, error) {
	limit, offset := pageWindow(page, pageSize)

	tasks, err := s.dt.ListPublished(ctx, clientID, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]*transfer.TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, &transfer.TaskView{
			DeliveryTask:  task,
			DisplayStatus: task.Status,
		})
	}
	return views, nil
}
