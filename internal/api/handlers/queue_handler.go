package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/postcaldev/postcal/internal/service"
)

type QueueHandler struct {
	s service.TaskViewService
}

func NewQueueHandler(service service.TaskViewService) *QueueHandler {
	return &QueueHandler{s: service}
}

// ListQueued returns pending and in-flight delivery tasks.
func (h *QueueHandler) ListQueued(c *fiber.Ctx) error {
	clientID := GetClientID(c)
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	tasks, err := h.s.ListQueued(c.Context(), clientID, page, pageSize)
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tasks)
}

// ListPublished returns the delivery history: posted tasks and terminal
// failures.
func (h *QueueHandler) ListPublished(c *fiber.Ctx) error {
	clientID := GetClientID(c)
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	tasks, err := h.s.ListPublished(c.Context(), clientID, page, pageSize)
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tasks)
}
