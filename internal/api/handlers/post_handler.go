package handlers

import (
	"log/slog"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/postcaldev/postcal/internal/queue"
	"github.com/postcaldev/postcal/internal/service"
	"github.com/postcaldev/postcal/internal/transfer"
)

type PostHandler struct {
	s           service.PostService
	AsynqClient *asynq.Client
}

func NewPostHandler(service service.PostService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: service, AsynqClient: asynqClient}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	clientID := GetClientID(c)

	var file *multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		if files := form.File["media"]; len(files) > 0 {
			file = files[0]
		}
	}

	postID, delay, err := h.s.Create(c.Context(), clientID, &transfer.PostCreation{
		Title:         c.FormValue("title"),
		Body:          c.FormValue("body"),
		ScheduledTime: c.FormValue("scheduled_time"),
		Platforms:     c.FormValue("platforms"),
	}, file)
	if err != nil {
		return handleError(c, err)
	}

	if err := queue.EnqueueDispatch(h.AsynqClient, queue.DispatchPayload{PostID: postID}, delay); err != nil {
		// The timer poll will still pick the tasks up; the kick is a
		// latency optimization.
		slog.Error("failed to enqueue dispatch kick", "post_id", postID, "error", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post scheduled successfully",
		"post_id": postID,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	clientID := GetClientID(c)
	postID := c.QueryInt("id", 0)

	if postID != 0 {
		post, err := h.s.PostInfo(c.Context(), int64(postID), clientID)
		if err != nil {
			return handleError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	posts, err := h.s.List(c.Context(), clientID, page, pageSize)
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	clientID := GetClientID(c)
	postID := c.QueryInt("id", 0)

	if err := h.s.Remove(c.Context(), clientID, int64(postID)); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) ReschedulePost(c *fiber.Ctx) error {
	clientID := GetClientID(c)

	var body transfer.PostReschedule
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.Reschedule(c.Context(), clientID, &body); err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post rescheduled successfully",
	})
}
