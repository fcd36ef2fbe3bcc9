package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/matt-cal/main-st/internal/api/responses"
	"github.com/matt-cal/main-st/internal/docstore"
	"github.com/matt-cal/main-st/internal/middleware"
	"github.com/matt-cal/main-st/internal/services/post"
	"github.com/matt-cal/main-st/internal/services/session"
	"github.com/matt-cal/main-st/internal/services/tag"
	"github.com/matt-cal/main-st/internal/services/user"
	"go.uber.org/zap"
)

type PostHandlers struct {
	service   post.Service
	users     user.Service
	tags      tag.Service
	formatter *responses.Formatter
	logger    *zap.Logger
}

func NewPostHandlers(service post.Service, users user.Service, tags tag.Service, formatter *responses.Formatter, logger *zap.Logger) *PostHandlers {
	return &PostHandlers{
		service:   service,
		users:     users,
		tags:      tags,
		formatter: formatter,
		logger:    logger,
	}
}

type CreatePostRequest struct {
	Content string       `json:"content"`
	Options post.Options `json:"options"`
}

type UpdatePostRequest struct {
	Update post.Update `json:"update"`
}

// GetPosts handles GET /posts. An author query narrows the list to that
// user's posts.
func (h *PostHandlers) GetPosts(c *fiber.Ctx) error {
	var (
		posts []post.Post
		err   error
	)
	if author := c.Query("author"); author != "" {
		u, lookupErr := h.users.GetUserByUsername(c.Context(), author)
		if lookupErr != nil {
			return lookupErr
		}
		posts, err = h.service.GetByAuthor(c.Context(), u.ID)
	} else {
		posts, err = h.service.GetPosts(c.Context(), docstore.All())
	}
	if err != nil {
		return err
	}

	out, err := h.formatter.Posts(c.Context(), posts)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// CreatePost handles POST /posts
func (h *PostHandlers) CreatePost(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}

	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("Failed to parse request body", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	p, err := h.service.Create(c.Context(), me, req.Content, req.Options)
	if err != nil {
		return err
	}
	out, err := h.formatter.Post(c.Context(), p)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"msg":  "Post successfully created!",
		"post": out,
	})
}

// UpdatePost handles PATCH /posts/:id
func (h *PostHandlers) UpdatePost(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	id := c.Params("id")

	var req UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("Failed to parse request body", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.service.IsAuthor(c.Context(), me, id); err != nil {
		return err
	}
	if err := h.service.Update(c.Context(), id, req.Update); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Post successfully updated!"})
}

// DeletePost handles DELETE /posts/:id
func (h *PostHandlers) DeletePost(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	id := c.Params("id")

	if err := h.service.IsAuthor(c.Context(), me, id); err != nil {
		return err
	}
	pruneTags := func(ctx context.Context, tx docstore.DBTX) error {
		_, err := h.tags.DeleteByTargets(ctx, tx, id)
		return err
	}
	if err := h.service.Delete(c.Context(), id, pruneTags); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Post deleted successfully!"})
}
