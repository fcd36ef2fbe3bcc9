package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/matt-cal/main-st/internal/api/responses"
	"github.com/matt-cal/main-st/internal/middleware"
	"github.com/matt-cal/main-st/internal/services/like"
	"github.com/matt-cal/main-st/internal/services/post"
	"github.com/matt-cal/main-st/internal/services/session"
	"github.com/matt-cal/main-st/internal/services/user"
	"go.uber.org/zap"
)

type LikeHandlers struct {
	service   like.Service
	users     user.Service
	posts     post.Service
	formatter *responses.Formatter
	logger    *zap.Logger
}

func NewLikeHandlers(service like.Service, users user.Service, posts post.Service, formatter *responses.Formatter, logger *zap.Logger) *LikeHandlers {
	return &LikeHandlers{
		service:   service,
		users:     users,
		posts:     posts,
		formatter: formatter,
		logger:    logger,
	}
}

type LikeRequest struct {
	Type string `json:"type"`
}

// typeQuery reads the optional ?type filter. An absent type matches both.
func typeQuery(c *fiber.Ctx) (like.Type, error) {
	raw := c.Query("type")
	if raw == "" {
		return "", nil
	}
	return like.ParseType(raw)
}

func (h *LikeHandlers) respond(c *fiber.Ctx, likes []like.Like) error {
	out, err := h.formatter.Likes(c.Context(), likes)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// GetUserLikes handles GET /likes/:username
func (h *LikeHandlers) GetUserLikes(c *fiber.Ctx) error {
	likeType, err := typeQuery(c)
	if err != nil {
		return err
	}
	u, err := h.users.GetUserByUsername(c.Context(), c.Params("username"))
	if err != nil {
		return err
	}
	likes, err := h.service.GetByOwner(c.Context(), u.ID, likeType)
	if err != nil {
		return err
	}
	return h.respond(c, likes)
}

// GetPostLikes handles GET /post/likes/:id
func (h *LikeHandlers) GetPostLikes(c *fiber.Ctx) error {
	likeType, err := typeQuery(c)
	if err != nil {
		return err
	}
	p, err := h.posts.GetPost(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	likes, err := h.service.GetByPost(c.Context(), p.ID, likeType)
	if err != nil {
		return err
	}
	return h.respond(c, likes)
}

// DidUserLike handles GET /user/liked/:id
func (h *LikeHandlers) DidUserLike(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	likeType, err := typeQuery(c)
	if err != nil {
		return err
	}
	p, err := h.posts.GetPost(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	liked, err := h.service.DidUserLike(c.Context(), p.ID, me, likeType)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"liked": liked})
}

// CreateLike handles POST /likes/:id
func (h *LikeHandlers) CreateLike(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}

	var req LikeRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("Failed to parse request body", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	p, err := h.posts.GetPost(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	l, err := h.service.Create(c.Context(), me, p.ID, like.Type(req.Type))
	if err != nil {
		return err
	}
	out, err := h.formatter.Like(c.Context(), l)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"msg":  "Like successfully created!",
		"like": out,
	})
}

// UpdateLike handles PATCH /likes/:id
func (h *LikeHandlers) UpdateLike(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	id := c.Params("id")

	var req LikeRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("Failed to parse request body", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.service.IsOwner(c.Context(), me, id); err != nil {
		return err
	}
	if err := h.service.Update(c.Context(), id, like.Type(req.Type)); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Like successfully updated!"})
}

// DeleteLike handles DELETE /likes/:id
func (h *LikeHandlers) DeleteLike(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	id := c.Params("id")

	if err := h.service.IsOwner(c.Context(), me, id); err != nil {
		return err
	}
	if err := h.service.Delete(c.Context(), id); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Like deleted successfully!"})
}
