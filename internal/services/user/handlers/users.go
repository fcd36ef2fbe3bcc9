package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/matt-cal/main-st/internal/docstore"
	"github.com/matt-cal/main-st/internal/middleware"
	"github.com/matt-cal/main-st/internal/services/post"
	"github.com/matt-cal/main-st/internal/services/session"
	"github.com/matt-cal/main-st/internal/services/tag"
	"github.com/matt-cal/main-st/internal/services/user"
	"github.com/matt-cal/main-st/pkg/config"
	"go.uber.org/zap"
)

type UserHandlers struct {
	service  user.Service
	sessions session.Service
	posts    post.Service
	tags     tag.Service
	cfg      config.SessionConfig
	logger   *zap.Logger
}

func NewUserHandlers(service user.Service, sessions session.Service, posts post.Service, tags tag.Service, cfg config.SessionConfig, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{
		service:  service,
		sessions: sessions,
		posts:    posts,
		tags:     tags,
		cfg:      cfg,
		logger:   logger,
	}
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpdateUserRequest struct {
	Update user.Update `json:"update"`
}

// GetUsers handles GET /users
func (h *UserHandlers) GetUsers(c *fiber.Ctx) error {
	users, err := h.service.GetUsers(c.Context(), c.Query("username"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(users)
}

// GetUser handles GET /users/:username
func (h *UserHandlers) GetUser(c *fiber.Ctx) error {
	u, err := h.service.GetUserByUsername(c.Context(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(u)
}

// CreateUser handles POST /users
func (h *UserHandlers) CreateUser(c *fiber.Ctx) error {
	if err := session.IsLoggedOut(middleware.GetSession(c)); err != nil {
		return err
	}

	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("Failed to parse request body", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	u, err := h.service.Create(c.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"msg":  "User created successfully!",
		"user": u,
	})
}

// UpdateUser handles PATCH /users
func (h *UserHandlers) UpdateUser(c *fiber.Ctx) error {
	userID, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("Failed to parse request body", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.service.Update(c.Context(), userID, req.Update); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"msg": "User updated successfully!",
	})
}

// DeleteUser handles DELETE /users. Tags on the user and on the user's posts
// are pruned in the same transaction as the user row; everything else
// referencing the user goes with the row. The session ends after commit.
func (h *UserHandlers) DeleteUser(c *fiber.Ctx) error {
	state := middleware.GetSession(c)
	userID, err := session.GetUser(state)
	if err != nil {
		return err
	}
	ctx := c.Context()

	var pruned int64
	err = h.service.Delete(ctx, userID, func(ctx context.Context, tx docstore.DBTX) error {
		targets, err := h.posts.IDsByAuthor(ctx, tx, userID)
		if err != nil {
			return err
		}
		pruned, err = h.tags.DeleteByTargets(ctx, tx, append(targets, userID)...)
		return err
	})
	if err != nil {
		return err
	}

	if err := h.sessions.End(ctx, state.Token); err != nil {
		h.logger.Warn("Failed to end session of deleted user", zap.String("user_id", userID), zap.Error(err))
	}
	middleware.ClearSessionCookie(c, h.cfg)
	h.logger.Info("User deleted", zap.String("user_id", userID), zap.Int64("tags_pruned", pruned))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"msg": "User deleted!",
	})
}
