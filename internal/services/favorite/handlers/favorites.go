package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/matt-cal/main-st/internal/api/responses"
	"github.com/matt-cal/main-st/internal/docstore"
	"github.com/matt-cal/main-st/internal/middleware"
	"github.com/matt-cal/main-st/internal/services/favorite"
	"github.com/matt-cal/main-st/internal/services/session"
	"github.com/matt-cal/main-st/internal/services/user"
	"go.uber.org/zap"
)

type FavoriteHandlers struct {
	service   favorite.Service
	users     user.Service
	formatter *responses.Formatter
	logger    *zap.Logger
}

func NewFavoriteHandlers(service favorite.Service, users user.Service, formatter *responses.Formatter, logger *zap.Logger) *FavoriteHandlers {
	return &FavoriteHandlers{
		service:   service,
		users:     users,
		formatter: formatter,
		logger:    logger,
	}
}

type AddFavoriteRequest struct {
	Target string `json:"target"`
	Note   string `json:"note"`
}

type UpdateFavoriteRequest struct {
	Note string `json:"note"`
}

// ListFavorites handles GET /favorites
func (h *FavoriteHandlers) ListFavorites(c *fiber.Ctx) error {
	var (
		favorites []favorite.Favorite
		err       error
	)
	if owner := c.Query("owner"); owner != "" {
		u, lookupErr := h.users.GetUserByUsername(c.Context(), owner)
		if lookupErr != nil {
			return lookupErr
		}
		favorites, err = h.service.GetByOwner(c.Context(), u.ID)
	} else {
		favorites, err = h.service.GetFavorites(c.Context(), docstore.All())
	}
	if err != nil {
		return err
	}

	out, err := h.formatter.Favorites(c.Context(), favorites)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// AddFavorite handles POST /favorites. The target is a username.
func (h *FavoriteHandlers) AddFavorite(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}

	var req AddFavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("Failed to parse request body", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	var target string
	if req.Target != "" {
		u, err := h.users.GetUserByUsername(c.Context(), req.Target)
		if err != nil {
			return err
		}
		target = u.ID
	}

	fav, err := h.service.Create(c.Context(), me, target, req.Note)
	if err != nil {
		return err
	}
	out, err := h.formatter.Favorite(c.Context(), fav)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"msg":      "Favorite successfully created!",
		"favorite": out,
	})
}

// UpdateFavorite handles PATCH /favorites/:id
func (h *FavoriteHandlers) UpdateFavorite(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	id := c.Params("id")

	var req UpdateFavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("Failed to parse request body", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.service.IsOwner(c.Context(), me, id); err != nil {
		return err
	}
	if err := h.service.Update(c.Context(), id, req.Note); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Favorite successfully updated!"})
}

// RemoveFavorite handles DELETE /favorites/:id
func (h *FavoriteHandlers) RemoveFavorite(c *fiber.Ctx) error {
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

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Favorite deleted successfully!"})
}
