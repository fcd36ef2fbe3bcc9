package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/matt-cal/main-st/internal/db/types"
	"github.com/matt-cal/main-st/internal/middleware"
	"github.com/matt-cal/main-st/internal/services/session"
	"github.com/matt-cal/main-st/internal/services/user"
	"github.com/matt-cal/main-st/pkg/config"
	"go.uber.org/zap"
)

type SessionHandlers struct {
	service session.Service
	users   user.Service
	cfg     config.SessionConfig
	logger  *zap.Logger
}

func NewSessionHandlers(service session.Service, users user.Service, cfg config.SessionConfig, logger *zap.Logger) *SessionHandlers {
	return &SessionHandlers{
		service: service,
		users:   users,
		cfg:     cfg,
		logger:  logger,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Msg       string          `json:"msg"`
	Token     string          `json:"token"`
	ExpiresAt types.Timestamp `json:"expires_at"`
}

// GetSessionUser handles GET /session
func (h *SessionHandlers) GetSessionUser(c *fiber.Ctx) error {
	userID, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	u, err := h.users.GetUserByID(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(u)
}

// Login handles POST /login
func (h *SessionHandlers) Login(c *fiber.Ctx) error {
	if err := session.IsLoggedOut(middleware.GetSession(c)); err != nil {
		return err
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("Failed to parse request body", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	u, err := h.users.Authenticate(c.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	state, err := h.service.Start(c.Context(), u.ID, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(c, h.cfg, state)

	return c.Status(fiber.StatusOK).JSON(LoginResponse{
		Msg:       "Logged in!",
		Token:     state.Token,
		ExpiresAt: state.ExpiresAt,
	})
}

// Logout handles POST /logout
func (h *SessionHandlers) Logout(c *fiber.Ctx) error {
	state := middleware.GetSession(c)
	if _, err := session.GetUser(state); err != nil {
		return err
	}
	if err := h.service.End(c.Context(), state.Token); err != nil {
		return err
	}
	middleware.ClearSessionCookie(c, h.cfg)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"msg": "Logged out!",
	})
}
