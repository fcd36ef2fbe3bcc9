package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/matt-cal/main-st/internal/api/responses"
	"github.com/matt-cal/main-st/internal/middleware"
	"github.com/matt-cal/main-st/internal/services/friend"
	"github.com/matt-cal/main-st/internal/services/session"
	"github.com/matt-cal/main-st/internal/services/user"
	"go.uber.org/zap"
)

type FriendHandlers struct {
	service   friend.Service
	users     user.Service
	formatter *responses.Formatter
	logger    *zap.Logger
}

func NewFriendHandlers(service friend.Service, users user.Service, formatter *responses.Formatter, logger *zap.Logger) *FriendHandlers {
	return &FriendHandlers{
		service:   service,
		users:     users,
		formatter: formatter,
		logger:    logger,
	}
}

// pair returns the logged-in user and the id of the user named by param.
func (h *FriendHandlers) pair(c *fiber.Ctx, param string) (string, string, error) {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return "", "", err
	}
	other, err := h.users.GetUserByUsername(c.Context(), c.Params(param))
	if err != nil {
		return "", "", err
	}
	return me, other.ID, nil
}

// GetFriends handles GET /friends
func (h *FriendHandlers) GetFriends(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	ids, err := h.service.GetFriends(c.Context(), me)
	if err != nil {
		return err
	}
	names, err := h.users.IDsToUsernames(c.Context(), ids)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(names)
}

// RemoveFriend handles DELETE /friends/:friend
func (h *FriendHandlers) RemoveFriend(c *fiber.Ctx) error {
	me, other, err := h.pair(c, "friend")
	if err != nil {
		return err
	}
	if err := h.service.RemoveFriend(c.Context(), me, other); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Unfriended!"})
}

// GetRequests handles GET /friend/requests
func (h *FriendHandlers) GetRequests(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	requests, err := h.service.GetRequests(c.Context(), me)
	if err != nil {
		return err
	}
	out, err := h.formatter.FriendRequests(c.Context(), requests)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// SendRequest handles POST /friend/requests/:to
func (h *FriendHandlers) SendRequest(c *fiber.Ctx) error {
	me, to, err := h.pair(c, "to")
	if err != nil {
		return err
	}
	if err := h.service.SendRequest(c.Context(), me, to); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Sent request!"})
}

// RemoveRequest handles DELETE /friend/requests/:to
func (h *FriendHandlers) RemoveRequest(c *fiber.Ctx) error {
	me, to, err := h.pair(c, "to")
	if err != nil {
		return err
	}
	if err := h.service.RemoveRequest(c.Context(), me, to); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Removed request!"})
}

// AcceptRequest handles PUT /friend/accept/:from
func (h *FriendHandlers) AcceptRequest(c *fiber.Ctx) error {
	me, from, err := h.pair(c, "from")
	if err != nil {
		return err
	}
	if err := h.service.AcceptRequest(c.Context(), from, me); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Accepted request!"})
}

// RejectRequest handles PUT /friend/reject/:from
func (h *FriendHandlers) RejectRequest(c *fiber.Ctx) error {
	me, from, err := h.pair(c, "from")
	if err != nil {
		return err
	}
	if err := h.service.RejectRequest(c.Context(), from, me); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Rejected request!"})
}
