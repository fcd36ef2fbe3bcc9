package handlers

import (
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

type TagHandlers struct {
	service   tag.Service
	users     user.Service
	posts     post.Service
	formatter *responses.Formatter
	logger    *zap.Logger
}

func NewTagHandlers(service tag.Service, users user.Service, posts post.Service, formatter *responses.Formatter, logger *zap.Logger) *TagHandlers {
	return &TagHandlers{
		service:   service,
		users:     users,
		posts:     posts,
		formatter: formatter,
		logger:    logger,
	}
}

type CreateTagRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type RenameTagRequest struct {
	Name string `json:"name"`
}

// resolveTarget maps the client's view of a target to a stored id. Posts are
// named by id and must exist; users are named by username.
func (h *TagHandlers) resolveTarget(c *fiber.Ctx, target string, targetType tag.TargetType) (string, error) {
	switch targetType {
	case tag.TargetPost:
		p, err := h.posts.GetPost(c.Context(), target)
		if err != nil {
			return "", err
		}
		return p.ID, nil
	case tag.TargetUser:
		u, err := h.users.GetUserByUsername(c.Context(), target)
		if err != nil {
			return "", err
		}
		return u.ID, nil
	}
	return target, nil
}

func (h *TagHandlers) respond(c *fiber.Ctx, status int, msg string, t *tag.Tag) error {
	out, err := h.formatter.Tag(c.Context(), t)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(fiber.Map{
		"msg": msg,
		"tag": out,
	})
}

// GetTags handles GET /tags. target, name and type narrow the list; a user
// target is given as a username.
func (h *TagHandlers) GetTags(c *fiber.Ctx) error {
	var q tag.Query
	if raw := c.Query("type"); raw != "" {
		targetType, err := tag.ParseTargetType(raw)
		if err != nil {
			return err
		}
		q.TargetType = targetType
	}
	q.Name = c.Query("name")
	if target := c.Query("target"); target != "" {
		q.Target = target
		if q.TargetType == tag.TargetUser {
			id, err := h.resolveTarget(c, target, tag.TargetUser)
			if err != nil {
				return err
			}
			q.Target = id
		}
	}

	tags, err := h.service.GetTags(c.Context(), q)
	if err != nil {
		return err
	}
	out, err := h.formatter.Tags(c.Context(), tags)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// CreateTag handles POST /tags/:id
func (h *TagHandlers) CreateTag(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}

	var req CreateTagRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("Failed to parse request body", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	targetType, err := tag.ParseTargetType(req.Type)
	if err != nil {
		return err
	}
	target, err := h.resolveTarget(c, c.Params("id"), targetType)
	if err != nil {
		return err
	}
	t, err := h.service.Create(c.Context(), me, target, targetType, req.Name)
	if err != nil {
		return err
	}
	return h.respond(c, fiber.StatusCreated, "Tag successfully created!", t)
}

// RenameTag handles PATCH /tags/:id
func (h *TagHandlers) RenameTag(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	id := c.Params("id")

	var req RenameTagRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("Failed to parse request body", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.service.IsOwner(c.Context(), me, id); err != nil {
		return err
	}
	if err := h.service.Rename(c.Context(), id, req.Name); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Tag successfully renamed!"})
}

// DeleteTag handles DELETE /tags/:id
func (h *TagHandlers) DeleteTag(c *fiber.Ctx) error {
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
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Tag deleted successfully!"})
}

// TagPost handles PATCH /posts/:id/:tag
func (h *TagHandlers) TagPost(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	target, err := h.resolveTarget(c, c.Params("id"), tag.TargetPost)
	if err != nil {
		return err
	}
	t, err := h.service.Create(c.Context(), me, target, tag.TargetPost, c.Params("tag"))
	if err != nil {
		return err
	}
	return h.respond(c, fiber.StatusOK, "Tagged post!", t)
}

// UntagPost handles DELETE /posts/:id/:tag
func (h *TagHandlers) UntagPost(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	if err := h.service.DeleteByKey(c.Context(), me, c.Params("id"), c.Params("tag")); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Untagged post!"})
}

// GetTaggedPosts handles GET /tags/:tag/posts
func (h *TagHandlers) GetTaggedPosts(c *fiber.Ctx) error {
	ids, err := h.service.GetTargetsByName(c.Context(), c.Params("tag"), tag.TargetPost)
	if err != nil {
		return err
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	posts, err := h.posts.GetPosts(c.Context(), docstore.In{Field: "id", Values: values})
	if err != nil {
		return err
	}
	out, err := h.formatter.Posts(c.Context(), posts)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// TagUser handles PATCH /users/tags/:tag. Users tag themselves.
func (h *TagHandlers) TagUser(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	t, err := h.service.Create(c.Context(), me, me, tag.TargetUser, c.Params("tag"))
	if err != nil {
		return err
	}
	return h.respond(c, fiber.StatusOK, "Tagged user!", t)
}

// UntagUser handles DELETE /users/tags/:tag
func (h *TagHandlers) UntagUser(c *fiber.Ctx) error {
	me, err := session.GetUser(middleware.GetSession(c))
	if err != nil {
		return err
	}
	if err := h.service.DeleteByKey(c.Context(), me, me, c.Params("tag")); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"msg": "Untagged user!"})
}

// GetTaggedUsers handles GET /tags/:tag/users
func (h *TagHandlers) GetTaggedUsers(c *fiber.Ctx) error {
	ids, err := h.service.GetTargetsByName(c.Context(), c.Params("tag"), tag.TargetUser)
	if err != nil {
		return err
	}
	names, err := h.users.IDsToUsernames(c.Context(), ids)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(names)
}
