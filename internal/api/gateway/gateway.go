package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/matt-cal/main-st/internal/api/console"
	"github.com/matt-cal/main-st/internal/api/responses"
	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/docstore"
	"github.com/matt-cal/main-st/internal/middleware"
	"github.com/matt-cal/main-st/internal/services/favorite"
	favHandlers "github.com/matt-cal/main-st/internal/services/favorite/handlers"
	"github.com/matt-cal/main-st/internal/services/friend"
	friendHandlers "github.com/matt-cal/main-st/internal/services/friend/handlers"
	"github.com/matt-cal/main-st/internal/services/like"
	likeHandlers "github.com/matt-cal/main-st/internal/services/like/handlers"
	"github.com/matt-cal/main-st/internal/services/post"
	postHandlers "github.com/matt-cal/main-st/internal/services/post/handlers"
	"github.com/matt-cal/main-st/internal/services/session"
	sessionHandlers "github.com/matt-cal/main-st/internal/services/session/handlers"
	"github.com/matt-cal/main-st/internal/services/tag"
	tagHandlers "github.com/matt-cal/main-st/internal/services/tag/handlers"
	"github.com/matt-cal/main-st/internal/services/user"
	userHandlers "github.com/matt-cal/main-st/internal/services/user/handlers"
	"github.com/matt-cal/main-st/pkg/config"
	"go.uber.org/zap"
)

// Access is the session requirement of a route.
type Access int

const (
	Public Access = iota
	LoggedIn
	LoggedOut
)

// Route is one entry of the API route table.
type Route struct {
	Method  string
	Path    string
	Access  Access
	Handler fiber.Handler
}

// APIGateway owns the Fiber app, its global middleware and the route table.
type APIGateway struct {
	router         *fiber.App
	logger         *zap.Logger
	cfg            config.Config
	store          *docstore.Store
	formatter      *responses.Formatter
	limiterStorage fiber.Storage
	routes         []Route
}

type Option func(*APIGateway)

// WithLimiterStorage keeps rate limiter counters in s instead of process
// memory.
func WithLimiterStorage(s fiber.Storage) Option {
	return func(g *APIGateway) {
		g.limiterStorage = s
	}
}

// NewAPIGateway wires every service onto store and mounts the API under /api.
func NewAPIGateway(cfg config.Config, logger *zap.Logger, store *docstore.Store, opts ...Option) *APIGateway {
	gw := &APIGateway{
		logger: logger,
		cfg:    cfg,
		store:  store,
	}
	for _, opt := range opts {
		opt(gw)
	}

	gw.router = fiber.New(fiber.Config{
		AppName:      "Social Concepts API Gateway",
		ErrorHandler: gw.handleError,
		// Usernames and tag names arrive percent-encoded in path params.
		UnescapePath: true,
	})

	gw.applyMiddleware()
	gw.setupHealthCheck()
	gw.setupConsole()

	if store != nil {
		userSvc := user.NewUserService(logger, store)
		sessionSvc := session.NewSessionService(cfg.Session, logger, store)
		friendSvc := friend.NewFriendService(logger, store)
		postSvc := post.NewPostService(logger, store)
		favoriteSvc := favorite.NewFavoriteService(logger, store)
		likeSvc := like.NewLikeService(logger, store)
		tagSvc := tag.NewTagService(logger, store)

		gw.formatter = responses.NewFormatter(userSvc)
		gw.registerRoutes(userSvc, sessionSvc, friendSvc, postSvc, favoriteSvc, likeSvc, tagSvc)
	}

	return gw
}

func (g *APIGateway) registerRoutes(
	userSvc user.Service,
	sessionSvc session.Service,
	friendSvc friend.Service,
	postSvc post.Service,
	favoriteSvc favorite.Service,
	likeSvc like.Service,
	tagSvc tag.Service,
) {
	sessionH := sessionHandlers.NewSessionHandlers(sessionSvc, userSvc, g.cfg.Session, g.logger)
	userH := userHandlers.NewUserHandlers(userSvc, sessionSvc, postSvc, tagSvc, g.cfg.Session, g.logger)
	friendH := friendHandlers.NewFriendHandlers(friendSvc, userSvc, g.formatter, g.logger)
	postH := postHandlers.NewPostHandlers(postSvc, userSvc, tagSvc, g.formatter, g.logger)
	favoriteH := favHandlers.NewFavoriteHandlers(favoriteSvc, userSvc, g.formatter, g.logger)
	likeH := likeHandlers.NewLikeHandlers(likeSvc, userSvc, postSvc, g.formatter, g.logger)
	tagH := tagHandlers.NewTagHandlers(tagSvc, userSvc, postSvc, g.formatter, g.logger)

	g.routes = []Route{
		// Session
		{fiber.MethodGet, "/session", LoggedIn, sessionH.GetSessionUser},
		{fiber.MethodPost, "/login", LoggedOut, sessionH.Login},
		{fiber.MethodPost, "/logout", LoggedIn, sessionH.Logout},

		// Users
		{fiber.MethodGet, "/users", Public, userH.GetUsers},
		{fiber.MethodGet, "/users/:username", Public, userH.GetUser},
		{fiber.MethodPost, "/users", LoggedOut, userH.CreateUser},
		{fiber.MethodPatch, "/users", LoggedIn, userH.UpdateUser},
		{fiber.MethodDelete, "/users", LoggedIn, userH.DeleteUser},

		// Posts
		{fiber.MethodGet, "/posts", Public, postH.GetPosts},
		{fiber.MethodPost, "/posts", LoggedIn, postH.CreatePost},
		{fiber.MethodPatch, "/posts/:id", LoggedIn, postH.UpdatePost},
		{fiber.MethodDelete, "/posts/:id", LoggedIn, postH.DeletePost},

		// Friends
		{fiber.MethodGet, "/friends", LoggedIn, friendH.GetFriends},
		{fiber.MethodDelete, "/friends/:friend", LoggedIn, friendH.RemoveFriend},
		{fiber.MethodGet, "/friend/requests", LoggedIn, friendH.GetRequests},
		{fiber.MethodPost, "/friend/requests/:to", LoggedIn, friendH.SendRequest},
		{fiber.MethodDelete, "/friend/requests/:to", LoggedIn, friendH.RemoveRequest},
		{fiber.MethodPut, "/friend/accept/:from", LoggedIn, friendH.AcceptRequest},
		{fiber.MethodPut, "/friend/reject/:from", LoggedIn, friendH.RejectRequest},

		// Favorites
		{fiber.MethodGet, "/favorites", Public, favoriteH.ListFavorites},
		{fiber.MethodPost, "/favorites", LoggedIn, favoriteH.AddFavorite},
		{fiber.MethodPatch, "/favorites/:id", LoggedIn, favoriteH.UpdateFavorite},
		{fiber.MethodDelete, "/favorites/:id", LoggedIn, favoriteH.RemoveFavorite},

		// Likes
		{fiber.MethodGet, "/likes/:username", Public, likeH.GetUserLikes},
		{fiber.MethodGet, "/post/likes/:id", Public, likeH.GetPostLikes},
		{fiber.MethodGet, "/user/liked/:id", LoggedIn, likeH.DidUserLike},
		{fiber.MethodPost, "/likes/:id", LoggedIn, likeH.CreateLike},
		{fiber.MethodPatch, "/likes/:id", LoggedIn, likeH.UpdateLike},
		{fiber.MethodDelete, "/likes/:id", LoggedIn, likeH.DeleteLike},

		// Tags
		{fiber.MethodGet, "/tags", Public, tagH.GetTags},
		{fiber.MethodPost, "/tags/:id", LoggedIn, tagH.CreateTag},
		{fiber.MethodPatch, "/tags/:id", LoggedIn, tagH.RenameTag},
		{fiber.MethodDelete, "/tags/:id", LoggedIn, tagH.DeleteTag},
		{fiber.MethodPatch, "/posts/:id/:tag", LoggedIn, tagH.TagPost},
		{fiber.MethodDelete, "/posts/:id/:tag", LoggedIn, tagH.UntagPost},
		{fiber.MethodGet, "/tags/:tag/posts", Public, tagH.GetTaggedPosts},
		{fiber.MethodPatch, "/users/tags/:tag", LoggedIn, tagH.TagUser},
		{fiber.MethodDelete, "/users/tags/:tag", LoggedIn, tagH.UntagUser},
		{fiber.MethodGet, "/tags/:tag/users", Public, tagH.GetTaggedUsers},
	}

	api := g.MountGroup("/api", middleware.SessionMiddleware(sessionSvc, g.cfg.Session, g.logger))
	requireLogin := middleware.RequireLogin()
	requireLogout := middleware.RequireLogout()
	for _, r := range g.routes {
		handlers := []fiber.Handler{r.Handler}
		switch r.Access {
		case LoggedIn:
			handlers = []fiber.Handler{requireLogin, r.Handler}
		case LoggedOut:
			handlers = []fiber.Handler{requireLogout, r.Handler}
		}
		api.Add(r.Method, r.Path, handlers...)
	}
}

// handleError is the single place where errors become HTTP responses.
// Concept errors map by kind; anything unexpected is logged and hidden.
func (g *APIGateway) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else if kind := concept.KindOf(err); kind != nil {
		code = statusOf(kind)
		msg = err.Error()
		if g.formatter != nil {
			msg = g.formatter.ErrorMessage(c.Context(), err)
		}
	}

	if code >= fiber.StatusInternalServerError {
		g.logger.Error("gateway error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(code).JSON(fiber.Map{
		"msg": msg,
	})
}

func statusOf(kind error) int {
	switch kind {
	case concept.ErrBadValues:
		return fiber.StatusBadRequest
	case concept.ErrUnauthenticated:
		return fiber.StatusUnauthorized
	case concept.ErrNotAllowed:
		return fiber.StatusForbidden
	case concept.ErrNotFound:
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

// applyMiddleware sets up global middleware for the gateway.
func (g *APIGateway) applyMiddleware() {
	g.router.Use(cors.New(cors.Config{
		AllowOrigins: g.cfg.Server.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	g.router.Use(fiberLogger.New())
	g.router.Use(recover.New())

	// The limiter treats Max <= 0 as its default of 5, so zero disables it here.
	if g.cfg.Server.RateLimitMax > 0 {
		g.router.Use(limiter.New(limiter.Config{
			Max:        g.cfg.Server.RateLimitMax,
			Expiration: g.cfg.Server.RateLimitDuration,
			Storage:    g.limiterStorage,
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, slow down!")
			},
		}))
	}
}

// setupHealthCheck adds a basic health check endpoint to the gateway.
func (g *APIGateway) setupHealthCheck() {
	g.router.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	})
}

func (g *APIGateway) setupConsole() {
	handler, err := console.Handler()
	if err != nil {
		g.logger.Error("Failed to render API console", zap.Error(err))
		return
	}
	g.router.Get("/", handler)
}

// MountGroup mounts a route group with optional group-wide handlers.
func (g *APIGateway) MountGroup(prefix string, handlers ...fiber.Handler) fiber.Router {
	return g.router.Group(prefix, handlers...)
}

// Routes returns the API route table.
func (g *APIGateway) Routes() []Route {
	return g.routes
}

// Router returns the underlying Fiber app (useful for testing).
func (g *APIGateway) Router() *fiber.App {
	return g.router
}

// Start begins listening on the configured host and port.
func (g *APIGateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.cfg.Server.Host, g.cfg.Server.Port)
	g.logger.Info("Starting API Gateway", zap.String("address", addr))
	return g.router.Listen(addr)
}

// Shutdown gracefully stops the gateway.
func (g *APIGateway) Shutdown(ctx context.Context) error {
	g.logger.Info("Shutting down API Gateway...")
	return g.router.ShutdownWithContext(ctx)
}
