package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/services/session"
	"github.com/matt-cal/main-st/pkg/config"
	"go.uber.org/zap"
)

// SessionKey is the key used to store the session state in Fiber's locals.
const SessionKey = "session"

// SessionMiddleware resolves the session cookie or bearer token once per
// request. A missing, forged or expired token leaves the visitor logged out.
func SessionMiddleware(svc session.Service, cfg config.SessionConfig, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, fromCookie := extractToken(c, cfg.CookieName)

		var state session.State
		if token != "" {
			resolved, err := svc.Resolve(c.Context(), token)
			switch {
			case err == nil:
				state = resolved
			case errors.Is(err, concept.ErrUnauthenticated):
				logger.Debug("session rejected", zap.Error(err))
				if fromCookie {
					ClearSessionCookie(c, cfg)
				}
			default:
				return err
			}
		}

		c.Locals(SessionKey, state)
		return c.Next()
	}
}

// extractToken prefers an Authorization bearer token over the cookie.
func extractToken(c *fiber.Ctx, cookieName string) (string, bool) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1]), false
		}
	}
	return c.Cookies(cookieName), true
}

// GetSession retrieves the session state from Fiber's locals. Requests that
// never passed through SessionMiddleware are logged out.
func GetSession(c *fiber.Ctx) session.State {
	state, _ := c.Locals(SessionKey).(session.State)
	return state
}

// SetSessionCookie stores the session token in the client's cookie jar.
func SetSessionCookie(c *fiber.Ctx, cfg config.SessionConfig, state session.State) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    state.Token,
		Path:     "/",
		Expires:  state.ExpiresAt.Time,
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func ClearSessionCookie(c *fiber.Ctx, cfg config.SessionConfig) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// RequireLogin rejects requests without a logged-in user.
func RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := session.GetUser(GetSession(c)); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireLogout rejects requests that already carry a logged-in user.
func RequireLogout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := session.IsLoggedOut(GetSession(c)); err != nil {
			return err
		}
		return c.Next()
	}
}
