package session

import (
	"context"
	"fmt"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/db/types"
	"github.com/matt-cal/main-st/internal/docstore"
)

var (
	ErrInvalidSession = fmt.Errorf("invalid session: %w", concept.ErrUnauthenticated)
	ErrSessionExpired = fmt.Errorf("session expired: %w", concept.ErrUnauthenticated)
)

// Session is the stored record behind a session token.
type Session struct {
	docstore.Doc
	UserID    string          `json:"user_id"`
	Token     string          `json:"-"`
	ExpiresAt types.Timestamp `json:"expires_at"`
	IPAddress string          `json:"ip_address"`
	UserAgent string          `json:"user_agent"`
}

// State is the session as seen by a single request. The zero State is a
// logged-out visitor.
type State struct {
	Token     string
	UserID    string
	ExpiresAt types.Timestamp
}

type Service interface {
	Start(ctx context.Context, userID, ipAddress, userAgent string) (State, error)
	End(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (State, error)
}

// GetUser returns the logged-in user of s.
func GetUser(s State) (string, error) {
	if s.UserID == "" {
		return "", concept.Unauthenticated("Must be logged in!")
	}
	return s.UserID, nil
}

// IsLoggedOut fails when s already has a user.
func IsLoggedOut(s State) error {
	if s.UserID != "" {
		return concept.NotAllowed("Must be logged out!")
	}
	return nil
}
