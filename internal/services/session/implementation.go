package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/db/types"
	"github.com/matt-cal/main-st/internal/docstore"
	"github.com/matt-cal/main-st/pkg/config"
	"go.uber.org/zap"
)

var schema = docstore.Schema[Session]{
	Table:  "sessions",
	Fields: []string{"user_id", "token", "expires_at", "ip_address", "user_agent"},
	Base:   func(s *Session) *docstore.Doc { return &s.Doc },
	Values: func(s *Session) []any {
		return []any{s.UserID, s.Token, s.ExpiresAt, s.IPAddress, s.UserAgent}
	},
	Targets: func(s *Session) []any {
		return []any{&s.UserID, &s.Token, &s.ExpiresAt, &s.IPAddress, &s.UserAgent}
	},
}

type sessionService struct {
	config   config.SessionConfig
	logger   *zap.Logger
	sessions *docstore.Collection[Session]
}

func NewSessionService(cfg config.SessionConfig, logger *zap.Logger, store *docstore.Store) Service {
	return &sessionService{
		config:   cfg,
		logger:   logger,
		sessions: docstore.NewCollection(store, schema),
	}
}

func (s *sessionService) Start(ctx context.Context, userID, ipAddress, userAgent string) (State, error) {
	if userID == "" {
		return State{}, concept.BadValues("Cannot start a session without a user!")
	}

	expiresAt := time.Now().Add(s.config.Expiration).UTC()
	token, err := s.generateToken(userID, expiresAt)
	if err != nil {
		return State{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	rec := &Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: types.Timestamp{Time: expiresAt},
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := s.sessions.CreateOne(ctx, rec); err != nil {
		return State{}, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Debug("Session started", zap.String("user_id", userID), zap.String("session_id", rec.ID))
	return State{Token: token, UserID: userID, ExpiresAt: rec.ExpiresAt}, nil
}

// End forgets token. Ending an unknown session is not an error.
func (s *sessionService) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.sessions.DeleteMany(ctx, docstore.Eq{"token": token}); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// Resolve checks the token signature and the stored record. Expired records
// are removed.
func (s *sessionService) Resolve(ctx context.Context, token string) (State, error) {
	claims, err := s.validateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			if err := s.End(ctx, token); err != nil {
				s.logger.Warn("Failed to remove expired session", zap.Error(err))
			}
			return State{}, ErrSessionExpired
		}
		return State{}, ErrInvalidSession
	}

	rec, err := s.sessions.ReadOne(ctx, docstore.Eq{"token": token})
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return State{}, ErrInvalidSession
		}
		return State{}, fmt.Errorf("failed to read session: %w", err)
	}
	if rec.UserID != claims.Subject {
		return State{}, ErrInvalidSession
	}
	if !rec.ExpiresAt.After(time.Now()) {
		if err := s.End(ctx, token); err != nil {
			s.logger.Warn("Failed to remove expired session", zap.Error(err))
		}
		return State{}, ErrSessionExpired
	}

	return State{Token: token, UserID: rec.UserID, ExpiresAt: rec.ExpiresAt}, nil
}

// Internal helpers

func (s *sessionService) generateToken(userID string, expiresAt time.Time) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *sessionService) validateToken(tokenString string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*jwt.RegisteredClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
