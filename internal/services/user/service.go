package user

import (
	"context"
	"fmt"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/docstore"
)

// DeletedUsername stands in for ids that no longer resolve to a user.
const DeletedUsername = "DELETED_USER"

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

var (
	ErrDuplicateUsername  = fmt.Errorf("username already exists: %w", concept.ErrNotAllowed)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", concept.ErrNotAllowed)
	ErrUserNotFound       = fmt.Errorf("user not found: %w", concept.ErrNotFound)
	ErrPasswordTooLong    = fmt.Errorf("password too long: %w", concept.ErrBadValues)
)

// User is an account record. The password hash never leaves the service.
type User struct {
	docstore.Doc
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Update carries the fields a user may change about themselves.
type Update map[string]any

type Service interface {
	Create(ctx context.Context, username, password string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUsers(ctx context.Context, username string) ([]User, error)
	IDsToUsernames(ctx context.Context, ids []string) ([]string, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	Update(ctx context.Context, id string, update Update) error
	Delete(ctx context.Context, id string, cascade ...docstore.TxFunc) error
	UserExists(ctx context.Context, id string) error
}
