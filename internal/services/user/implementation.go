package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/db"
	"github.com/matt-cal/main-st/internal/docstore"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var schema = docstore.Schema[User]{
	Table:   "users",
	Fields:  []string{"username", "password_hash"},
	Base:    func(u *User) *docstore.Doc { return &u.Doc },
	Values:  func(u *User) []any { return []any{u.Username, u.PasswordHash} },
	Targets: func(u *User) []any { return []any{&u.Username, &u.PasswordHash} },
}

type userService struct {
	logger *zap.Logger
	store  *docstore.Store
	users  *docstore.Collection[User]
}

func NewUserService(logger *zap.Logger, store *docstore.Store) Service {
	return &userService{
		logger: logger,
		store:  store,
		users:  docstore.NewCollection(store, schema),
	}
}

func (s *userService) Create(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, concept.BadValues("Username and password must be non-empty!")
	}
	if err := checkPasswordLength(password); err != nil {
		return nil, err
	}
	if err := s.isUsernameUnique(ctx, username); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{Username: username, PasswordHash: hash}
	if err := s.users.CreateOne(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, duplicateUsername(username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Debug("User created", zap.String("user_id", u.ID), zap.String("username", username))
	return u, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*User, error) {
	u, err := s.users.ReadOne(ctx, docstore.ID(id))
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return nil, concept.Errorf(ErrUserNotFound, "User not found!")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *userService) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	u, err := s.users.ReadOne(ctx, docstore.Eq{"username": username})
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return nil, concept.Errorf(ErrUserNotFound, "User with username %s does not exist!", username)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUsers lists every user, or only the one named username when it is set.
func (s *userService) GetUsers(ctx context.Context, username string) ([]User, error) {
	filter := docstore.All()
	if username != "" {
		filter = docstore.Eq{"username": username}
	}
	users, err := s.users.ReadMany(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// IDsToUsernames resolves ids in order. Ids without a user map to
// DeletedUsername.
func (s *userService) IDsToUsernames(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	users, err := s.users.ReadMany(ctx, docstore.In{Field: "id", Values: values})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve usernames: %w", err)
	}

	byID := make(map[string]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.Username
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		name, ok := byID[id]
		if !ok {
			name = DeletedUsername
		}
		names[i] = name
	}
	return names, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, concept.BadValues("Username and password must be non-empty!")
	}
	u, err := s.users.ReadOne(ctx, docstore.Eq{"username": username})
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return nil, concept.Errorf(ErrInvalidCredentials, "Username or password is incorrect.")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !verifyPassword(u.PasswordHash, password) {
		return nil, concept.Errorf(ErrInvalidCredentials, "Username or password is incorrect.")
	}
	return u, nil
}

// Update changes the username and/or password of user id. Any other key is
// rejected.
func (s *userService) Update(ctx context.Context, id string, update Update) error {
	set := docstore.Set{}
	for key, raw := range update {
		value, ok := raw.(string)
		switch key {
		case "username":
			if !ok || value == "" {
				return concept.BadValues("Username must be non-empty!")
			}
			current, err := s.GetUserByID(ctx, id)
			if err != nil {
				return err
			}
			if current.Username != value {
				if err := s.isUsernameUnique(ctx, value); err != nil {
					return err
				}
			}
			set["username"] = value
		case "password":
			if !ok || value == "" {
				return concept.BadValues("Password must be non-empty!")
			}
			if err := checkPasswordLength(value); err != nil {
				return err
			}
			hash, err := hashPassword(value)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			set["password_hash"] = hash
		default:
			return concept.NotAllowed("Cannot update '%s' field!", key)
		}
	}
	if len(set) == 0 {
		return concept.BadValues("Nothing to update!")
	}

	updated, err := s.users.UpdateOne(ctx, docstore.ID(id), set)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return duplicateUsername(set["username"])
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if !updated {
		return concept.Errorf(ErrUserNotFound, "User not found!")
	}

	s.logger.Debug("User updated", zap.String("user_id", id))
	return nil
}

// Delete removes user id and, through foreign keys, everything that
// references the user. The cascade steps run first in the same transaction.
func (s *userService) Delete(ctx context.Context, id string, cascade ...docstore.TxFunc) error {
	err := s.store.InTx(ctx, func(tx docstore.DBTX) error {
		for _, step := range cascade {
			if err := step(ctx, tx); err != nil {
				return err
			}
		}
		deleted, err := s.users.On(tx).DeleteOne(ctx, docstore.ID(id))
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if !deleted {
			return concept.Errorf(ErrUserNotFound, "User not found!")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("User deleted", zap.String("user_id", id))
	return nil
}

func (s *userService) UserExists(ctx context.Context, id string) error {
	exists, err := s.users.Exists(ctx, docstore.ID(id))
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return concept.Errorf(ErrUserNotFound, "User not found!")
	}
	return nil
}

func (s *userService) isUsernameUnique(ctx context.Context, username string) error {
	return concept.EnforceUnique(ctx, s.users, docstore.Eq{"username": username}, duplicateUsername(username))
}

func duplicateUsername(username any) error {
	return concept.Errorf(ErrDuplicateUsername, "User with username %s already exists!", username)
}

// Internal helpers

func checkPasswordLength(password string) error {
	if len(password) > MaxPasswordBytes {
		return concept.Errorf(ErrPasswordTooLong, "Password must be at most %d bytes!", MaxPasswordBytes)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
