package like

import (
	"context"
	"fmt"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/docstore"
)

var (
	ErrAlreadyLiked = fmt.Errorf("already liked: %w", concept.ErrNotAllowed)
	ErrLikeNotFound = fmt.Errorf("like not found: %w", concept.ErrNotFound)
	ErrInvalidType  = fmt.Errorf("invalid like type: %w", concept.ErrBadValues)
)

// Type is the kind of reaction a like records.
type Type string

const (
	TypeLike    Type = "like"
	TypeDislike Type = "dislike"
)

// ParseType validates s. The empty string is reported as a missing value.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeLike, TypeDislike:
		return Type(s), nil
	case "":
		return "", concept.BadValues("Like type must be non-empty!")
	}
	return "", concept.Errorf(ErrInvalidType, "Like type must be one of 'like' or 'dislike', not '%s'!", s)
}

// Like records one user's reaction to one post. A user has at most one like
// of each type per post.
type Like struct {
	docstore.Doc
	User string `json:"user"`
	Post string `json:"post"`
	Type Type   `json:"type"`
}

type Service interface {
	Create(ctx context.Context, user, post string, likeType Type) (*Like, error)
	GetByOwner(ctx context.Context, user string, likeType Type) ([]Like, error)
	GetByPost(ctx context.Context, post string, likeType Type) ([]Like, error)
	DidUserLike(ctx context.Context, post, user string, likeType Type) (bool, error)
	Update(ctx context.Context, id string, likeType Type) error
	Delete(ctx context.Context, id string) error
	IsOwner(ctx context.Context, user, id string) error
}
