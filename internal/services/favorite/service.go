package favorite

import (
	"context"
	"fmt"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/docstore"
)

var (
	ErrAlreadyFavorited = fmt.Errorf("already favorited: %w", concept.ErrNotAllowed)
	ErrFavoriteNotFound = fmt.Errorf("favorite not found: %w", concept.ErrNotFound)
)

// Favorite records that Owner has favorited the user Target.
type Favorite struct {
	docstore.Doc
	Owner  string `json:"owner"`
	Target string `json:"target"`
	Note   string `json:"note"`
}

type Service interface {
	Create(ctx context.Context, owner, target, note string) (*Favorite, error)
	GetFavorites(ctx context.Context, filter docstore.Filter) ([]Favorite, error)
	GetByOwner(ctx context.Context, owner string) ([]Favorite, error)
	Update(ctx context.Context, id, note string) error
	Delete(ctx context.Context, id string) error
	IsOwner(ctx context.Context, user, id string) error
}
