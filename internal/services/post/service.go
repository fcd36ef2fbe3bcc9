package post

import (
	"context"
	"fmt"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/docstore"
)

var ErrPostNotFound = fmt.Errorf("post not found: %w", concept.ErrNotFound)

// Options are optional presentation settings of a post.
type Options struct {
	BackgroundColor string `json:"background_color,omitempty"`
}

type Post struct {
	docstore.Doc
	Author  string  `json:"author"`
	Content string  `json:"content"`
	Options Options `json:"options"`
}

// Update is a partial post. Only "content" and "options" may be set.
type Update map[string]any

type Service interface {
	Create(ctx context.Context, author, content string, options Options) (*Post, error)
	GetPosts(ctx context.Context, filter docstore.Filter) ([]Post, error)
	GetByAuthor(ctx context.Context, author string) ([]Post, error)
	IDsByAuthor(ctx context.Context, tx docstore.DBTX, author string) ([]string, error)
	GetPost(ctx context.Context, id string) (*Post, error)
	Update(ctx context.Context, id string, update Update) error
	Delete(ctx context.Context, id string, cascade ...docstore.TxFunc) error
	IsAuthor(ctx context.Context, user, id string) error
}
