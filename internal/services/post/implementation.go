package post

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/docstore"
	"go.uber.org/zap"
)

var schema = docstore.Schema[Post]{
	Table:  "posts",
	Fields: []string{"author_id", "content", "background_color"},
	Base:   func(p *Post) *docstore.Doc { return &p.Doc },
	Values: func(p *Post) []any {
		return []any{p.Author, p.Content, p.Options.BackgroundColor}
	},
	Targets: func(p *Post) []any {
		return []any{&p.Author, &p.Content, &p.Options.BackgroundColor}
	},
}

type postService struct {
	logger *zap.Logger
	store  *docstore.Store
	posts  *docstore.Collection[Post]
}

func NewPostService(logger *zap.Logger, store *docstore.Store) Service {
	return &postService{
		logger: logger,
		store:  store,
		posts:  docstore.NewCollection(store, schema),
	}
}

func (s *postService) Create(ctx context.Context, author, content string, options Options) (*Post, error) {
	if content == "" {
		return nil, concept.BadValues("Post content cannot be empty!")
	}
	p := &Post{Author: author, Content: content, Options: options}
	if err := s.posts.CreateOne(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	s.logger.Debug("Post created", zap.String("post_id", p.ID), zap.String("author", author))
	return p, nil
}

func (s *postService) GetPosts(ctx context.Context, filter docstore.Filter) ([]Post, error) {
	posts, err := s.posts.ReadMany(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (s *postService) GetByAuthor(ctx context.Context, author string) ([]Post, error) {
	return s.GetPosts(ctx, docstore.Eq{"author_id": author})
}

// IDsByAuthor lists the ids of author's posts as seen by tx.
func (s *postService) IDsByAuthor(ctx context.Context, tx docstore.DBTX, author string) ([]string, error) {
	posts, err := s.posts.On(tx).ReadMany(ctx, docstore.Eq{"author_id": author})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids, nil
}

func (s *postService) GetPost(ctx context.Context, id string) (*Post, error) {
	p, err := s.posts.ReadOne(ctx, docstore.ID(id))
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return nil, concept.Errorf(ErrPostNotFound, "Post %s does not exist!", id)
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

func (s *postService) Update(ctx context.Context, id string, update Update) error {
	set := docstore.Set{}
	for key, raw := range update {
		switch key {
		case "content":
			content, ok := raw.(string)
			if !ok || content == "" {
				return concept.BadValues("Post content cannot be empty!")
			}
			set["content"] = content
		case "options":
			color, err := parseOptions(raw)
			if err != nil {
				return err
			}
			set["background_color"] = color
		default:
			return concept.NotAllowed("Cannot update '%s' field!", key)
		}
	}
	if len(set) == 0 {
		return concept.BadValues("Nothing to update!")
	}

	updated, err := s.posts.UpdateOne(ctx, docstore.ID(id), set)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if !updated {
		return concept.Errorf(ErrPostNotFound, "Post %s does not exist!", id)
	}
	s.logger.Debug("Post updated", zap.String("post_id", id))
	return nil
}

// Delete removes post id. The cascade steps run first in the same
// transaction, so nothing they write survives a failed delete.
func (s *postService) Delete(ctx context.Context, id string, cascade ...docstore.TxFunc) error {
	err := s.store.InTx(ctx, func(tx docstore.DBTX) error {
		for _, step := range cascade {
			if err := step(ctx, tx); err != nil {
				return err
			}
		}
		deleted, err := s.posts.On(tx).DeleteOne(ctx, docstore.ID(id))
		if err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		if !deleted {
			return concept.Errorf(ErrPostNotFound, "Post %s does not exist!", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("Post deleted", zap.String("post_id", id))
	return nil
}

func (s *postService) IsAuthor(ctx context.Context, user, id string) error {
	_, err := concept.RequireOwner(ctx, s.posts, id, user, "post", "author", func(p *Post) string { return p.Author })
	return err
}

// parseOptions accepts the decoded JSON form of Options. Only
// background_color is recognised.
func parseOptions(raw any) (string, error) {
	if raw == nil {
		return "", nil
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return "", concept.BadValues("Post options must be an object!")
	}
	color := ""
	for key, value := range fields {
		if key != "background_color" {
			return "", concept.NotAllowed("Cannot update 'options.%s' field!", key)
		}
		s, ok := value.(string)
		if !ok {
			return "", concept.BadValues("Post background color must be a string!")
		}
		color = s
	}
	return color, nil
}
