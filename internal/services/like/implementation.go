package like

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/db"
	"github.com/matt-cal/main-st/internal/docstore"
	"go.uber.org/zap"
)

var schema = docstore.Schema[Like]{
	Table:   "likes",
	Fields:  []string{"user_id", "post_id", "like_type"},
	Base:    func(l *Like) *docstore.Doc { return &l.Doc },
	Values:  func(l *Like) []any { return []any{l.User, l.Post, string(l.Type)} },
	Targets: func(l *Like) []any { return []any{&l.User, &l.Post, (*string)(&l.Type)} },
}

type likeService struct {
	logger *zap.Logger
	likes  *docstore.Collection[Like]
}

func NewLikeService(logger *zap.Logger, store *docstore.Store) Service {
	return &likeService{
		logger: logger,
		likes:  docstore.NewCollection(store, schema),
	}
}

func (s *likeService) Create(ctx context.Context, user, post string, likeType Type) (*Like, error) {
	if post == "" {
		return nil, concept.BadValues("Liked post must be non-empty!")
	}
	if _, err := ParseType(string(likeType)); err != nil {
		return nil, err
	}
	conflict := alreadyLiked(user, post, likeType)
	if err := concept.EnforceUnique(ctx, s.likes, naturalKey(user, post, likeType), conflict); err != nil {
		return nil, err
	}

	l := &Like{User: user, Post: post, Type: likeType}
	if err := s.likes.CreateOne(ctx, l); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to create like: %w", err)
	}
	s.logger.Debug("Like created", zap.String("like_id", l.ID), zap.String("post", post), zap.String("type", string(likeType)))
	return l, nil
}

// GetByOwner lists the likes user made. An empty likeType matches any type.
func (s *likeService) GetByOwner(ctx context.Context, user string, likeType Type) ([]Like, error) {
	return s.list(ctx, withType(docstore.Eq{"user_id": user}, likeType))
}

// GetByPost lists the likes on post. An empty likeType matches any type.
func (s *likeService) GetByPost(ctx context.Context, post string, likeType Type) ([]Like, error) {
	return s.list(ctx, withType(docstore.Eq{"post_id": post}, likeType))
}

func (s *likeService) DidUserLike(ctx context.Context, post, user string, likeType Type) (bool, error) {
	filter := withType(docstore.Eq{"user_id": user, "post_id": post}, likeType)
	liked, err := s.likes.Exists(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return liked, nil
}

// Update switches the type of like id, keeping the one-per-type rule.
func (s *likeService) Update(ctx context.Context, id string, likeType Type) error {
	if _, err := ParseType(string(likeType)); err != nil {
		return err
	}
	current, err := s.likes.ReadOne(ctx, docstore.ID(id))
	if err != nil {
		return s.notFound(err, id)
	}
	if current.Type == likeType {
		return nil
	}

	conflict := alreadyLiked(current.User, current.Post, likeType)
	if err := concept.EnforceUnique(ctx, s.likes, naturalKey(current.User, current.Post, likeType), conflict); err != nil {
		return err
	}
	updated, err := s.likes.UpdateOne(ctx, docstore.ID(id), docstore.Set{"like_type": string(likeType)})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return conflict
		}
		return fmt.Errorf("failed to update like: %w", err)
	}
	if !updated {
		return concept.Errorf(ErrLikeNotFound, "Like %s does not exist!", id)
	}
	return nil
}

func (s *likeService) Delete(ctx context.Context, id string) error {
	deleted, err := s.likes.DeleteOne(ctx, docstore.ID(id))
	if err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	if !deleted {
		return concept.Errorf(ErrLikeNotFound, "Like %s does not exist!", id)
	}
	s.logger.Debug("Like deleted", zap.String("like_id", id))
	return nil
}

func (s *likeService) IsOwner(ctx context.Context, user, id string) error {
	_, err := concept.RequireOwner(ctx, s.likes, id, user, "like", "owner", func(l *Like) string { return l.User })
	return err
}

func (s *likeService) list(ctx context.Context, filter docstore.Filter) ([]Like, error) {
	likes, err := s.likes.ReadMany(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	return likes, nil
}

func (s *likeService) notFound(err error, id string) error {
	if errors.Is(err, docstore.ErrNoDocument) {
		return concept.Errorf(ErrLikeNotFound, "Like %s does not exist!", id)
	}
	return fmt.Errorf("failed to read like: %w", err)
}

func naturalKey(user, post string, likeType Type) docstore.Filter {
	return docstore.Eq{"user_id": user, "post_id": post, "like_type": string(likeType)}
}

func withType(filter docstore.Eq, likeType Type) docstore.Filter {
	if likeType != "" {
		filter["like_type"] = string(likeType)
	}
	return filter
}

func alreadyLiked(user, post string, likeType Type) error {
	return concept.Errorf(ErrAlreadyLiked, "%s has already given post %s a %s!", concept.UserRef(user), post, likeType)
}
