package favorite

import (
	"context"
	"fmt"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/db"
	"github.com/matt-cal/main-st/internal/docstore"
	"go.uber.org/zap"
)

var schema = docstore.Schema[Favorite]{
	Table:   "favorites",
	Fields:  []string{"owner_id", "target_id", "note"},
	Base:    func(f *Favorite) *docstore.Doc { return &f.Doc },
	Values:  func(f *Favorite) []any { return []any{f.Owner, f.Target, f.Note} },
	Targets: func(f *Favorite) []any { return []any{&f.Owner, &f.Target, &f.Note} },
}

type favoriteService struct {
	logger    *zap.Logger
	favorites *docstore.Collection[Favorite]
}

func NewFavoriteService(logger *zap.Logger, store *docstore.Store) Service {
	return &favoriteService{
		logger:    logger,
		favorites: docstore.NewCollection(store, schema),
	}
}

func (s *favoriteService) Create(ctx context.Context, owner, target, note string) (*Favorite, error) {
	if target == "" {
		return nil, concept.BadValues("Favorite target must be non-empty!")
	}
	conflict := concept.Errorf(ErrAlreadyFavorited, "%s has already favorited %s!", concept.UserRef(owner), concept.UserRef(target))
	key := docstore.Eq{"owner_id": owner, "target_id": target}
	if err := concept.EnforceUnique(ctx, s.favorites, key, conflict); err != nil {
		return nil, err
	}

	f := &Favorite{Owner: owner, Target: target, Note: note}
	if err := s.favorites.CreateOne(ctx, f); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to create favorite: %w", err)
	}
	s.logger.Debug("Favorite created", zap.String("favorite_id", f.ID), zap.String("owner", owner))
	return f, nil
}

func (s *favoriteService) GetFavorites(ctx context.Context, filter docstore.Filter) ([]Favorite, error) {
	favorites, err := s.favorites.ReadMany(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}

func (s *favoriteService) GetByOwner(ctx context.Context, owner string) ([]Favorite, error) {
	return s.GetFavorites(ctx, docstore.Eq{"owner_id": owner})
}

func (s *favoriteService) Update(ctx context.Context, id, note string) error {
	updated, err := s.favorites.UpdateOne(ctx, docstore.ID(id), docstore.Set{"note": note})
	if err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}
	if !updated {
		return concept.Errorf(ErrFavoriteNotFound, "Favorite %s does not exist!", id)
	}
	return nil
}

func (s *favoriteService) Delete(ctx context.Context, id string) error {
	deleted, err := s.favorites.DeleteOne(ctx, docstore.ID(id))
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	if !deleted {
		return concept.Errorf(ErrFavoriteNotFound, "Favorite %s does not exist!", id)
	}
	s.logger.Debug("Favorite deleted", zap.String("favorite_id", id))
	return nil
}

func (s *favoriteService) IsOwner(ctx context.Context, user, id string) error {
	_, err := concept.RequireOwner(ctx, s.favorites, id, user, "favorite", "owner", func(f *Favorite) string { return f.Owner })
	return err
}
