package tag

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/db"
	"github.com/matt-cal/main-st/internal/docstore"
	"go.uber.org/zap"
)

var schema = docstore.Schema[Tag]{
	Table:  "tags",
	Fields: []string{"owner_id", "target_id", "target_type", "name"},
	Base:   func(t *Tag) *docstore.Doc { return &t.Doc },
	Values: func(t *Tag) []any {
		return []any{t.Owner, t.Target, string(t.TargetType), t.Name}
	},
	Targets: func(t *Tag) []any {
		return []any{&t.Owner, &t.Target, (*string)(&t.TargetType), &t.Name}
	},
}

type tagService struct {
	logger *zap.Logger
	tags   *docstore.Collection[Tag]
}

func NewTagService(logger *zap.Logger, store *docstore.Store) Service {
	return &tagService{
		logger: logger,
		tags:   docstore.NewCollection(store, schema),
	}
}

func (s *tagService) Create(ctx context.Context, owner, target string, targetType TargetType, name string) (*Tag, error) {
	if target == "" {
		return nil, concept.BadValues("Tag target must be non-empty!")
	}
	if name == "" {
		return nil, concept.BadValues("Tag name must be non-empty!")
	}
	if _, err := ParseTargetType(string(targetType)); err != nil {
		return nil, err
	}
	conflict := alreadyTagged(target, name)
	if err := concept.EnforceUnique(ctx, s.tags, naturalKey(target, name), conflict); err != nil {
		return nil, err
	}

	t := &Tag{Owner: owner, Target: target, TargetType: targetType, Name: name}
	if err := s.tags.CreateOne(ctx, t); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	s.logger.Debug("Tag created", zap.String("tag_id", t.ID), zap.String("target", target), zap.String("name", name))
	return t, nil
}

func (s *tagService) GetTags(ctx context.Context, q Query) ([]Tag, error) {
	filter := docstore.Eq{}
	if q.Target != "" {
		filter["target_id"] = q.Target
	}
	if q.Name != "" {
		filter["name"] = q.Name
	}
	if q.TargetType != "" {
		filter["target_type"] = string(q.TargetType)
	}
	tags, err := s.tags.ReadMany(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetTargetsByName returns the ids of every target of the given type that
// carries the tag name.
func (s *tagService) GetTargetsByName(ctx context.Context, name string, targetType TargetType) ([]string, error) {
	if name == "" {
		return nil, concept.BadValues("Tag name must be non-empty!")
	}
	tags, err := s.GetTags(ctx, Query{Name: name, TargetType: targetType})
	if err != nil {
		return nil, err
	}
	targets := make([]string, len(tags))
	for i, t := range tags {
		targets[i] = t.Target
	}
	return targets, nil
}

func (s *tagService) Rename(ctx context.Context, id, name string) error {
	if name == "" {
		return concept.BadValues("Tag name must be non-empty!")
	}
	current, err := s.tags.ReadOne(ctx, docstore.ID(id))
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return concept.Errorf(ErrTagNotFound, "Tag %s does not exist!", id)
		}
		return fmt.Errorf("failed to read tag: %w", err)
	}
	if current.Name == name {
		return nil
	}

	conflict := alreadyTagged(current.Target, name)
	if err := concept.EnforceUnique(ctx, s.tags, naturalKey(current.Target, name), conflict); err != nil {
		return err
	}
	updated, err := s.tags.UpdateOne(ctx, docstore.ID(id), docstore.Set{"name": name})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return conflict
		}
		return fmt.Errorf("failed to rename tag: %w", err)
	}
	if !updated {
		return concept.Errorf(ErrTagNotFound, "Tag %s does not exist!", id)
	}
	return nil
}

func (s *tagService) Delete(ctx context.Context, id string) error {
	deleted, err := s.tags.DeleteOne(ctx, docstore.ID(id))
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if !deleted {
		return concept.Errorf(ErrTagNotFound, "Tag %s does not exist!", id)
	}
	s.logger.Debug("Tag deleted", zap.String("tag_id", id))
	return nil
}

// DeleteByKey removes the tag name from target on behalf of user, who must
// own the tag.
func (s *tagService) DeleteByKey(ctx context.Context, user, target, name string) error {
	t, err := s.tags.ReadOne(ctx, naturalKey(target, name))
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return concept.Errorf(ErrTagNotFound, "Tag %s does not exist on %s!", name, target)
		}
		return fmt.Errorf("failed to read tag: %w", err)
	}
	if t.Owner != user {
		return concept.NotAllowed("%s is not the owner of tag %s!", concept.UserRef(user), name)
	}
	return s.Delete(ctx, t.ID)
}

// DeleteByTarget removes every tag on target.
func (s *tagService) DeleteByTarget(ctx context.Context, target string) (int64, error) {
	return deleteByTargets(ctx, s.tags, target)
}

// DeleteByTargets removes every tag on any of targets through tx.
func (s *tagService) DeleteByTargets(ctx context.Context, tx docstore.DBTX, targets ...string) (int64, error) {
	return deleteByTargets(ctx, s.tags.On(tx), targets...)
}

func (s *tagService) IsOwner(ctx context.Context, user, id string) error {
	_, err := concept.RequireOwner(ctx, s.tags, id, user, "tag", "owner", func(t *Tag) string { return t.Owner })
	return err
}

func deleteByTargets(ctx context.Context, tags *docstore.Collection[Tag], targets ...string) (int64, error) {
	values := make([]any, len(targets))
	for i, t := range targets {
		values[i] = t
	}
	n, err := tags.DeleteMany(ctx, docstore.In{Field: "target_id", Values: values})
	if err != nil {
		return 0, fmt.Errorf("failed to delete tags: %w", err)
	}
	return n, nil
}

func naturalKey(target, name string) docstore.Filter {
	return docstore.Eq{"target_id": target, "name": name}
}

func alreadyTagged(target, name string) error {
	return concept.Errorf(ErrAlreadyTagged, "Target %s already has tag %s!", target, name)
}
