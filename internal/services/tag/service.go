package tag

import (
	"context"
	"fmt"

	"github.com/matt-cal/main-st/internal/concept"
	"github.com/matt-cal/main-st/internal/docstore"
)

var (
	ErrAlreadyTagged     = fmt.Errorf("already tagged: %w", concept.ErrNotAllowed)
	ErrTagNotFound       = fmt.Errorf("tag not found: %w", concept.ErrNotFound)
	ErrInvalidTargetType = fmt.Errorf("invalid tag target type: %w", concept.ErrBadValues)
)

// TargetType says what kind of document a tag is attached to.
type TargetType string

const (
	TargetPost TargetType = "post"
	TargetUser TargetType = "user"
)

func ParseTargetType(s string) (TargetType, error) {
	switch TargetType(s) {
	case TargetPost, TargetUser:
		return TargetType(s), nil
	case "":
		return "", concept.BadValues("Tag type must be non-empty!")
	}
	return "", concept.Errorf(ErrInvalidTargetType, "Tag type must be one of 'post' or 'user', not '%s'!", s)
}

// Tag attaches Name to one target. A target carries each name at most once.
type Tag struct {
	docstore.Doc
	Owner      string     `json:"owner"`
	Target     string     `json:"target"`
	TargetType TargetType `json:"type"`
	Name       string     `json:"name"`
}

// Query selects tags; empty fields match anything.
type Query struct {
	Target     string
	Name       string
	TargetType TargetType
}

type Service interface {
	Create(ctx context.Context, owner, target string, targetType TargetType, name string) (*Tag, error)
	GetTags(ctx context.Context, q Query) ([]Tag, error)
	GetTargetsByName(ctx context.Context, name string, targetType TargetType) ([]string, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	DeleteByKey(ctx context.Context, user, target, name string) error
	DeleteByTarget(ctx context.Context, target string) (int64, error)
	DeleteByTargets(ctx context.Context, tx docstore.DBTX, targets ...string) (int64, error)
	IsOwner(ctx context.Context, user, id string) error
}
