package concept

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matt-cal/main-st/internal/docstore"
)

// EnforceUnique fails with conflict when a document matching key already
// exists in c.
func EnforceUnique[T any](ctx context.Context, c *docstore.Collection[T], key docstore.Filter, conflict error) error {
	exists, err := c.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check %s uniqueness: %w", c.Name(), err)
	}
	if exists {
		return conflict
	}
	return nil
}

// RequireOwner loads document id and checks that user owns it. A missing
// document is NotFound and a foreign one is NotAllowed. what names the
// document kind and role the owning relation in messages, e.g. "post" and
// "author".
func RequireOwner[T any](ctx context.Context, c *docstore.Collection[T], id, user, what, role string, ownerOf func(*T) string) (*T, error) {
	doc, err := c.ReadOne(ctx, docstore.ID(id))
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return nil, NotFound("%s %s does not exist!", capitalize(what), id)
		}
		return nil, fmt.Errorf("failed to read %s: %w", c.Name(), err)
	}
	if ownerOf(doc) != user {
		return nil, NotAllowed("%s is not the %s of %s %s!", UserRef(user), role, what, id)
	}
	return doc, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
