package docstore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matt-cal/main-st/internal/db"
)

// Filter is a predicate over the columns of a collection.
type Filter interface {
	build(q *query) (string, error)
}

// Eq matches documents whose fields equal every given value. An empty Eq
// matches everything.
type Eq map[string]any

// And matches documents satisfying every filter.
type And []Filter

// Or matches documents satisfying at least one filter. An empty Or matches
// nothing.
type Or []Filter

// In matches documents whose field equals one of Values.
type In struct {
	Field  string
	Values []any
}

// ID matches the document with the given id.
func ID(id string) Filter {
	return Eq{"id": id}
}

// All matches every document.
func All() Filter {
	return Eq{}
}

func (f Eq) build(q *query) (string, error) {
	if len(f) == 0 {
		return "1 = 1", nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := q.checkField(k); err != nil {
			return "", err
		}
		parts = append(parts, k+" = "+q.bind(f[k]))
	}
	return strings.Join(parts, " AND "), nil
}

func (f And) build(q *query) (string, error) {
	return join(q, f, " AND ", "1 = 1")
}

func (f Or) build(q *query) (string, error) {
	return join(q, f, " OR ", "1 = 0")
}

func (f In) build(q *query) (string, error) {
	if err := q.checkField(f.Field); err != nil {
		return "", err
	}
	if len(f.Values) == 0 {
		return "1 = 0", nil
	}
	binds := make([]string, len(f.Values))
	for i, v := range f.Values {
		binds[i] = q.bind(v)
	}
	return f.Field + " IN (" + strings.Join(binds, ", ") + ")", nil
}

func join(q *query, filters []Filter, sep, empty string) (string, error) {
	if len(filters) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		s, err := f.build(q)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+s+")")
	}
	return strings.Join(parts, sep), nil
}

// query accumulates bind arguments while a statement is assembled.
type query struct {
	dialect db.Dialect
	fields  map[string]bool
	args    []any
}

func (q *query) bind(v any) string {
	q.args = append(q.args, v)
	return q.dialect.Placeholder(len(q.args))
}

func (q *query) checkField(name string) error {
	if !q.fields[name] {
		return fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	return nil
}
