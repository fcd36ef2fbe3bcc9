package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/matt-cal/main-st/internal/db/types"
)

// Schema maps a document type onto the columns of its table. Fields lists the
// columns after id, date_created and date_updated; Values and Targets must
// return one entry per field in the same order.
type Schema[T any] struct {
	Table   string
	Fields  []string
	Base    func(*T) *Doc
	Values  func(*T) []any
	Targets func(*T) []any
}

// Set lists column assignments for UpdateOne.
type Set map[string]any

// Collection is a typed view of one table.
type Collection[T any] struct {
	store   *Store
	exec    DBTX
	schema  Schema[T]
	columns string
	fields  map[string]bool
}

func NewCollection[T any](store *Store, schema Schema[T]) *Collection[T] {
	cols := append([]string{"id", "date_created", "date_updated"}, schema.Fields...)
	fields := make(map[string]bool, len(cols))
	for _, c := range cols {
		fields[c] = true
	}
	return &Collection[T]{
		store:   store,
		exec:    store.conn,
		schema:  schema,
		columns: strings.Join(cols, ", "),
		fields:  fields,
	}
}

// On returns a copy of the collection that runs its statements through tx.
func (c *Collection[T]) On(tx DBTX) *Collection[T] {
	cp := *c
	cp.exec = tx
	return &cp
}

func (c *Collection[T]) Name() string {
	return c.schema.Table
}

func (c *Collection[T]) newQuery() *query {
	return &query{dialect: c.store.dialect, fields: c.fields}
}

func (c *Collection[T]) scanTargets(doc *T) []any {
	base := c.schema.Base(doc)
	return append([]any{&base.ID, &base.DateCreated, &base.DateUpdated}, c.schema.Targets(doc)...)
}

// CreateOne inserts doc, assigning it a fresh id and timestamps.
func (c *Collection[T]) CreateOne(ctx context.Context, doc *T) error {
	base := c.schema.Base(doc)
	now := types.Now()
	base.ID = uuid.NewString()
	base.DateCreated = now
	base.DateUpdated = now

	q := c.newQuery()
	values := append([]any{base.ID, base.DateCreated, base.DateUpdated}, c.schema.Values(doc)...)
	binds := make([]string, len(values))
	for i, v := range values {
		binds[i] = q.bind(v)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", c.schema.Table, c.columns, strings.Join(binds, ", "))
	if _, err := c.exec.ExecContext(ctx, stmt, q.args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", c.schema.Table, err)
	}
	return nil
}

// ReadOne returns the first document matching f, or ErrNoDocument.
func (c *Collection[T]) ReadOne(ctx context.Context, f Filter) (*T, error) {
	q := c.newQuery()
	where, err := f.build(q)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1", c.columns, c.schema.Table, where)
	doc := new(T)
	if err := c.exec.QueryRowContext(ctx, stmt, q.args...).Scan(c.scanTargets(doc)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("failed to read %s: %w", c.schema.Table, err)
	}
	return doc, nil
}

// ReadMany returns every document matching f, most recently updated first.
func (c *Collection[T]) ReadMany(ctx context.Context, f Filter) ([]T, error) {
	q := c.newQuery()
	where, err := f.build(q)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY date_updated DESC, id", c.columns, c.schema.Table, where)
	rows, err := c.exec.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.schema.Table, err)
	}
	defer rows.Close()

	docs := make([]T, 0)
	for rows.Next() {
		var doc T
		if err := rows.Scan(c.scanTargets(&doc)...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", c.schema.Table, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", c.schema.Table, err)
	}
	return docs, nil
}

// Exists reports whether any document matches f.
func (c *Collection[T]) Exists(ctx context.Context, f Filter) (bool, error) {
	q := c.newQuery()
	where, err := f.build(q)
	if err != nil {
		return false, err
	}

	stmt := fmt.Sprintf("SELECT 1 FROM %s WHERE %s LIMIT 1", c.schema.Table, where)
	var one int
	if err := c.exec.QueryRowContext(ctx, stmt, q.args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query %s: %w", c.schema.Table, err)
	}
	return true, nil
}

// UpdateOne applies set to the first document matching f and bumps its
// date_updated. It reports whether a document was updated.
func (c *Collection[T]) UpdateOne(ctx context.Context, f Filter, set Set) (bool, error) {
	q := c.newQuery()

	keys := make([]string, 0, len(set))
	for k := range set {
		if k == "id" || k == "date_created" || k == "date_updated" {
			return false, fmt.Errorf("%w %q: not updatable", ErrUnknownField, k)
		}
		if err := q.checkField(k); err != nil {
			return false, err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	assigns := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		assigns = append(assigns, k+" = "+q.bind(set[k]))
	}
	assigns = append(assigns, "date_updated = "+q.bind(types.Now()))

	where, err := f.build(q)
	if err != nil {
		return false, err
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE id IN (SELECT id FROM %s WHERE %s LIMIT 1)",
		c.schema.Table, strings.Join(assigns, ", "), c.schema.Table, where)
	res, err := c.exec.ExecContext(ctx, stmt, q.args...)
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", c.schema.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", c.schema.Table, err)
	}
	return n > 0, nil
}

// DeleteOne removes the first document matching f and reports whether one
// was removed.
func (c *Collection[T]) DeleteOne(ctx context.Context, f Filter) (bool, error) {
	q := c.newQuery()
	where, err := f.build(q)
	if err != nil {
		return false, err
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE id IN (SELECT id FROM %s WHERE %s LIMIT 1)",
		c.schema.Table, c.schema.Table, where)
	res, err := c.exec.ExecContext(ctx, stmt, q.args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", c.schema.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", c.schema.Table, err)
	}
	return n > 0, nil
}

// DeleteMany removes every document matching f and returns the count.
func (c *Collection[T]) DeleteMany(ctx context.Context, f Filter) (int64, error) {
	q := c.newQuery()
	where, err := f.build(q)
	if err != nil {
		return 0, err
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s", c.schema.Table, where)
	res, err := c.exec.ExecContext(ctx, stmt, q.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", c.schema.Table, err)
	}
	return res.RowsAffected()
}

// PopOne deletes the first document matching f and returns it. Concurrent
// callers popping the same document see it exactly once; the rest get
// ErrNoDocument.
func (c *Collection[T]) PopOne(ctx context.Context, f Filter) (*T, error) {
	q := c.newQuery()
	where, err := f.build(q)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE id IN (SELECT id FROM %s WHERE %s LIMIT 1) RETURNING %s",
		c.schema.Table, c.schema.Table, where, c.columns)
	doc := new(T)
	if err := c.exec.QueryRowContext(ctx, stmt, q.args...).Scan(c.scanTargets(doc)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("failed to pop from %s: %w", c.schema.Table, err)
	}
	return doc, nil
}
