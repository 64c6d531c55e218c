package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// querier is the subset of *sql.DB and *sql.Tx used for reads.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Reader is the read view shared by Store and Batch.
// A Batch reads its own staged writes.
type Reader interface {
	Get(ctx context.Context, key []byte) ([]byte, bool, error)
	Len(ctx context.Context) (int, error)
	Iterate(ctx context.Context, opts IterOptions, fn func(key, value []byte) (bool, error)) error
	GetMetadata(ctx context.Context, key []byte) ([]byte, bool, error)
}

// IterOptions selects a range of the async_pool partition.
type IterOptions struct {
	// From is the starting key. Nil starts at the first (or last, if Reverse) key.
	From []byte
	// Exclusive skips From itself.
	Exclusive bool
	// Reverse iterates in descending key order.
	Reverse bool
	// Limit bounds the number of rows. Zero means unbounded.
	Limit int
}

// query builds the ordered SELECT for the options.
// ORDER BY id is memcmp order because id is a WITHOUT ROWID BLOB key.
func (o IterOptions) query() (string, []any) {
	var b strings.Builder
	var args []any
	b.WriteString("SELECT id, message FROM async_pool")
	if o.From != nil {
		op := ">="
		switch {
		case o.Reverse && o.Exclusive:
			op = "<"
		case o.Reverse:
			op = "<="
		case o.Exclusive:
			op = ">"
		}
		b.WriteString(" WHERE id " + op + " ?")
		args = append(args, o.From)
	}
	if o.Reverse {
		b.WriteString(" ORDER BY id DESC")
	} else {
		b.WriteString(" ORDER BY id ASC")
	}
	if o.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, o.Limit)
	}
	return b.String(), args
}

// Get returns the value stored under key in the async_pool partition.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return get(ctx, s.db, "SELECT message FROM async_pool WHERE id = ?", key)
}

// Len returns the number of entries in the async_pool partition.
func (s *Store) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return count(ctx, s.db)
}

// Iterate calls fn for each entry in the selected range, in key order, until
// fn returns false or an error. fn must not write to the store.
func (s *Store) Iterate(ctx context.Context, opts IterOptions, fn func(key, value []byte) (bool, error)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return iterate(ctx, s.db, opts, fn)
}

// GetMetadata returns the value stored under key in the metadata partition.
func (s *Store) GetMetadata(ctx context.Context, key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return get(ctx, s.db, "SELECT value FROM metadata WHERE key = ?", key)
}

func get(ctx context.Context, q querier, query string, key []byte) ([]byte, bool, error) {
	var value []byte
	err := q.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get: %w", err)
	}
	return value, true, nil
}

func count(ctx context.Context, q querier) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM async_pool").Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func iterate(ctx context.Context, q querier, opts IterOptions, fn func(key, value []byte) (bool, error)) error {
	query, args := opts.query()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query async_pool: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan async_pool: %w", err)
		}
		more, err := fn(key, value)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate async_pool: %w", err)
	}
	return nil
}
