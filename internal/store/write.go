package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrBatchClosed is returned by operations on a committed or rolled back Batch.
var ErrBatchClosed = errors.New("batch already closed")

// Batch is an atomic write set over both partitions, backed by one SQL
// transaction. Reads through a Batch observe its staged writes.
//
// A Batch holds the shared store lock from Begin until Commit or Rollback.
// While a Batch is open, all reads for the same logical operation must go
// through it: the store has a single connection and the Batch owns it.
type Batch struct {
	tx     *sql.Tx
	unlock func()
	closed bool
}

var _ Reader = (*Batch)(nil)

// Begin opens a new Batch.
func (s *Store) Begin(ctx context.Context) (*Batch, error) {
	s.mu.RLock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	return &Batch{tx: tx, unlock: s.mu.RUnlock}, nil
}

// Put stages key -> value in the async_pool partition, replacing any prior value.
func (b *Batch) Put(ctx context.Context, key, value []byte) error {
	if b.closed {
		return ErrBatchClosed
	}
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO async_pool (id, message) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET message = excluded.message
	`, key, value)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

// Delete stages removal of key from the async_pool partition.
// Deleting an absent key is not an error.
func (b *Batch) Delete(ctx context.Context, key []byte) error {
	if b.closed {
		return ErrBatchClosed
	}
	if _, err := b.tx.ExecContext(ctx, "DELETE FROM async_pool WHERE id = ?", key); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// PutMetadata stages key -> value in the metadata partition.
func (b *Batch) PutMetadata(ctx context.Context, key, value []byte) error {
	if b.closed {
		return ErrBatchClosed
	}
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("put metadata: %w", err)
	}
	return nil
}

// Get returns the staged or committed value for key.
func (b *Batch) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if b.closed {
		return nil, false, ErrBatchClosed
	}
	return get(ctx, b.tx, "SELECT message FROM async_pool WHERE id = ?", key)
}

// Len returns the number of entries as seen by the batch.
func (b *Batch) Len(ctx context.Context) (int, error) {
	if b.closed {
		return 0, ErrBatchClosed
	}
	return count(ctx, b.tx)
}

// Iterate walks the batch view in key order. fn must not write to the batch;
// collect keys first and write afterwards.
func (b *Batch) Iterate(ctx context.Context, opts IterOptions, fn func(key, value []byte) (bool, error)) error {
	if b.closed {
		return ErrBatchClosed
	}
	return iterate(ctx, b.tx, opts, fn)
}

// GetMetadata returns the staged or committed metadata value for key.
func (b *Batch) GetMetadata(ctx context.Context, key []byte) ([]byte, bool, error) {
	if b.closed {
		return nil, false, ErrBatchClosed
	}
	return get(ctx, b.tx, "SELECT value FROM metadata WHERE key = ?", key)
}

// Commit atomically applies every staged write and releases the batch.
func (b *Batch) Commit() error {
	if b.closed {
		return ErrBatchClosed
	}
	b.closed = true
	defer b.unlock()
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Rollback discards every staged write and releases the batch.
// Safe to call after Commit; it is then a no-op.
func (b *Batch) Rollback() error {
	if b.closed {
		return nil
	}
	b.closed = true
	defer b.unlock()
	if err := b.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback batch: %w", err)
	}
	return nil
}
