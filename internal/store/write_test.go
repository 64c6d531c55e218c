package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_ReadsOwnWrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	putAll(t, s, []byte("a"), []byte("1"))

	b, err := s.Begin(ctx)
	require.NoError(t, err)
	defer b.Rollback()

	require.NoError(t, b.Put(ctx, []byte("b"), []byte("2")))
	require.NoError(t, b.Delete(ctx, []byte("a")))

	_, ok, err := b.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := b.Get(ctx, []byte("b"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("2"), v)

	n, err := b.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"b"}, keys(t, b, IterOptions{}))
}

func TestBatch_RollbackDiscards(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	b, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, []byte("a"), []byte("1")))
	require.NoError(t, b.PutMetadata(ctx, []byte("h"), []byte("x")))
	require.NoError(t, b.Rollback())

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok, err := s.GetMetadata(ctx, []byte("h"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBatch_CommitIsAtomicAcrossPartitions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	b, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, []byte("a"), []byte("1")))
	require.NoError(t, b.PutMetadata(ctx, []byte("h"), []byte("x")))
	require.NoError(t, b.Commit())

	v, ok, err := s.Get(ctx, []byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	m, ok, err := s.GetMetadata(ctx, []byte("h"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("x"), m)
}

func TestBatch_PutOverwrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	putAll(t, s, []byte("a"), []byte("1"), []byte("a"), []byte("2"))

	v, _, err := s.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TestBatch_DeleteAbsentIsNoop(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	b, err := s.Begin(ctx)
	require.NoError(t, err)
	assert.NoError(t, b.Delete(ctx, []byte("missing")))
	assert.NoError(t, b.Commit())
}

func TestBatch_ClosedRejectsUse(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	b, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Commit())

	assert.ErrorIs(t, b.Put(ctx, []byte("a"), []byte("1")), ErrBatchClosed)
	assert.ErrorIs(t, b.Commit(), ErrBatchClosed)
	_, _, err = b.Get(ctx, []byte("a"))
	assert.ErrorIs(t, err, ErrBatchClosed)
	assert.NoError(t, b.Rollback())
}
