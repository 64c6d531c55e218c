package pool

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/store"
)

func TestFromSnapshot_MatchesSource(t *testing.T) {
	src, _ := createTestPool(t, testConfig())
	ctx := context.Background()
	fillPool(t, src, 12)

	raw, err := src.EncodeSnapshot(ctx)
	require.NoError(t, err)

	s, err := store.Open(filepath.Join(t.TempDir(), "snap.db"))
	require.NoError(t, err)
	defer s.Close()

	// Pre-existing content is discarded.
	stale, err := New(s, testConfig())
	require.NoError(t, err)
	fillPool(t, stale, 2)

	entries, err := stale.DecodeSnapshot(raw)
	require.NoError(t, err)
	dst, err := FromSnapshot(ctx, s, testConfig(), entries)
	require.NoError(t, err)

	want, err := src.Dump(ctx)
	require.NoError(t, err)
	got, err := dst.Dump(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	srcHash, err := src.Hash(ctx)
	require.NoError(t, err)
	dstHash, err := dst.Hash(ctx)
	require.NoError(t, err)
	assert.Equal(t, srcHash, dstHash)
	requireConsistent(t, dst)
}

func TestFromSnapshot_Empty(t *testing.T) {
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	p, err := FromSnapshot(context.Background(), s, testConfig(), nil)
	require.NoError(t, err)
	h, err := p.Hash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.ZeroHash, h)
}

func TestDecodeSnapshot_BoundedByMaxLength(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLength = 2
	p, _ := createTestPool(t, cfg)

	raw := model.EncodeBundle(gasEntries(1, 2, 3))
	_, err := p.DecodeSnapshot(raw)
	require.Error(t, err)
	assert.True(t, model.IsMalformed(err))
	assert.True(t, IsFatal(err))
}
