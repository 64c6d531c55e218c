package pool

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/store"
	"github.com/roach88/asyncpool/internal/testutil"
)

func testConfig() Config {
	return Config{
		ThreadCount:       32,
		MaxLength:         100,
		MaxMessageData:    1024,
		MaxKeyLength:      255,
		BootstrapPartSize: 5,
	}
}

// createTestPool creates a pool over a fresh file-backed store.
func createTestPool(t *testing.T, cfg Config, opts ...Option) (*Pool, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pool.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	p, err := New(s, cfg, opts...)
	require.NoError(t, err)
	return p, s
}

// gasEntries builds one entry per gas value, all emitted at 1:0 index 0 with
// fee 0.1 and valid for [1:0, 3:0). Lower gas means higher priority.
func gasEntries(gas ...uint64) []model.Entry {
	out := make([]model.Entry, 0, len(gas))
	for _, g := range gas {
		out = append(out, testutil.Message().
			Fee(100_000_000).
			Gas(g).
			Valid(model.NewSlot(1, 0), model.NewSlot(3, 0)).
			Entry())
	}
	return out
}

func ids(entries []model.Entry) []model.AsyncMessageID {
	out := make([]model.AsyncMessageID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func gasOf(entries []model.Entry) []uint64 {
	out := make([]uint64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Message.MaxGas)
	}
	return out
}

// recomputeHash XORs the entry hash of every stored entry.
func recomputeHash(t *testing.T, p *Pool) model.Hash {
	t.Helper()
	entries, err := p.Dump(context.Background())
	require.NoError(t, err)
	h := model.ZeroHash
	for _, e := range entries {
		h = h.Xor(model.EntryHash(e.ID.Bytes(), e.Message.Bytes()))
	}
	return h
}

// requireConsistent asserts the persisted hash matches the stored entries.
func requireConsistent(t *testing.T, p *Pool) {
	t.Helper()
	ctx := context.Background()
	persisted, err := p.Hash(ctx)
	require.NoError(t, err)
	require.Equal(t, recomputeHash(t, p), persisted)
	_, err = p.Verify(ctx)
	require.NoError(t, err)
}

func poolLen(t *testing.T, p *Pool) int {
	t.Helper()
	n, err := p.Len(context.Background())
	require.NoError(t, err)
	return n
}
