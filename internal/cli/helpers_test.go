package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/asyncpool/internal/config"
	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/pool"
	"github.com/roach88/asyncpool/internal/store"
	"github.com/roach88/asyncpool/internal/testutil"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// createTestDB writes a pool with n entries under the default configuration
// and returns its path and hash.
func createTestDB(t *testing.T, n int) (string, model.Hash) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pool.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	p, err := pool.New(st, config.Default().PoolConfig())
	require.NoError(t, err)
	require.NoError(t, p.ApplyChanges(ctx, testChanges(n)))

	h, err := p.Hash(ctx)
	require.NoError(t, err)
	return path, h
}

func testChanges(n int) pool.Changes {
	var changes pool.Changes
	for i := 0; i < n; i++ {
		e := testutil.Message().
			Emitted(1, uint8(i%32), uint64(i)).
			Fee(model.Amount(1000 + i)).
			Gas(uint64(1 + i%3)).
			Entry()
		changes = append(changes, pool.Add(e.ID, e.Message))
	}
	return changes
}

// corruptHash overwrites the persisted hash of the pool at path.
func corruptHash(t *testing.T, path string) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	b, err := st.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, b.PutMetadata(ctx, pool.HashKey, bytes.Repeat([]byte{0xab}, model.HashSize)))
	require.NoError(t, b.Commit())
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
