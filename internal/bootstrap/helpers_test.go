package bootstrap

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/pool"
	"github.com/roach88/asyncpool/internal/store"
	"github.com/roach88/asyncpool/internal/testutil"
)

func testConfig() pool.Config {
	return pool.Config{
		ThreadCount:       32,
		MaxLength:         1000,
		MaxMessageData:    1024,
		MaxKeyLength:      255,
		BootstrapPartSize: 5,
	}
}

func createTestPool(t *testing.T) *pool.Pool {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pool.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	p, err := pool.New(s, testConfig())
	require.NoError(t, err)
	return p
}

// fillPool stores n entries with distinct ids.
func fillPool(t *testing.T, p *pool.Pool, n int) {
	t.Helper()
	var changes pool.Changes
	for i := 0; i < n; i++ {
		e := testutil.Message().
			Emitted(1, uint8(i%32), uint64(i)).
			Fee(model.Amount(500 + i)).
			Gas(uint64(1 + i%5)).
			Entry()
		changes = append(changes, pool.Add(e.ID, e.Message))
	}
	require.NoError(t, p.ApplyChanges(context.Background(), changes))
}

// runPipe serves src over an in-memory pipe and syncs dst from it.
func runPipe(t *testing.T, src, dst *pool.Pool, serverOpts, clientOpts []Option) (Result, error) {
	t.Helper()
	ctx := context.Background()
	serverConn, clientConn := net.Pipe()

	errCh := make(chan error, 1)
	go func() {
		errCh <- NewServer(src, serverOpts...).Serve(ctx, serverConn)
		serverConn.Close()
	}()

	res, err := NewClient(dst, clientOpts...).Sync(ctx, clientConn)
	clientConn.Close()
	require.NoError(t, <-errCh)
	return res, err
}

func finishedStep() pool.StreamingStep {
	return pool.StepFinished{}
}
