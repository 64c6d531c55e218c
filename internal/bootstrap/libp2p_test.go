package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibp2p_SyncOverStream(t *testing.T) {
	if testing.Short() {
		t.Skip("starts two libp2p hosts")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	serverHost, err := NewHost([]string{"/ip4/127.0.0.1/tcp/0"})
	require.NoError(t, err)
	defer serverHost.Close()

	clientHost, err := NewHost(nil)
	require.NoError(t, err)
	defer clientHost.Close()

	src := createTestPool(t)
	dst := createTestPool(t)
	fillPool(t, src, 12)

	NewServer(src).Register(ctx, serverHost)
	addrs, err := HostAddrs(serverHost)
	require.NoError(t, err)
	require.NotEmpty(t, addrs)

	res, err := NewClient(dst, WithHashVerification(true)).SyncFrom(ctx, clientHost, addrs[0])
	require.NoError(t, err)
	assert.Equal(t, 12, res.Entries)
	assert.Equal(t, 3, res.Parts)

	srcHash, err := src.Hash(ctx)
	require.NoError(t, err)
	assert.Equal(t, srcHash, res.Hash)
}

func TestNewHost_InvalidAddress(t *testing.T) {
	_, err := NewHost([]string{"not-a-multiaddr"})
	assert.Error(t, err)
}

func TestDial_InvalidAddress(t *testing.T) {
	h, err := NewHost(nil)
	require.NoError(t, err)
	defer h.Close()

	_, err = Dial(context.Background(), h, "/ip4/127.0.0.1/tcp/1")
	assert.Error(t, err, "address without /p2p/ component")
}
