package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	libp2p "github.com/libp2p/go-libp2p"
	p2phost "github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	peer "github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"
)

// ProtocolID identifies the bootstrap stream protocol.
const ProtocolID = protocol.ID("/asyncpool/bootstrap/1.0.0")

// dialTimeout bounds connection establishment to a bootstrap peer.
const dialTimeout = 10 * time.Second

// NewHost starts a libp2p host listening on the given multiaddrs.
// Empty entries are skipped; no listen address yields a dial-only host.
func NewHost(listen []string) (p2phost.Host, error) {
	var addrs []ma.Multiaddr
	for _, s := range listen {
		if strings.TrimSpace(s) == "" {
			continue
		}
		a, err := ma.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("listen address %q: %w", s, err)
		}
		addrs = append(addrs, a)
	}

	opts := []libp2p.Option{libp2p.ListenAddrs(addrs...)}
	if len(addrs) == 0 {
		opts = []libp2p.Option{libp2p.NoListenAddrs}
	}
	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("start libp2p host: %w", err)
	}
	return h, nil
}

// HostAddrs returns the full /p2p/ addresses peers can dial to reach h.
func HostAddrs(h p2phost.Host) ([]string, error) {
	addrs, err := peer.AddrInfoToP2pAddrs(&peer.AddrInfo{ID: h.ID(), Addrs: h.Addrs()})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return out, nil
}

// Register installs s as the bootstrap stream handler of h. Each stream is
// one session; ctx bounds all of them.
func (s *Server) Register(ctx context.Context, h p2phost.Host) {
	h.SetStreamHandler(ProtocolID, func(st network.Stream) {
		log := s.opts.logger.With(zap.Stringer("peer", st.Conn().RemotePeer()))
		if err := s.Serve(ctx, st); err != nil {
			log.Warn("bootstrap stream failed", zap.Error(err))
			st.Reset()
			return
		}
		st.Close()
	})
	for _, a := range h.Addrs() {
		s.opts.logger.Info("bootstrap listening",
			zap.String("self_id", h.ID().String()),
			zap.String("addr", a.String()),
		)
	}
}

// Dial connects h to the peer at addr (a multiaddr ending in /p2p/<id>) and
// opens a bootstrap stream.
func Dial(ctx context.Context, h p2phost.Host, addr string) (network.Stream, error) {
	maAddr, err := ma.NewMultiaddr(addr)
	if err != nil {
		return nil, fmt.Errorf("dial %q: %w", addr, err)
	}
	info, err := peer.AddrInfoFromP2pAddr(maAddr)
	if err != nil {
		return nil, fmt.Errorf("dial %q: %w", addr, err)
	}

	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := h.Connect(dctx, *info); err != nil {
		return nil, fmt.Errorf("dial %q: %w", addr, err)
	}
	st, err := h.NewStream(ctx, info.ID, ProtocolID)
	if err != nil {
		return nil, fmt.Errorf("open stream to %s: %w", info.ID, err)
	}
	return st, nil
}

// SyncFrom dials addr and runs a full client sync over the stream.
func (c *Client) SyncFrom(ctx context.Context, h p2phost.Host, addr string) (Result, error) {
	st, err := Dial(ctx, h, addr)
	if err != nil {
		return Result{}, err
	}
	res, err := c.Sync(ctx, st)
	if err != nil {
		st.Reset()
		return res, err
	}
	return res, st.Close()
}
