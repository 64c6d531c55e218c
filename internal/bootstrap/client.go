package bootstrap

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/roach88/asyncpool/internal/metrics"
	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/pool"
)

// Client rebuilds a local pool from a remote Server.
type Client struct {
	pool *pool.Pool
	opts options
}

// NewClient creates a client that fills p.
func NewClient(p *pool.Pool, opts ...Option) *Client {
	return &Client{pool: p, opts: buildOptions(opts)}
}

// Result summarizes a completed sync.
type Result struct {
	Session string
	Parts   int
	Entries int
	// Hash is the local pool hash after the sync.
	Hash model.Hash
	// RemoteHash is the hash the server reported, if any.
	RemoteHash *model.Hash
}

// Sync discards the local pool and copies the remote one over rw.
//
// Parts must not exceed the local BootstrapPartSize: both peers are expected
// to share the pool configuration. With hash verification enabled, a final
// hash differing from the server's is reported as a pool HASH_MISMATCH error.
func (c *Client) Sync(ctx context.Context, rw io.ReadWriter) (Result, error) {
	res := Result{Session: c.opts.sessions.Generate()}
	log := c.opts.logger.With(zap.String("session", res.Session))
	conn := newConn(rw, c.opts.maxFrame)
	codec := c.pool.Codec()
	maxEntries := c.pool.Config().BootstrapPartSize

	if err := c.pool.Reset(ctx); err != nil {
		return res, err
	}
	log.Info("bootstrap sync started")

	var cursor pool.StreamingStep = pool.StepStarted{}
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		req, err := appendStep(nil, cursor)
		if err != nil {
			return res, err
		}
		if err := conn.writeFrame(req); err != nil {
			return res, err
		}
		payload, err := conn.readFrame()
		if err == io.EOF {
			return res, fmt.Errorf("bootstrap: server closed the stream: %w", io.ErrUnexpectedEOF)
		}
		if err != nil {
			return res, err
		}
		resp, err := decodeResponse(codec, maxEntries, payload)
		if err != nil {
			return res, err
		}

		local, err := c.pool.SetPoolPart(ctx, resp.entries)
		if err != nil {
			return res, err
		}
		res.Parts++
		res.Entries += len(resp.entries)
		c.opts.metrics.BootstrapPart(metrics.DirectionReceived, len(resp.entries))
		log.Debug("bootstrap part received",
			zap.Stringer("next", resp.next),
			zap.Int("entries", len(resp.entries)),
		)

		if _, done := resp.next.(pool.StepFinished); done {
			res.RemoteHash = resp.hash
			break
		}
		if _, done := local.(pool.StepFinished); done {
			return res, fmt.Errorf("bootstrap: server sent an empty part with cursor %s", resp.next)
		}
		cursor = local
	}

	h, err := c.pool.Hash(ctx)
	if err != nil {
		return res, err
	}
	res.Hash = h

	if c.opts.verify {
		if res.RemoteHash == nil {
			return res, &pool.Error{Code: pool.ErrCodeHashMismatch, Op: "bootstrap", Err: fmt.Errorf("server sent no hash")}
		}
		if *res.RemoteHash != h {
			return res, &pool.Error{
				Code: pool.ErrCodeHashMismatch,
				Op:   "bootstrap",
				Err:  fmt.Errorf("remote %s, local %s", res.RemoteHash, h),
			}
		}
	}

	log.Info("bootstrap sync finished",
		zap.Int("parts", res.Parts),
		zap.Int("entries", res.Entries),
		zap.Stringer("hash", h),
	)
	return res, nil
}
