package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/roach88/asyncpool/internal/metrics"
	"github.com/roach88/asyncpool/internal/pool"
)

// Server streams a pool to bootstrapping peers.
type Server struct {
	pool *pool.Pool
	opts options
}

// NewServer creates a server for p.
func NewServer(p *pool.Pool, opts ...Option) *Server {
	return &Server{pool: p, opts: buildOptions(opts)}
}

// Serve answers requests on rw until the peer closes the stream, ctx is
// cancelled or an error occurs. A peer closing between frames is not an error.
func (s *Server) Serve(ctx context.Context, rw io.ReadWriter) error {
	session := s.opts.sessions.Generate()
	log := s.opts.logger.With(zap.String("session", session))
	c := newConn(rw, s.opts.maxFrame)
	codec := s.pool.Codec()

	log.Info("bootstrap session started")
	parts, entries := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		req, err := c.readFrame()
		if errors.Is(err, io.EOF) {
			log.Info("bootstrap session closed", zap.Int("parts", parts), zap.Int("entries", entries))
			return nil
		}
		if err != nil {
			log.Warn("bootstrap read failed", zap.Error(err))
			return err
		}

		cursor, rest, err := readStep(codec, req)
		if err == nil && len(rest) != 0 {
			err = fmt.Errorf("decode request: %d trailing bytes", len(rest))
		}
		if err != nil {
			log.Warn("bootstrap bad request", zap.Error(err))
			return err
		}

		part, next, err := s.pool.GetPoolPart(ctx, cursor)
		if err != nil {
			log.Error("bootstrap get pool part failed", zap.Error(err))
			return err
		}

		resp := response{next: next, entries: part}
		if _, done := next.(pool.StepFinished); done {
			h, err := s.pool.Hash(ctx)
			if err != nil {
				return err
			}
			resp.hash = &h
		}
		payload, err := encodeResponse(resp)
		if err != nil {
			return err
		}
		if err := c.writeFrame(payload); err != nil {
			log.Warn("bootstrap write failed", zap.Error(err))
			return err
		}

		parts++
		entries += len(part)
		s.opts.metrics.BootstrapPart(metrics.DirectionSent, len(part))
		log.Debug("bootstrap part sent",
			zap.Stringer("cursor", cursor),
			zap.Stringer("next", next),
			zap.Int("entries", len(part)),
		)
	}
}
