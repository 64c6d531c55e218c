package pool

import (
	"context"

	"go.uber.org/zap"

	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/store"
)

// FromSnapshot builds a pool holding exactly entries: the store is reset, then
// every entry is inserted in one batch and the hash is accumulated as it goes.
func FromSnapshot(ctx context.Context, s *store.Store, cfg Config, entries []model.Entry, opts ...Option) (*Pool, error) {
	p, err := New(s, cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.Reset(ctx); err != nil {
		return nil, err
	}

	b, err := p.NewBatch(ctx)
	if err != nil {
		return nil, err
	}
	defer b.Rollback()

	for _, e := range entries {
		if err := b.put(ctx, e.ID, e.Message); err != nil {
			return nil, withOp("from_snapshot", err)
		}
	}
	if err := p.commit(ctx, "from_snapshot", b); err != nil {
		return nil, err
	}

	p.logger.Info("pool loaded from snapshot",
		zap.Int("entries", len(entries)),
		zap.Stringer("hash", b.Hash()),
	)
	return p, nil
}

// Codec returns the decoder bounded by the pool configuration.
func (p *Pool) Codec() model.Codec {
	return p.codec
}

// EncodeSnapshot returns the full pool as a bundle.
func (p *Pool) EncodeSnapshot(ctx context.Context) ([]byte, error) {
	entries, err := p.Dump(ctx)
	if err != nil {
		return nil, err
	}
	return model.EncodeBundle(entries), nil
}

// DecodeSnapshot decodes a full-pool bundle, bounded by MaxLength entries.
func (p *Pool) DecodeSnapshot(b []byte) ([]model.Entry, error) {
	entries, err := p.codec.DecodeBundle(b, p.cfg.MaxLength)
	if err != nil {
		return nil, corruptErr("decode_snapshot", err)
	}
	return entries, nil
}
