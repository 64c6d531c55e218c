package pool

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/asyncpool/internal/metrics"
	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/store"
)

// HashKey is the metadata key holding the pool integrity hash.
var HashKey = []byte("h")

// Pool is the finalized asynchronous message pool.
//
// Thread-safety model:
//   - all methods are safe from any goroutine
//   - every mutating method runs in its own Batch and commits once
//   - Reset waits for in-flight batches to finish
type Pool struct {
	store   *store.Store
	cfg     Config
	codec   model.Codec
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures optional Pool collaborators.
type Option func(*Pool)

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics sets the collectors updated after every commit. Default: none.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pool) {
		p.metrics = m
	}
}

// New creates a Pool over an opened store. The store keeps whatever entries
// it already holds.
func New(s *store.Store, cfg Config, opts ...Option) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pool{
		store:  s,
		cfg:    cfg,
		codec:  cfg.Codec(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the pool configuration.
func (p *Pool) Config() Config {
	return p.cfg
}

// Hash returns the persisted integrity hash. An empty pool has the zero hash.
func (p *Pool) Hash(ctx context.Context) (model.Hash, error) {
	return readHash(ctx, p.store)
}

// Len returns the number of stored messages.
func (p *Pool) Len(ctx context.Context) (int, error) {
	n, err := p.store.Len(ctx)
	if err != nil {
		return 0, storeErr("len", err)
	}
	return n, nil
}

// Get returns the stored message for id.
func (p *Pool) Get(ctx context.Context, id model.AsyncMessageID) (model.AsyncMessage, bool, error) {
	raw, ok, err := p.store.Get(ctx, id.Bytes())
	if err != nil {
		return model.AsyncMessage{}, false, storeErr("get", err)
	}
	if !ok {
		return model.AsyncMessage{}, false, nil
	}
	msg, err := p.codec.DecodeMessage(raw)
	if err != nil {
		return model.AsyncMessage{}, false, corruptErr("get", err)
	}
	return msg, true, nil
}

// Reset discards every stored message and the persisted hash.
// Used before loading a bootstrap snapshot.
func (p *Pool) Reset(ctx context.Context) error {
	if err := p.store.Reset(ctx, HashKey); err != nil {
		return storeErr("reset", err)
	}
	p.logger.Info("pool reset")
	p.metrics.SetPoolSize(0)
	return nil
}

// Dump returns every stored entry in priority order.
func (p *Pool) Dump(ctx context.Context) ([]model.Entry, error) {
	var entries []model.Entry
	err := scan(ctx, p.store, p.codec, store.IterOptions{}, func(e model.Entry, _, _ []byte) bool {
		entries = append(entries, e)
		return true
	})
	if err != nil {
		return nil, withOp("dump", err)
	}
	return entries, nil
}

// Verify recomputes the integrity hash over all stored entries and compares it
// with the persisted value. It returns the recomputed hash; a difference is
// reported as a HASH_MISMATCH error.
func (p *Pool) Verify(ctx context.Context) (model.Hash, error) {
	// One batch gives a consistent view of data and metadata.
	b, err := p.NewBatch(ctx)
	if err != nil {
		return model.ZeroHash, err
	}
	defer b.Rollback()

	computed := model.ZeroHash
	err = scan(ctx, b.kv, p.codec, store.IterOptions{}, func(_ model.Entry, idb, raw []byte) bool {
		computed = computed.Xor(model.EntryHash(idb, raw))
		return true
	})
	if err != nil {
		return model.ZeroHash, withOp("verify", err)
	}
	if computed != b.Hash() {
		return computed, &Error{
			Code: ErrCodeHashMismatch,
			Op:   "verify",
			Err:  fmt.Errorf("persisted %s, recomputed %s", b.Hash(), computed),
		}
	}
	return computed, nil
}

// commit writes the batch and refreshes the pool size gauge.
func (p *Pool) commit(ctx context.Context, op string, b *Batch) error {
	if err := b.Commit(ctx); err != nil {
		return withOp(op, err)
	}
	if p.metrics != nil {
		if n, err := p.store.Len(ctx); err == nil {
			p.metrics.SetPoolSize(n)
		}
	}
	return nil
}

func readHash(ctx context.Context, r store.Reader) (model.Hash, error) {
	raw, ok, err := r.GetMetadata(ctx, HashKey)
	if err != nil {
		return model.ZeroHash, storeErr("hash", err)
	}
	if !ok {
		return model.ZeroHash, nil
	}
	h, err := model.HashFromBytes(raw)
	if err != nil {
		return model.ZeroHash, &Error{Code: ErrCodeCorruptedHash, Op: "hash", Err: err}
	}
	return h, nil
}

// scan decodes entries of the selected range in key order. fn receives the
// decoded entry and its raw key and value, and returns false to stop.
func scan(ctx context.Context, r store.Reader, codec model.Codec, opts store.IterOptions, fn func(e model.Entry, idb, raw []byte) bool) error {
	var decodeErr error
	err := r.Iterate(ctx, opts, func(key, value []byte) (bool, error) {
		id, err := codec.DecodeID(key)
		if err != nil {
			decodeErr = err
			return false, nil
		}
		msg, err := codec.DecodeMessage(value)
		if err != nil {
			decodeErr = err
			return false, nil
		}
		return fn(model.Entry{ID: id, Message: msg}, key, value), nil
	})
	if err != nil {
		return storeErr("scan", err)
	}
	if decodeErr != nil {
		return corruptErr("scan", decodeErr)
	}
	return nil
}

// withOp re-labels a pool error with the calling operation and classifies
// anything else as a store failure.
func withOp(op string, err error) error {
	if pe, ok := err.(*Error); ok {
		return &Error{Code: pe.Code, Op: op, Err: pe.Err}
	}
	return storeErr(op, err)
}
