package pool

import (
	"context"

	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/store"
)

// Batch is one atomic unit of pool mutations: staged store writes plus the
// running integrity hash. Nothing is visible to other readers until Commit.
//
// Batch is not safe for concurrent use.
type Batch struct {
	kv    *store.Batch
	codec model.Codec
	hash  model.Hash

	// added holds the entry hash of every id written in this batch, so later
	// changes to the same id use the staged contribution.
	added map[model.AsyncMessageID]model.Hash
}

// NewBatch opens a batch whose hash accumulator starts from the persisted hash.
// The caller must Commit or Rollback it; while it is open, all pool reads of the
// same goroutine must go through it.
func (p *Pool) NewBatch(ctx context.Context) (*Batch, error) {
	kv, err := p.store.Begin(ctx)
	if err != nil {
		return nil, storeErr("begin", err)
	}
	h, err := readHash(ctx, kv)
	if err != nil {
		kv.Rollback()
		return nil, err
	}
	return &Batch{
		kv:    kv,
		codec: p.codec,
		hash:  h,
		added: make(map[model.AsyncMessageID]model.Hash),
	}, nil
}

// Hash returns the integrity hash the pool will have once the batch commits.
func (b *Batch) Hash() model.Hash {
	return b.hash
}

// Len returns the number of entries in the batch view.
func (b *Batch) Len(ctx context.Context) (int, error) {
	n, err := b.kv.Len(ctx)
	if err != nil {
		return 0, storeErr("len", err)
	}
	return n, nil
}

// Commit persists the staged entries together with the updated hash.
func (b *Batch) Commit(ctx context.Context) error {
	if err := b.kv.PutMetadata(ctx, HashKey, b.hash[:]); err != nil {
		return storeErr("commit", err)
	}
	if err := b.kv.Commit(); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

// Rollback discards the batch. Safe after Commit.
func (b *Batch) Rollback() error {
	return b.kv.Rollback()
}

// contribution returns the hash contribution currently held by id in the
// batch view, preferring the one staged by this batch.
func (b *Batch) contribution(ctx context.Context, id model.AsyncMessageID, idb []byte) (model.Hash, bool, error) {
	if h, ok := b.added[id]; ok {
		return h, true, nil
	}
	raw, ok, err := b.kv.Get(ctx, idb)
	if err != nil {
		return model.ZeroHash, false, storeErr("get", err)
	}
	if !ok {
		return model.ZeroHash, false, nil
	}
	return model.EntryHash(idb, raw), true, nil
}

// put inserts or overwrites id -> msg and folds the new contribution into the hash.
func (b *Batch) put(ctx context.Context, id model.AsyncMessageID, msg model.AsyncMessage) error {
	idb := id.Bytes()
	old, ok, err := b.contribution(ctx, id, idb)
	if err != nil {
		return err
	}
	if ok {
		b.hash = b.hash.Xor(old)
	}

	raw := msg.Bytes()
	if err := b.kv.Put(ctx, idb, raw); err != nil {
		return storeErr("put", err)
	}
	h := model.EntryHash(idb, raw)
	b.hash = b.hash.Xor(h)
	b.added[id] = h
	return nil
}

// remove deletes id and removes its contribution from the hash.
// Removing an absent id is a no-op and reports false.
func (b *Batch) remove(ctx context.Context, id model.AsyncMessageID) (bool, error) {
	idb := id.Bytes()
	old, ok, err := b.contribution(ctx, id, idb)
	if err != nil || !ok {
		return false, err
	}
	if err := b.kv.Delete(ctx, idb); err != nil {
		return false, storeErr("delete", err)
	}
	b.hash = b.hash.Xor(old)
	delete(b.added, id)
	return true, nil
}

// activate marks the stored message executable, refreshing its content hash.
// An absent id is a no-op and reports false.
func (b *Batch) activate(ctx context.Context, id model.AsyncMessageID) (model.AsyncMessage, bool, error) {
	raw, ok, err := b.kv.Get(ctx, id.Bytes())
	if err != nil {
		return model.AsyncMessage{}, false, storeErr("get", err)
	}
	if !ok {
		return model.AsyncMessage{}, false, nil
	}
	msg, err := b.codec.DecodeMessage(raw)
	if err != nil {
		return model.AsyncMessage{}, false, corruptErr("activate", err)
	}
	msg.Activate()
	if err := b.put(ctx, id, msg); err != nil {
		return model.AsyncMessage{}, false, err
	}
	return msg, true, nil
}
