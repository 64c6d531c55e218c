package pool

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/asyncpool/internal/metrics"
	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/store"
)

// SettleSlot runs the per-slot settlement and commits it atomically:
//
//  1. remove stored entries expired at slot, in priority order
//  2. drop incoming entries already expired at slot, in caller order
//  3. insert the remaining incoming entries
//  4. evict the lowest-priority entries until the pool fits MaxLength
//  5. activate entries whose trigger matches ledgerChanges
//
// eliminated is the concatenation of the removals of steps 1, 2 and 4 in that
// order; evicted entries appear lowest priority first. triggered lists the
// activated entries in priority order, carrying the activated messages. The
// activation is part of the same commit.
//
// Steps 4 and 5 see the batch view, so incoming entries count toward capacity
// and can be activated in the slot they arrive.
func (p *Pool) SettleSlot(ctx context.Context, slot model.Slot, newMessages []model.Entry, ledgerChanges *model.LedgerChanges) (eliminated, triggered []model.Entry, err error) {
	start := time.Now()

	b, err := p.NewBatch(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer b.Rollback()

	// 1. Expired stored entries. Collect first: the batch must not be written
	// while a scan is open.
	var expired []model.Entry
	err = scan(ctx, b.kv, p.codec, store.IterOptions{}, func(e model.Entry, _, _ []byte) bool {
		if e.Message.IsExpiredAt(slot) {
			expired = append(expired, e)
		}
		return true
	})
	if err != nil {
		return nil, nil, withOp("settle_slot", err)
	}
	for _, e := range expired {
		if _, err := b.remove(ctx, e.ID); err != nil {
			return nil, nil, withOp("settle_slot", err)
		}
	}
	eliminated = append(eliminated, expired...)
	expiredCount := len(expired)

	// 2-3. Incoming entries.
	for _, e := range newMessages {
		if e.Message.IsExpiredAt(slot) {
			eliminated = append(eliminated, e)
			expiredCount++
			continue
		}
		if err := b.put(ctx, e.ID, e.Message); err != nil {
			return nil, nil, withOp("settle_slot", err)
		}
	}

	// 4. Capacity.
	size, err := b.Len(ctx)
	if err != nil {
		return nil, nil, withOp("settle_slot", err)
	}
	var evicted []model.Entry
	if excess := uint64(size) - min(uint64(size), p.cfg.MaxLength); excess > 0 {
		opts := store.IterOptions{Reverse: true, Limit: int(excess)}
		err = scan(ctx, b.kv, p.codec, opts, func(e model.Entry, _, _ []byte) bool {
			evicted = append(evicted, e)
			return true
		})
		if err != nil {
			return nil, nil, withOp("settle_slot", err)
		}
		for _, e := range evicted {
			if _, err := b.remove(ctx, e.ID); err != nil {
				return nil, nil, withOp("settle_slot", err)
			}
		}
		eliminated = append(eliminated, evicted...)
	}

	// 5. Triggers.
	var fired []model.AsyncMessageID
	err = scan(ctx, b.kv, p.codec, store.IterOptions{}, func(e model.Entry, _, _ []byte) bool {
		m := e.Message
		if !m.CanBeExecuted && m.Trigger != nil && m.Trigger.Matches(ledgerChanges) {
			fired = append(fired, e.ID)
		}
		return true
	})
	if err != nil {
		return nil, nil, withOp("settle_slot", err)
	}
	for _, id := range fired {
		msg, ok, err := b.activate(ctx, id)
		if err != nil {
			return nil, nil, withOp("settle_slot", err)
		}
		if ok {
			triggered = append(triggered, model.Entry{ID: id, Message: msg})
		}
	}

	finalSize := size - len(evicted)
	if err := p.commit(ctx, "settle_slot", b); err != nil {
		return nil, nil, err
	}

	p.metrics.Eliminated(metrics.ReasonExpired, expiredCount)
	p.metrics.Eliminated(metrics.ReasonEvicted, len(evicted))
	p.metrics.Triggered(len(triggered))
	p.metrics.ObserveSettle(time.Since(start))
	p.logger.Debug("slot settled",
		zap.Stringer("slot", slot),
		zap.Int("incoming", len(newMessages)),
		zap.Int("expired", expiredCount),
		zap.Int("evicted", len(evicted)),
		zap.Int("triggered", len(triggered)),
		zap.Int("size", finalSize),
		zap.Stringer("hash", b.Hash()),
	)
	return eliminated, triggered, nil
}
