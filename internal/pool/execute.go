package pool

import (
	"context"

	"go.uber.org/zap"

	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/store"
)

// TakeBatchToExecute removes and returns, highest priority first, the messages
// to execute at slot within availableGas.
//
// Selection is greedy in priority order: an entry is taken when it is
// executable, valid at slot and its max_gas fits the remaining budget. Entries
// that do not fit are skipped and stay in the pool; a cheaper lower-priority
// entry can still be taken after them.
func (p *Pool) TakeBatchToExecute(ctx context.Context, slot model.Slot, availableGas uint64) ([]model.Entry, error) {
	b, err := p.NewBatch(ctx)
	if err != nil {
		return nil, err
	}
	defer b.Rollback()

	var taken []model.Entry
	var used uint64
	err = scan(ctx, b.kv, p.codec, store.IterOptions{}, func(e model.Entry, _, _ []byte) bool {
		m := e.Message
		if availableGas >= m.MaxGas && m.CanBeExecuted && m.IsValidAt(slot) {
			availableGas -= m.MaxGas
			used += m.MaxGas
			taken = append(taken, e)
		}
		return true
	})
	if err != nil {
		return nil, withOp("take_batch_to_execute", err)
	}

	for _, e := range taken {
		if _, err := b.remove(ctx, e.ID); err != nil {
			return nil, withOp("take_batch_to_execute", err)
		}
	}
	if err := p.commit(ctx, "take_batch_to_execute", b); err != nil {
		return nil, err
	}

	p.metrics.Taken(len(taken), used)
	p.logger.Debug("batch taken",
		zap.Stringer("slot", slot),
		zap.Int("taken", len(taken)),
		zap.Uint64("gas_used", used),
		zap.Uint64("gas_left", availableGas),
	)
	return taken, nil
}
