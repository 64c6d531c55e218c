package harness

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/pool"
	"github.com/roach88/asyncpool/internal/store"
	"github.com/roach88/asyncpool/internal/testutil"
)

// DefaultConfig is the pool configuration scenarios start from.
func DefaultConfig() pool.Config {
	return pool.Config{
		ThreadCount:       32,
		MaxLength:         100,
		MaxMessageData:    1024,
		MaxKeyLength:      255,
		BootstrapPartSize: 10,
	}
}

// Harness runs one scenario against a pool.
type Harness struct {
	pool     *pool.Pool
	scenario *Scenario
	entries  map[string]model.Entry
	labels   map[model.AsyncMessageID]string
	logger   *zap.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger logs every step to l. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario on a fresh in-memory store and returns the result.
//
// Expect clauses and assertions that do not hold are reported in the
// result; an error is returned only when the run itself cannot proceed.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{scenario: scenario, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}

	h.pool, err = pool.New(st, scenario.PoolConfig(), pool.WithLogger(h.logger))
	if err != nil {
		return nil, err
	}
	h.buildEntries()

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	final, err := h.pool.Dump(ctx)
	if err != nil {
		return nil, err
	}
	result.FinalPool = h.labelsOf(final)
	hash, err := h.pool.Hash(ctx)
	if err != nil {
		return nil, err
	}
	result.Hash = hash.String()

	for _, msg := range h.evaluateAssertions(ctx, final) {
		result.AddError(msg)
	}
	return result, nil
}

// PoolConfig applies the scenario overrides to DefaultConfig.
func (s *Scenario) PoolConfig() pool.Config {
	cfg := DefaultConfig()
	if o := s.Config; o != nil {
		if o.ThreadCount != nil {
			cfg.ThreadCount = *o.ThreadCount
		}
		if o.MaxLength != nil {
			cfg.MaxLength = *o.MaxLength
		}
		if o.BootstrapPartSize != nil {
			cfg.BootstrapPartSize = *o.BootstrapPartSize
		}
	}
	return cfg
}

// buildEntries materializes every declared message.
func (h *Harness) buildEntries() {
	h.entries = make(map[string]model.Entry, len(h.scenario.Messages))
	h.labels = make(map[model.AsyncMessageID]string, len(h.scenario.Messages))
	for label, spec := range h.scenario.Messages {
		e := spec.Entry()
		h.entries[label] = e
		h.labels[e.ID] = label
	}
}

// Entry builds the message described by m.
func (m MessageSpec) Entry() model.Entry {
	b := testutil.Message().Fee(m.Fee).Coins(m.Coins)
	emitted := model.NewSlot(1, 0)
	if m.Emitted != nil {
		emitted = *m.Emitted
	}
	b.Emitted(emitted.Period, emitted.Thread, m.Index)
	if m.Gas != nil {
		b.Gas(*m.Gas)
	}
	start, end := emitted, model.NewSlot(emitted.Period+10, emitted.Thread)
	if m.ValidFrom != nil {
		start = *m.ValidFrom
	}
	if m.ValidUntil != nil {
		end = *m.ValidUntil
	}
	b.Valid(start, end)
	if m.Function != "" {
		b.Function(m.Function)
	}
	if m.Destination != "" {
		b.Destination(m.Destination)
	}
	if m.Trigger != nil {
		var key []byte
		if m.Trigger.Key != nil {
			key = []byte(*m.Trigger.Key)
		}
		b.Trigger(model.SCAddress([]byte(m.Trigger.Contract)), key)
	}
	return b.Entry()
}

func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	var event TraceEvent
	switch {
	case step.Settle != nil:
		s := step.Settle
		incoming := make([]model.Entry, 0, len(s.Emit))
		for _, label := range s.Emit {
			incoming = append(incoming, h.entries[label])
		}
		eliminated, triggered, err := h.pool.SettleSlot(ctx, s.Slot, incoming, ledgerChanges(s.LedgerChanges))
		if err != nil {
			return err
		}
		event = TraceEvent{
			Op:         OpSettle,
			Slot:       s.Slot.String(),
			Emitted:    s.Emit,
			Eliminated: h.labelsOf(eliminated),
			Triggered:  h.labelsOf(triggered),
		}
		if step.Expect != nil {
			h.checkExpect(i, "eliminated", step.Expect.Eliminated, event.Eliminated, result)
			h.checkExpect(i, "triggered", step.Expect.Triggered, event.Triggered, result)
		}

	case step.Execute != nil:
		e := step.Execute
		taken, err := h.pool.TakeBatchToExecute(ctx, e.Slot, e.Gas)
		if err != nil {
			return err
		}
		event = TraceEvent{Op: OpExecute, Slot: e.Slot.String(), Taken: h.labelsOf(taken)}
		for _, t := range taken {
			event.GasUsed += t.Message.MaxGas
		}
		if step.Expect != nil {
			h.checkExpect(i, "taken", step.Expect.Taken, event.Taken, result)
		}
	}

	size, err := h.pool.Len(ctx)
	if err != nil {
		return err
	}
	event.Step = i
	event.PoolSize = size
	result.Trace = append(result.Trace, event)

	h.logger.Debug("scenario step completed",
		zap.Int("step", i),
		zap.String("op", event.Op),
		zap.String("slot", event.Slot),
		zap.Int("pool_size", size),
	)
	return nil
}

func (h *Harness) checkExpect(step int, field string, want, got []string, result *Result) {
	if want == nil {
		return
	}
	if !slices.Equal(want, got) {
		result.AddError(fmt.Sprintf("step %d: %s: expected %v, got %v", step, field, want, got))
	}
}

// labelsOf names entries by label, falling back to the short id for entries
// the scenario did not declare. Activated messages keep the id they were
// stored under.
func (h *Harness) labelsOf(entries []model.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if label, ok := h.labels[e.ID]; ok {
			out = append(out, label)
			continue
		}
		out = append(out, e.ID.Short())
	}
	return out
}

func ledgerChanges(specs []LedgerChangeSpec) *model.LedgerChanges {
	lc := model.NewLedgerChanges()
	for _, spec := range specs {
		addr := model.SCAddress([]byte(spec.Contract))
		switch spec.Kind {
		case LedgerSet:
			lc.SetEntry(addr)
		case LedgerDelete:
			lc.DeleteEntry(addr)
		case LedgerTouch:
			lc.Touch(addr)
		case LedgerUpdate:
			for _, key := range spec.Keys {
				lc.UpdateDatastore(addr, []byte(key))
			}
		}
	}
	return lc
}
