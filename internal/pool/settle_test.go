package pool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/testutil"
)

func TestSettleSlot_IngestsAndKeepsHash(t *testing.T) {
	p, _ := createTestPool(t, testConfig())
	ctx := context.Background()

	eliminated, triggered, err := p.SettleSlot(ctx, model.NewSlot(1, 0), gasEntries(1, 2, 3), nil)
	require.NoError(t, err)
	assert.Empty(t, eliminated)
	assert.Empty(t, triggered)
	assert.Equal(t, 3, poolLen(t, p))
	requireConsistent(t, p)
}

func TestSettleSlot_EliminationOrder(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLength = 1
	p, _ := createTestPool(t, cfg)
	ctx := context.Background()

	early := model.NewSlot(1, 0)
	msg := func(gas uint64, index uint64, end model.Slot) model.Entry {
		return testutil.Message().
			Emitted(1, 0, index).
			Fee(1000).
			Gas(gas).
			Valid(early, end).
			Entry()
	}

	storedA := msg(1, 0, model.NewSlot(5, 0))
	storedB := msg(2, 0, model.NewSlot(5, 0))
	storedC := msg(3, 0, model.NewSlot(9, 0))
	// ApplyChanges does not enforce capacity.
	require.NoError(t, p.ApplyChanges(ctx, Changes{
		Add(storedB.ID, storedB.Message),
		Add(storedC.ID, storedC.Message),
		Add(storedA.ID, storedA.Message),
	}))
	require.Equal(t, 3, poolLen(t, p))

	incomingD := msg(1, 1, model.NewSlot(4, 0))
	incomingE := msg(10, 1, model.NewSlot(9, 0))
	incomingF := msg(2, 1, model.NewSlot(5, 0))

	eliminated, triggered, err := p.SettleSlot(ctx, model.NewSlot(5, 0), []model.Entry{incomingD, incomingE, incomingF}, nil)
	require.NoError(t, err)
	assert.Empty(t, triggered)

	want := []model.AsyncMessageID{
		// expired stored, priority order
		storedA.ID, storedB.ID,
		// expired incoming, caller order
		incomingD.ID, incomingF.ID,
		// evicted, lowest priority first
		incomingE.ID,
	}
	assert.Equal(t, want, ids(eliminated))

	remaining, err := p.Dump(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.AsyncMessageID{storedC.ID}, ids(remaining))
	requireConsistent(t, p)
}

func TestSettleSlot_ExpiryInvariant(t *testing.T) {
	p, _ := createTestPool(t, testConfig())
	ctx := context.Background()
	clock := testutil.NewSlotClock(32, model.NewSlot(1, 0))

	var incoming []model.Entry
	for i := uint64(0); i < 20; i++ {
		end := model.NewSlot(1+i/8, uint8(i%8)*4)
		incoming = append(incoming, testutil.Message().
			Emitted(1, 0, i).
			Gas(1+i).
			Valid(model.NewSlot(1, 0), end).
			Entry())
	}
	_, _, err := p.SettleSlot(ctx, clock.Next(), incoming, nil)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		slot := clock.Next()
		_, _, err := p.SettleSlot(ctx, slot, nil, nil)
		require.NoError(t, err)

		entries, err := p.Dump(ctx)
		require.NoError(t, err)
		for _, e := range entries {
			require.False(t, e.Message.IsExpiredAt(slot), "entry %s stored past its validity at %s", e.ID.Short(), slot)
		}
	}
	assert.Zero(t, poolLen(t, p))
	requireConsistent(t, p)
}

func TestSettleSlot_EvictsLowestPriorityFirst(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLength = 3
	p, _ := createTestPool(t, cfg)
	ctx := context.Background()

	eliminated, _, err := p.SettleSlot(ctx, model.NewSlot(1, 0), gasEntries(4, 1, 6, 2, 5, 3), nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{6, 5, 4}, gasOf(eliminated))

	remaining, err := p.Dump(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, gasOf(remaining))
	requireConsistent(t, p)

	// Capacity holds across slots: higher priority arrivals push out the tail.
	eliminated, _, err = p.SettleSlot(ctx, model.NewSlot(1, 1), gasEntries(7, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{7, 3}, gasOf(eliminated))
	assert.Equal(t, 3, poolLen(t, p))
}

func TestSettleSlot_ActivatesTriggers(t *testing.T) {
	p, _ := createTestPool(t, testConfig())
	ctx := context.Background()
	watched := model.SCAddress([]byte("watched"))

	keyed := testutil.Message().Emitted(1, 0, 0).Gas(10).Trigger(watched, []byte("price")).Entry()
	anyKey := testutil.Message().Emitted(1, 0, 1).Gas(20).Trigger(watched, nil).Entry()
	plain := testutil.Message().Emitted(1, 0, 2).Gas(30).Entry()

	_, triggered, err := p.SettleSlot(ctx, model.NewSlot(1, 0), []model.Entry{plain, anyKey, keyed}, nil)
	require.NoError(t, err)
	assert.Empty(t, triggered)

	// A change to another key fires only the address-wide trigger.
	changes := model.NewLedgerChanges()
	changes.UpdateDatastore(watched, []byte("volume"))
	_, triggered, err = p.SettleSlot(ctx, model.NewSlot(1, 1), nil, changes)
	require.NoError(t, err)
	require.Equal(t, []model.AsyncMessageID{anyKey.ID}, ids(triggered))
	assert.True(t, triggered[0].Message.CanBeExecuted)
	requireConsistent(t, p)

	// Activation is persisted.
	stored, ok, err := p.Get(ctx, anyKey.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, triggered[0].Message, stored)

	// Already executable messages do not fire again.
	changes = model.NewLedgerChanges()
	changes.UpdateDatastore(watched, []byte("price"))
	_, triggered, err = p.SettleSlot(ctx, model.NewSlot(1, 2), nil, changes)
	require.NoError(t, err)
	assert.Equal(t, []model.AsyncMessageID{keyed.ID}, ids(triggered))
	requireConsistent(t, p)
}

func TestSettleSlot_TriggeredInPriorityOrder(t *testing.T) {
	p, _ := createTestPool(t, testConfig())
	ctx := context.Background()
	watched := model.UserAddress([]byte("watched"))

	var incoming []model.Entry
	for _, gas := range []uint64{30, 10, 20} {
		incoming = append(incoming, testutil.Message().Fee(1000).Gas(gas).Trigger(watched, nil).Entry())
	}
	changes := model.NewLedgerChanges()
	changes.SetEntry(watched)

	// Incoming messages can fire in the slot they arrive.
	_, triggered, err := p.SettleSlot(ctx, model.NewSlot(1, 0), incoming, changes)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 20, 30}, gasOf(triggered))
	requireConsistent(t, p)
}

func TestSettleSlot_EvictedBeforeTriggered(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLength = 1
	p, _ := createTestPool(t, cfg)
	ctx := context.Background()
	watched := model.SCAddress([]byte("watched"))

	high := testutil.Message().Fee(1000).Gas(1).Trigger(watched, nil).Entry()
	low := testutil.Message().Fee(1000).Gas(2).Trigger(watched, nil).Entry()
	changes := model.NewLedgerChanges()
	changes.DeleteEntry(watched)

	eliminated, triggered, err := p.SettleSlot(ctx, model.NewSlot(1, 0), []model.Entry{low, high}, changes)
	require.NoError(t, err)
	assert.Equal(t, []model.AsyncMessageID{low.ID}, ids(eliminated))
	assert.Equal(t, []model.AsyncMessageID{high.ID}, ids(triggered))
	requireConsistent(t, p)
}
