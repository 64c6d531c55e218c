package testutil

import (
	"github.com/roach88/asyncpool/internal/model"
)

// MessageBuilder builds deterministic messages for tests.
//
// Defaults: emitted at 1:0 index 0, fee 0, max_gas 1, valid for [1:0, 10:0),
// no trigger, fixed sender and destination derived from "sender" and "destination".
type MessageBuilder struct {
	p model.MessageParams
}

// Message starts a builder with the defaults above.
func Message() *MessageBuilder {
	return &MessageBuilder{p: model.MessageParams{
		EmissionSlot:  model.NewSlot(1, 0),
		Sender:        model.UserAddress([]byte("sender")),
		Destination:   model.SCAddress([]byte("destination")),
		Function:      "receive",
		MaxGas:        1,
		ValidityStart: model.NewSlot(1, 0),
		ValidityEnd:   model.NewSlot(10, 0),
	}}
}

// Emitted sets the emission slot and index.
func (b *MessageBuilder) Emitted(period uint64, thread uint8, index uint64) *MessageBuilder {
	b.p.EmissionSlot = model.NewSlot(period, thread)
	b.p.EmissionIndex = index
	return b
}

// Gas sets max_gas.
func (b *MessageBuilder) Gas(gas uint64) *MessageBuilder {
	b.p.MaxGas = gas
	return b
}

// Fee sets the fee in nano-units.
func (b *MessageBuilder) Fee(fee model.Amount) *MessageBuilder {
	b.p.Fee = fee
	return b
}

// Coins sets the attached coins in nano-units.
func (b *MessageBuilder) Coins(coins model.Amount) *MessageBuilder {
	b.p.Coins = coins
	return b
}

// Valid sets the validity window [start, end).
func (b *MessageBuilder) Valid(start, end model.Slot) *MessageBuilder {
	b.p.ValidityStart = start
	b.p.ValidityEnd = end
	return b
}

// Function sets the target function name.
func (b *MessageBuilder) Function(name string) *MessageBuilder {
	b.p.Function = name
	return b
}

// Params sets the call parameters.
func (b *MessageBuilder) Params(params []byte) *MessageBuilder {
	b.p.Params = params
	return b
}

// Destination sets the destination contract from a seed.
func (b *MessageBuilder) Destination(seed string) *MessageBuilder {
	b.p.Destination = model.SCAddress([]byte(seed))
	return b
}

// Trigger gates the message on a change of addr, restricted to key when non-nil.
func (b *MessageBuilder) Trigger(addr model.Address, key []byte) *MessageBuilder {
	b.p.Trigger = &model.Trigger{Address: addr, DatastoreKey: key}
	return b
}

// Build returns the message with its content hash computed.
func (b *MessageBuilder) Build() model.AsyncMessage {
	return model.NewMessage(b.p)
}

// Entry returns the message paired with its id.
func (b *MessageBuilder) Entry() model.Entry {
	m := b.Build()
	return model.Entry{ID: m.ID(), Message: m}
}
