package model

// Trigger gates a message on an observed ledger mutation. A nil DatastoreKey
// matches any change of Address.
type Trigger struct {
	Address      Address
	DatastoreKey []byte
}

// Matches reports whether the trigger condition holds for the given ledger changes.
// Evaluation never fails.
func (t Trigger) Matches(changes *LedgerChanges) bool {
	return changes.HasChanges(t.Address, t.DatastoreKey)
}

// AsyncMessage is a deferred smart-contract call owned by the pool.
//
// The message is eligible for execution at slot s only when
// ValidityStart <= s < ValidityEnd and CanBeExecuted is true.
// Hash is derived from the canonical encoding and must be recomputed (ComputeHash)
// whenever a field changes.
type AsyncMessage struct {
	EmissionSlot  Slot
	EmissionIndex uint64
	Sender        Address
	Destination   Address
	Function      string
	MaxGas        uint64
	Fee           Amount
	Coins         Amount
	ValidityStart Slot
	ValidityEnd   Slot
	Params        []byte
	Trigger       *Trigger
	CanBeExecuted bool
	Hash          Hash
}

// MessageParams groups the caller-supplied fields of NewMessage.
type MessageParams struct {
	EmissionSlot  Slot
	EmissionIndex uint64
	Sender        Address
	Destination   Address
	Function      string
	MaxGas        uint64
	Fee           Amount
	Coins         Amount
	ValidityStart Slot
	ValidityEnd   Slot
	Params        []byte
	Trigger       *Trigger
}

// NewMessage builds a message and computes its content hash.
// A message without trigger is immediately executable.
func NewMessage(p MessageParams) AsyncMessage {
	m := AsyncMessage{
		EmissionSlot:  p.EmissionSlot,
		EmissionIndex: p.EmissionIndex,
		Sender:        p.Sender,
		Destination:   p.Destination,
		Function:      p.Function,
		MaxGas:        p.MaxGas,
		Fee:           p.Fee,
		Coins:         p.Coins,
		ValidityStart: p.ValidityStart,
		ValidityEnd:   p.ValidityEnd,
		Params:        p.Params,
		Trigger:       p.Trigger,
		CanBeExecuted: p.Trigger == nil,
	}
	m.ComputeHash()
	return m
}

// ComputeHash recomputes the content hash from the canonical encoding.
func (m *AsyncMessage) ComputeHash() {
	m.Hash = hashWithDomain(DomainMessage, m.Bytes())
}

// Activate marks the message executable and refreshes its content hash.
func (m *AsyncMessage) Activate() {
	m.CanBeExecuted = true
	m.ComputeHash()
}

// ID derives the pool key of the message. It must be computed at creation time:
// later hash changes (activation) do not move the message in the pool.
func (m AsyncMessage) ID() AsyncMessageID {
	return AsyncMessageID{
		Priority:      priorityKey(m.Fee, m.MaxGas),
		EmissionSlot:  m.EmissionSlot,
		EmissionIndex: m.EmissionIndex,
		Hash:          m.Hash,
	}
}

// IsExpiredAt reports whether the validity window has closed at slot.
// ValidityEnd is exclusive.
func (m AsyncMessage) IsExpiredAt(slot Slot) bool {
	return m.ValidityEnd.Compare(slot) <= 0
}

// IsValidAt reports whether slot falls in [ValidityStart, ValidityEnd).
func (m AsyncMessage) IsValidAt(slot Slot) bool {
	return m.ValidityStart.Compare(slot) <= 0 && slot.Before(m.ValidityEnd)
}

// Bytes returns the canonical encoding of the message. The content hash itself
// is not part of the encoding; decoders recompute it.
func (m AsyncMessage) Bytes() []byte {
	return appendMessage(nil, m)
}

// Clone returns a deep copy of m.
func (m AsyncMessage) Clone() AsyncMessage {
	out := m
	if m.Params != nil {
		out.Params = append([]byte(nil), m.Params...)
	}
	if m.Trigger != nil {
		t := *m.Trigger
		if t.DatastoreKey != nil {
			t.DatastoreKey = append([]byte(nil), t.DatastoreKey...)
		}
		out.Trigger = &t
	}
	return out
}
