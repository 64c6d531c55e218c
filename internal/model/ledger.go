package model

// EntryChangeKind describes how a ledger entry was mutated during a slot.
type EntryChangeKind uint8

const (
	// EntrySet replaced the whole entry (creation or full overwrite).
	EntrySet EntryChangeKind = iota
	// EntryUpdate changed some fields (balance, bytecode, datastore keys).
	EntryUpdate
	// EntryDelete removed the whole entry.
	EntryDelete
)

type entryChange struct {
	kind EntryChangeKind
	keys map[string]struct{}
}

// LedgerChanges is the set of ledger mutations produced by executing a slot.
// Only the facts needed to evaluate trigger filters are kept.
// The zero value is not usable; use NewLedgerChanges. A nil *LedgerChanges
// behaves as an empty set.
type LedgerChanges struct {
	entries map[Address]*entryChange
}

// NewLedgerChanges returns an empty change set.
func NewLedgerChanges() *LedgerChanges {
	return &LedgerChanges{entries: make(map[Address]*entryChange)}
}

// SetEntry records a whole-entry write for addr.
func (lc *LedgerChanges) SetEntry(addr Address) {
	lc.entries[addr] = &entryChange{kind: EntrySet}
}

// DeleteEntry records a whole-entry deletion for addr.
func (lc *LedgerChanges) DeleteEntry(addr Address) {
	lc.entries[addr] = &entryChange{kind: EntryDelete}
}

// Touch records a field update for addr that does not involve the datastore
// (balance or bytecode change).
func (lc *LedgerChanges) Touch(addr Address) {
	lc.update(addr)
}

// UpdateDatastore records a write or deletion of a datastore key of addr.
func (lc *LedgerChanges) UpdateDatastore(addr Address, key []byte) {
	ch := lc.update(addr)
	if ch != nil {
		ch.keys[string(key)] = struct{}{}
	}
}

// update returns the Update record for addr, creating it if needed. A Set or
// Delete already recorded for addr dominates and nil is returned.
func (lc *LedgerChanges) update(addr Address) *entryChange {
	ch, ok := lc.entries[addr]
	if !ok {
		ch = &entryChange{kind: EntryUpdate, keys: make(map[string]struct{})}
		lc.entries[addr] = ch
		return ch
	}
	if ch.kind != EntryUpdate {
		return nil
	}
	return ch
}

// HasChanges reports whether addr changed, restricted to the datastore key when key is non-nil.
// Whole-entry writes and deletions match any key.
func (lc *LedgerChanges) HasChanges(addr Address, key []byte) bool {
	if lc == nil {
		return false
	}
	ch, ok := lc.entries[addr]
	if !ok {
		return false
	}
	if ch.kind != EntryUpdate || key == nil {
		return true
	}
	_, ok = ch.keys[string(key)]
	return ok
}

// Len returns the number of addresses with recorded changes.
func (lc *LedgerChanges) Len() int {
	if lc == nil {
		return 0
	}
	return len(lc.entries)
}
