package model

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
)

// PrioritySize is the size of the priority component of an AsyncMessageID.
const PrioritySize = 16

// IDSize is the fixed encoded size of an AsyncMessageID:
// priority(16) + emission slot(9) + emission index(8) + content hash(32).
const IDSize = PrioritySize + SlotSize + 8 + HashSize

// AsyncMessageID is the pool key of a message. Its canonical bytes are
// fixed-width and big-endian, so byte order equals key order and ascending
// key order is descending execution priority:
//
//  1. higher fee per unit of max gas first
//  2. then earlier emission slot
//  3. then lower emission index
//  4. then content hash, which makes the order strict
type AsyncMessageID struct {
	Priority      [PrioritySize]byte
	EmissionSlot  Slot
	EmissionIndex uint64
	Hash          Hash
}

// priorityKey encodes fee/max(maxGas,1) as a 64.64 fixed-point ratio and
// inverts it so that higher ratios sort first.
func priorityKey(fee Amount, maxGas uint64) [PrioritySize]byte {
	if maxGas == 0 {
		maxGas = 1
	}
	ratio := uint256.NewInt(uint64(fee))
	ratio.Lsh(ratio, 64)
	ratio.Div(ratio, uint256.NewInt(maxGas))
	full := ratio.Bytes32()

	var key [PrioritySize]byte
	for i := range key {
		key[i] = ^full[32-PrioritySize+i]
	}
	return key
}

// Bytes returns the canonical IDSize-byte encoding.
func (id AsyncMessageID) Bytes() []byte {
	return appendID(make([]byte, 0, IDSize), id)
}

// Compare orders ids by canonical bytes.
// A negative result means id has the higher execution priority.
func (id AsyncMessageID) Compare(o AsyncMessageID) int {
	return bytes.Compare(id.Bytes(), o.Bytes())
}

// String renders the id as hex of its canonical bytes.
func (id AsyncMessageID) String() string {
	return hex.EncodeToString(id.Bytes())
}

// Short renders a compact form for logs: emission slot, index and hash prefix.
func (id AsyncMessageID) Short() string {
	return fmt.Sprintf("%s#%d/%s", id.EmissionSlot, id.EmissionIndex, id.Hash.String()[:12])
}

func appendID(buf []byte, id AsyncMessageID) []byte {
	buf = append(buf, id.Priority[:]...)
	buf = appendSlot(buf, id.EmissionSlot)
	buf = binary.BigEndian.AppendUint64(buf, id.EmissionIndex)
	return append(buf, id.Hash[:]...)
}
