package model

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// SlotSize is the encoded size of a Slot: 8-byte period + 1-byte thread.
const SlotSize = 9

// Slot is a logical position at which state transitions are finalized.
// Slots are ordered by period first, then by thread.
type Slot struct {
	Period uint64 `yaml:"period" json:"period"`
	Thread uint8  `yaml:"thread" json:"thread"`
}

// NewSlot returns the slot at the given period and thread.
func NewSlot(period uint64, thread uint8) Slot {
	return Slot{Period: period, Thread: thread}
}

// Compare returns -1, 0 or +1 depending on whether s is before, equal to or after o.
func (s Slot) Compare(o Slot) int {
	switch {
	case s.Period < o.Period:
		return -1
	case s.Period > o.Period:
		return 1
	case s.Thread < o.Thread:
		return -1
	case s.Thread > o.Thread:
		return 1
	}
	return 0
}

// Before reports whether s is strictly before o.
func (s Slot) Before(o Slot) bool { return s.Compare(o) < 0 }

// String renders the slot as "period:thread".
func (s Slot) String() string {
	return fmt.Sprintf("%d:%d", s.Period, s.Thread)
}

// ParseSlot parses the "period:thread" form produced by String.
func ParseSlot(s string) (Slot, error) {
	period, thread, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Slot{}, fmt.Errorf("parse slot %q: expected period:thread", s)
	}
	p, err := strconv.ParseUint(period, 10, 64)
	if err != nil {
		return Slot{}, fmt.Errorf("parse slot %q: period: %w", s, err)
	}
	t, err := strconv.ParseUint(thread, 10, 8)
	if err != nil {
		return Slot{}, fmt.Errorf("parse slot %q: thread: %w", s, err)
	}
	return Slot{Period: p, Thread: uint8(t)}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Slot) UnmarshalText(text []byte) error {
	parsed, err := ParseSlot(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func appendSlot(buf []byte, s Slot) []byte {
	buf = binary.BigEndian.AppendUint64(buf, s.Period)
	return append(buf, s.Thread)
}
