package model

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/multiformats/go-varint"
)

// Codec decodes canonical bytes under configured bounds.
// Encoding needs no configuration and is exposed as methods on the types
// (AsyncMessage.Bytes, AsyncMessageID.Bytes, EncodeBundle).
//
// Message layout:
//
//	emission_slot(9) emission_index(8) sender(33) destination(33)
//	uvarint(len) function
//	max_gas(8) fee(8) coins(8)
//	validity_start(9) validity_end(9)
//	uvarint(len) params
//	has_trigger(1) [address(33) has_key(1) [uvarint(len) key]]
//	can_be_executed(1)
//
// Fixed-width integers are big-endian. Lengths use minimal unsigned varints.
type Codec struct {
	// ThreadCount bounds the thread component of every slot.
	ThreadCount uint8
	// MaxMessageData bounds the call parameter payload.
	MaxMessageData uint64
	// MaxKeyLength bounds the trigger datastore key.
	MaxKeyLength uint32
}

// DecodeID decodes exactly one AsyncMessageID from b.
func (c Codec) DecodeID(b []byte) (AsyncMessageID, error) {
	if len(b) != IDSize {
		return AsyncMessageID{}, malformed("id", 0, "expected %d bytes, got %d", IDSize, len(b))
	}
	r := &reader{buf: b}
	id := c.readID(r)
	if r.err != nil {
		return AsyncMessageID{}, r.err
	}
	return id, nil
}

// DecodeMessage decodes exactly one message from b and recomputes its content hash.
// Trailing bytes are rejected.
func (c Codec) DecodeMessage(b []byte) (AsyncMessage, error) {
	r := &reader{buf: b}
	m := c.readMessage(r)
	if r.err != nil {
		return AsyncMessage{}, r.err
	}
	if r.pos != len(b) {
		return AsyncMessage{}, malformed("message", r.pos, "%d trailing bytes", len(b)-r.pos)
	}
	return m, nil
}

func (c Codec) readID(r *reader) AsyncMessageID {
	var id AsyncMessageID
	copy(id.Priority[:], r.take(PrioritySize, "id.priority"))
	id.EmissionSlot = r.slot("id.emission_slot", c.ThreadCount)
	id.EmissionIndex = r.u64("id.emission_index")
	copy(id.Hash[:], r.take(HashSize, "id.hash"))
	return id
}

func (c Codec) readMessage(r *reader) AsyncMessage {
	start := r.pos
	var m AsyncMessage
	m.EmissionSlot = r.slot("emission_slot", c.ThreadCount)
	m.EmissionIndex = r.u64("emission_index")
	m.Sender = r.address("sender")
	m.Destination = r.address("destination")
	fn := r.bytes("function", MaxFunctionNameLength)
	if r.err == nil && !utf8.Valid(fn) {
		r.fail("function", "invalid utf-8")
	}
	m.Function = string(fn)
	m.MaxGas = r.u64("max_gas")
	m.Fee = Amount(r.u64("fee"))
	m.Coins = Amount(r.u64("coins"))
	m.ValidityStart = r.slot("validity_start", c.ThreadCount)
	m.ValidityEnd = r.slot("validity_end", c.ThreadCount)
	if params := r.bytes("params", c.MaxMessageData); len(params) > 0 {
		m.Params = append([]byte(nil), params...)
	}
	if r.boolean("has_trigger") {
		t := &Trigger{Address: r.address("trigger.address")}
		if r.boolean("trigger.has_key") {
			t.DatastoreKey = append([]byte{}, r.bytes("trigger.key", uint64(c.MaxKeyLength))...)
		}
		m.Trigger = t
	}
	m.CanBeExecuted = r.boolean("can_be_executed")
	if r.err != nil {
		return AsyncMessage{}
	}
	m.Hash = hashWithDomain(DomainMessage, r.buf[start:r.pos])
	return m
}

func appendMessage(buf []byte, m AsyncMessage) []byte {
	buf = appendSlot(buf, m.EmissionSlot)
	buf = binary.BigEndian.AppendUint64(buf, m.EmissionIndex)
	buf = appendAddress(buf, m.Sender)
	buf = appendAddress(buf, m.Destination)
	buf = appendBytes(buf, []byte(m.Function))
	buf = binary.BigEndian.AppendUint64(buf, m.MaxGas)
	buf = binary.BigEndian.AppendUint64(buf, uint64(m.Fee))
	buf = binary.BigEndian.AppendUint64(buf, uint64(m.Coins))
	buf = appendSlot(buf, m.ValidityStart)
	buf = appendSlot(buf, m.ValidityEnd)
	buf = appendBytes(buf, m.Params)
	if m.Trigger == nil {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		buf = appendAddress(buf, m.Trigger.Address)
		if m.Trigger.DatastoreKey == nil {
			buf = append(buf, 0)
		} else {
			buf = append(buf, 1)
			buf = appendBytes(buf, m.Trigger.DatastoreKey)
		}
	}
	return appendBool(buf, m.CanBeExecuted)
}

func appendBytes(buf, b []byte) []byte {
	buf = append(buf, varint.ToUvarint(uint64(len(b)))...)
	return append(buf, b...)
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// reader walks a canonical buffer. The first failure sticks; later reads
// return zero values so decoders can be written without per-field checks.
type reader struct {
	buf []byte
	pos int
	err *CodecError
}

func (r *reader) fail(field, format string, args ...any) {
	if r.err == nil {
		r.err = malformed(field, r.pos, format, args...)
	}
}

func (r *reader) take(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.buf)-r.pos < n {
		r.fail(field, "need %d bytes, have %d", n, len(r.buf)-r.pos)
		return nil
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *reader) u64(field string) uint64 {
	b := r.take(8, field)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *reader) uvarint(field string) uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.FromUvarint(r.buf[r.pos:])
	if err != nil {
		r.fail(field, "%v", err)
		return 0
	}
	r.pos += n
	return v
}

func (r *reader) bytes(field string, max uint64) []byte {
	n := r.uvarint(field + ".len")
	if r.err != nil {
		return nil
	}
	if n > max {
		r.fail(field, "length %d exceeds maximum %d", n, max)
		return nil
	}
	if n > uint64(len(r.buf)-r.pos) {
		r.fail(field, "length %d exceeds remaining %d bytes", n, len(r.buf)-r.pos)
		return nil
	}
	return r.take(int(n), field)
}

func (r *reader) boolean(field string) bool {
	b := r.take(1, field)
	if b == nil {
		return false
	}
	switch b[0] {
	case 0:
		return false
	case 1:
		return true
	}
	r.pos--
	r.fail(field, "invalid boolean byte %#x", b[0])
	return false
}

func (r *reader) slot(field string, threadCount uint8) Slot {
	period := r.u64(field + ".period")
	t := r.take(1, field+".thread")
	if t == nil {
		return Slot{}
	}
	if t[0] >= threadCount {
		r.pos--
		r.fail(field, "thread %d out of range [0, %d)", t[0], threadCount)
		return Slot{}
	}
	return Slot{Period: period, Thread: t[0]}
}

func (r *reader) address(field string) Address {
	kind := r.take(1, field+".kind")
	if kind == nil {
		return Address{}
	}
	if AddressKind(kind[0]) != AddressUser && AddressKind(kind[0]) != AddressSC {
		r.pos--
		r.fail(field, "unknown address kind %d", kind[0])
		return Address{}
	}
	var a Address
	a.Kind = AddressKind(kind[0])
	copy(a.Hash[:], r.take(HashSize, field+".hash"))
	return a
}
