package model

import (
	"github.com/multiformats/go-varint"
)

// Entry is one (id, message) pair of the pool.
type Entry struct {
	ID      AsyncMessageID
	Message AsyncMessage
}

// EncodeBundle serializes an ordered list of entries as
// uvarint(count) ++ count * (id ++ message).
// It is the format of full pool dumps and of bootstrap chunks.
func EncodeBundle(entries []Entry) []byte {
	buf := varint.ToUvarint(uint64(len(entries)))
	for _, e := range entries {
		buf = appendID(buf, e.ID)
		buf = appendMessage(buf, e.Message)
	}
	return buf
}

// DecodeBundle decodes a bundle of at most maxCount entries. Ids must be
// strictly ascending, as produced by an ordered store scan.
func (c Codec) DecodeBundle(b []byte, maxCount uint64) ([]Entry, error) {
	r := &reader{buf: b}
	count := r.uvarint("bundle.count")
	if r.err != nil {
		return nil, r.err
	}
	if count > maxCount {
		return nil, malformed("bundle.count", 0, "count %d exceeds maximum %d", count, maxCount)
	}
	// Every entry takes at least IDSize bytes; reject counts the buffer cannot hold
	// before allocating.
	if count > uint64(len(b)-r.pos)/IDSize {
		return nil, malformed("bundle.count", 0, "count %d exceeds buffer of %d bytes", count, len(b))
	}

	entries := make([]Entry, 0, count)
	var prev []byte
	for i := uint64(0); i < count; i++ {
		idStart := r.pos
		id := c.readID(r)
		if r.err != nil {
			return nil, r.err
		}
		idBytes := r.buf[idStart:r.pos]
		if prev != nil && string(prev) >= string(idBytes) {
			return nil, malformed("bundle.id", idStart, "ids not strictly ascending at entry %d", i)
		}
		prev = idBytes

		msg := c.readMessage(r)
		if r.err != nil {
			return nil, r.err
		}
		entries = append(entries, Entry{ID: id, Message: msg})
	}
	if r.pos != len(b) {
		return nil, malformed("bundle", r.pos, "%d trailing bytes", len(b)-r.pos)
	}
	return entries, nil
}
