package bootstrap

import (
	"bufio"
	"fmt"
	"io"

	"github.com/multiformats/go-varint"

	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/pool"
)

// DefaultMaxFrameSize bounds a single frame when no limit is configured.
const DefaultMaxFrameSize = 128 << 20

// Cursor tags.
const (
	tagStarted  byte = 0
	tagOngoing  byte = 1
	tagFinished byte = 2
)

// conn frames one bootstrap stream. The buffered reader must be the only
// reader of the stream for the whole session.
type conn struct {
	r        *bufio.Reader
	w        io.Writer
	maxFrame uint64
}

func newConn(rw io.ReadWriter, maxFrame uint64) *conn {
	if maxFrame == 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &conn{r: bufio.NewReader(rw), w: rw, maxFrame: maxFrame}
}

// writeFrame writes uvarint(len(payload)) ++ payload.
func (c *conn) writeFrame(payload []byte) error {
	if uint64(len(payload)) > c.maxFrame {
		return fmt.Errorf("write frame: %d bytes exceeds limit %d", len(payload), c.maxFrame)
	}
	buf := append(varint.ToUvarint(uint64(len(payload))), payload...)
	if _, err := c.w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// readFrame reads one frame. A stream closed between frames yields io.EOF.
func (c *conn) readFrame() ([]byte, error) {
	n, err := varint.ReadUvarint(c.r)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}
	if n > c.maxFrame {
		return nil, fmt.Errorf("read frame: %d bytes exceeds limit %d", n, c.maxFrame)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return payload, nil
}

// appendStep appends the wire form of a cursor.
func appendStep(buf []byte, step pool.StreamingStep) ([]byte, error) {
	switch s := step.(type) {
	case pool.StepStarted:
		return append(buf, tagStarted), nil
	case pool.StepOngoing:
		buf = append(buf, tagOngoing)
		return append(buf, s.Last.Bytes()...), nil
	case pool.StepFinished:
		return append(buf, tagFinished), nil
	}
	return nil, fmt.Errorf("encode cursor: unknown step %v", step)
}

// readStep decodes a cursor from the front of b and returns the remainder.
func readStep(codec model.Codec, b []byte) (pool.StreamingStep, []byte, error) {
	if len(b) == 0 {
		return nil, nil, fmt.Errorf("decode cursor: empty")
	}
	switch b[0] {
	case tagStarted:
		return pool.StepStarted{}, b[1:], nil
	case tagOngoing:
		if len(b) < 1+model.IDSize {
			return nil, nil, fmt.Errorf("decode cursor: truncated id")
		}
		id, err := codec.DecodeID(b[1 : 1+model.IDSize])
		if err != nil {
			return nil, nil, fmt.Errorf("decode cursor: %w", err)
		}
		return pool.StepOngoing{Last: id}, b[1+model.IDSize:], nil
	case tagFinished:
		return pool.StepFinished{}, b[1:], nil
	}
	return nil, nil, fmt.Errorf("decode cursor: unknown tag %d", b[0])
}

// response is one server reply.
type response struct {
	next    pool.StreamingStep
	hash    *model.Hash
	entries []model.Entry
}

func encodeResponse(r response) ([]byte, error) {
	buf, err := appendStep(nil, r.next)
	if err != nil {
		return nil, err
	}
	if r.hash != nil {
		buf = append(buf, 1)
		buf = append(buf, r.hash[:]...)
	} else {
		buf = append(buf, 0)
	}
	return append(buf, model.EncodeBundle(r.entries)...), nil
}

func decodeResponse(codec model.Codec, maxEntries uint64, b []byte) (response, error) {
	next, rest, err := readStep(codec, b)
	if err != nil {
		return response{}, err
	}
	if len(rest) == 0 {
		return response{}, fmt.Errorf("decode response: missing hash flag")
	}
	var r response
	r.next = next
	switch rest[0] {
	case 0:
		rest = rest[1:]
	case 1:
		if len(rest) < 1+model.HashSize {
			return response{}, fmt.Errorf("decode response: truncated hash")
		}
		h, _ := model.HashFromBytes(rest[1 : 1+model.HashSize])
		r.hash = &h
		rest = rest[1+model.HashSize:]
	default:
		return response{}, fmt.Errorf("decode response: invalid hash flag %d", rest[0])
	}
	entries, err := codec.DecodeBundle(rest, maxEntries)
	if err != nil {
		return response{}, fmt.Errorf("decode response: %w", err)
	}
	r.entries = entries
	return r, nil
}
