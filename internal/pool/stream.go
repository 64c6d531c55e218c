package pool

import (
	"context"
	"fmt"

	"github.com/roach88/asyncpool/internal/model"
	"github.com/roach88/asyncpool/internal/store"
)

// StreamingStep is the resumable bootstrap cursor. It is one of StepStarted,
// StepOngoing or StepFinished.
type StreamingStep interface {
	fmt.Stringer
	isStreamingStep()
}

// StepStarted requests the first part of the pool.
type StepStarted struct{}

// StepOngoing resumes strictly after Last.
type StepOngoing struct {
	Last model.AsyncMessageID
}

// StepFinished is terminal: no more parts.
type StepFinished struct{}

func (StepStarted) isStreamingStep()  {}
func (StepOngoing) isStreamingStep()  {}
func (StepFinished) isStreamingStep() {}

func (StepStarted) String() string   { return "started" }
func (s StepOngoing) String() string { return "ongoing(" + s.Last.Short() + ")" }
func (StepFinished) String() string  { return "finished" }

// GetPoolPart returns the next part of the pool after cursor, at most
// BootstrapPartSize entries in priority order, and the cursor for the
// following request: StepOngoing at the last returned id when the part is
// full, StepFinished otherwise. A StepFinished cursor returns an empty part
// and StepFinished again.
func (p *Pool) GetPoolPart(ctx context.Context, cursor StreamingStep) ([]model.Entry, StreamingStep, error) {
	opts := store.IterOptions{Limit: int(p.cfg.BootstrapPartSize)}
	switch c := cursor.(type) {
	case StepStarted:
	case StepOngoing:
		opts.From = c.Last.Bytes()
		opts.Exclusive = true
	case StepFinished:
		return nil, StepFinished{}, nil
	default:
		return nil, nil, &Error{Code: ErrCodeCorruptedData, Op: "get_pool_part", Err: fmt.Errorf("unknown cursor %v", cursor)}
	}

	var part []model.Entry
	err := scan(ctx, p.store, p.codec, opts, func(e model.Entry, _, _ []byte) bool {
		part = append(part, e)
		return true
	})
	if err != nil {
		return nil, nil, withOp("get_pool_part", err)
	}

	if uint64(len(part)) < p.cfg.BootstrapPartSize {
		return part, StepFinished{}, nil
	}
	return part, StepOngoing{Last: part[len(part)-1].ID}, nil
}

// SetPoolPart stores a received part and returns StepOngoing at its highest id,
// or StepFinished when the part is empty.
func (p *Pool) SetPoolPart(ctx context.Context, part []model.Entry) (StreamingStep, error) {
	if len(part) == 0 {
		return StepFinished{}, nil
	}

	b, err := p.NewBatch(ctx)
	if err != nil {
		return nil, err
	}
	defer b.Rollback()

	last := part[0].ID
	for _, e := range part {
		if err := b.put(ctx, e.ID, e.Message); err != nil {
			return nil, withOp("set_pool_part", err)
		}
		if e.ID.Compare(last) > 0 {
			last = e.ID
		}
	}
	if err := p.commit(ctx, "set_pool_part", b); err != nil {
		return nil, err
	}
	return StepOngoing{Last: last}, nil
}
