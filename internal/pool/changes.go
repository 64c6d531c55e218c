package pool

import (
	"context"
	"fmt"

	"github.com/roach88/asyncpool/internal/model"
)

// ChangeKind identifies a pool delta operation.
type ChangeKind uint8

const (
	// ChangeAdd inserts or overwrites an entry.
	ChangeAdd ChangeKind = iota
	// ChangeActivate marks a stored entry executable.
	ChangeActivate
	// ChangeDelete removes an entry.
	ChangeDelete
)

// String returns the lower-case name of the kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "add"
	case ChangeActivate:
		return "activate"
	case ChangeDelete:
		return "delete"
	}
	return fmt.Sprintf("ChangeKind(%d)", uint8(k))
}

// Change is one delta operation. Message is only meaningful for ChangeAdd.
type Change struct {
	Kind    ChangeKind
	ID      model.AsyncMessageID
	Message model.AsyncMessage
}

// Changes is an ordered list of delta operations applied as one unit.
type Changes []Change

// Add returns a ChangeAdd for the entry.
func Add(id model.AsyncMessageID, msg model.AsyncMessage) Change {
	return Change{Kind: ChangeAdd, ID: id, Message: msg}
}

// Activate returns a ChangeActivate for id.
func Activate(id model.AsyncMessageID) Change {
	return Change{Kind: ChangeActivate, ID: id}
}

// Delete returns a ChangeDelete for id.
func Delete(id model.AsyncMessageID) Change {
	return Change{Kind: ChangeDelete, ID: id}
}

// ApplyChangesToBatch stages changes into b in order. It performs no capacity
// or validity checks: the change set is trusted to come from a settlement that
// already enforced them. Nothing is committed.
//
// Activating or deleting an id that is not in the batch view is a no-op.
func (p *Pool) ApplyChangesToBatch(ctx context.Context, changes Changes, b *Batch) error {
	for i, ch := range changes {
		var err error
		switch ch.Kind {
		case ChangeAdd:
			err = b.put(ctx, ch.ID, ch.Message)
		case ChangeActivate:
			_, _, err = b.activate(ctx, ch.ID)
		case ChangeDelete:
			_, err = b.remove(ctx, ch.ID)
		default:
			err = corruptErr("apply_changes", fmt.Errorf("change %d: unknown kind %s", i, ch.Kind))
		}
		if err != nil {
			return withOp("apply_changes", err)
		}
	}
	return nil
}

// ApplyChanges stages changes in a fresh batch and commits it.
func (p *Pool) ApplyChanges(ctx context.Context, changes Changes) error {
	b, err := p.NewBatch(ctx)
	if err != nil {
		return err
	}
	defer b.Rollback()

	if err := p.ApplyChangesToBatch(ctx, changes, b); err != nil {
		return err
	}
	return p.commit(ctx, "apply_changes", b)
}
