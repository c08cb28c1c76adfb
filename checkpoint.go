package histree

import "fmt"

type checkpointOp int

const (
	opApply checkpointOp = iota + 1
	opUndo
	opRedo
)

// RecordCheckpoint wraps a record and stages a batch of edits that can be
// committed as one unit or rolled back. Edits run against the record
// immediately, so the target reflects them right away; Cancel reverses
// them in reverse order back to where staging began.
//
// Staged applies never merge into earlier entries: a rollback could not
// split a coalesced entry.
//
// The checkpoint holds the record exclusively until Commit or Cancel; using
// the record directly in between invalidates the rollback bookkeeping.
type RecordCheckpoint[T any] struct {
	record *Record[T]
	stage  []stagedEdit[T]
}

// stagedEdit remembers what an operation destroyed so Cancel can put it
// back: the tail truncated by an apply and the saved index dropped with it.
type stagedEdit[T any] struct {
	op        checkpointOp
	tail      []Entry[T]
	tailSaved int
}

// Apply executes the action against the record and stages it for rollback.
func (c *RecordCheckpoint[T]) Apply(target T, action Action[T]) error {
	before := c.record.state()
	res, err := c.record.push(target, newEntry(action), false)
	if err != nil {
		return err
	}
	c.record.socket.emitChanges(before, c.record.state(), true)
	c.stage = append(c.stage, stagedEdit[T]{op: opApply, tail: res.tail, tailSaved: res.tailSaved})
	return nil
}

// Undo undoes on the record and stages the step for rollback.
func (c *RecordCheckpoint[T]) Undo(target T) error {
	if err := c.record.Undo(target); err != nil {
		return err
	}
	c.stage = append(c.stage, stagedEdit[T]{op: opUndo})
	return nil
}

// Redo redoes on the record and stages the step for rollback.
func (c *RecordCheckpoint[T]) Redo(target T) error {
	if err := c.record.Redo(target); err != nil {
		return err
	}
	c.stage = append(c.stage, stagedEdit[T]{op: opRedo})
	return nil
}

// Commit keeps the staged edits. They are already applied, so this only
// discards the rollback bookkeeping.
func (c *RecordCheckpoint[T]) Commit() { c.stage = nil }

// Cancel rolls the record back to where staging began, undoing staged
// applies, redoing staged undos, and restoring entries a staged apply
// truncated. If a step fails the rollback stops there: the remaining
// staged edits stay applied and are the caller's to deal with.
func (c *RecordCheckpoint[T]) Cancel(target T) error {
	for i := len(c.stage) - 1; i >= 0; i-- {
		s := c.stage[i]
		var err error
		switch s.op {
		case opApply:
			if err = c.record.Undo(target); err == nil {
				c.record.popBack()
				c.record.appendEntries(s.tail)
				if c.record.saved == SavedNone && s.tailSaved != SavedNone {
					c.record.saved = s.tailSaved
				}
			}
		case opUndo:
			err = c.record.Redo(target)
		case opRedo:
			err = c.record.Undo(target)
		}
		if err != nil {
			c.stage = c.stage[:i+1]
			return fmt.Errorf("cancel staged edit %d: %w", i, err)
		}
	}
	c.stage = nil
	return nil
}

// HistoryCheckpoint wraps a history and stages a batch of edits that can
// be committed as one unit or rolled back, including un-forking any branch
// a staged apply created.
type HistoryCheckpoint[T any] struct {
	history *History[T]
	start   At
	stage   []stagedFork
}

// stagedFork remembers the branch id a staged apply forked, or 0 if the
// apply did not fork.
type stagedFork struct {
	op   checkpointOp
	fork int
}

// Apply executes the action against the history and stages it for
// rollback.
func (c *HistoryCheckpoint[T]) Apply(target T, action Action[T]) error {
	before := c.history.record.state()
	fork, err := c.history.push(target, newEntry(action), false)
	if err != nil {
		return err
	}
	c.history.record.socket.emitChanges(before, c.history.record.state(), true)
	c.stage = append(c.stage, stagedFork{op: opApply, fork: fork})
	return nil
}

// Undo undoes on the history and stages the step for rollback.
func (c *HistoryCheckpoint[T]) Undo(target T) error {
	if err := c.history.Undo(target); err != nil {
		return err
	}
	c.stage = append(c.stage, stagedFork{op: opUndo})
	return nil
}

// Redo redoes on the history and stages the step for rollback.
func (c *HistoryCheckpoint[T]) Redo(target T) error {
	if err := c.history.Redo(target); err != nil {
		return err
	}
	c.stage = append(c.stage, stagedFork{op: opRedo})
	return nil
}

// Commit keeps the staged edits.
func (c *HistoryCheckpoint[T]) Commit() { c.stage = nil }

// Cancel rolls the history back to where staging began. A staged apply
// that forked is fully reversed: the forked branch's entries are folded
// back onto the active branch and the branch id disappears.
func (c *HistoryCheckpoint[T]) Cancel(target T) error {
	h := c.history
	for i := len(c.stage) - 1; i >= 0; i-- {
		s := c.stage[i]
		var err error
		switch s.op {
		case opApply:
			if err = h.record.Undo(target); err == nil {
				h.record.popBack()
				if b, ok := h.branches[s.fork]; s.fork != 0 && ok {
					for _, other := range h.branches {
						if other.parent.Branch == s.fork {
							other.parent.Branch = h.current
						}
					}
					h.record.appendEntries(b.entries)
					if b.saved != SavedNone {
						h.record.saved = b.saved
					}
					delete(h.branches, s.fork)
				}
			}
		case opUndo:
			err = h.Redo(target)
		case opRedo:
			err = h.Undo(target)
		}
		if err != nil {
			c.stage = c.stage[:i+1]
			return fmt.Errorf("cancel staged edit %d: %w", i, err)
		}
	}
	c.stage = nil
	if at := h.At(); at != c.start {
		if err := h.GoTo(target, c.start.Branch, c.start.Current); err != nil {
			return fmt.Errorf("cancel: return to %d:%d: %w", c.start.Branch, c.start.Current, err)
		}
	}
	return nil
}
