package histree

import "fmt"

// Saved markers used when the saved position is not a valid entry index.
const (
	// SavedNone means no saved state is tracked.
	SavedNone = -1
	// SavedUnreachable means the saved state was evicted under the entry
	// limit and can never be reached again.
	SavedUnreachable = -2
)

// Record is an ordered, size-limited sequence of entries with a single
// cursor. Entries below the cursor are applied; entries at or above it are
// undone. Applying a new action while undone entries exist discards them.
//
// The record never owns the target: every call borrows it exclusively for
// the duration of that call only.
type Record[T any] struct {
	entries []Entry[T]
	current int
	saved   int // entry index, SavedNone or SavedUnreachable
	limit   int // 0 means unlimited
	socket  socket
}

// NewRecord creates an empty record. The (empty) initial state counts as
// saved.
func NewRecord[T any]() *Record[T] {
	return &Record[T]{}
}

// Connect sets the slot notified when the record's state changes, returning
// the previous slot if any.
func (r *Record[T]) Connect(slot Slot) Slot { return r.socket.connect(slot) }

// Disconnect removes and returns the slot.
func (r *Record[T]) Disconnect() Slot { return r.socket.disconnect() }

// Len returns the number of entries in the record.
func (r *Record[T]) Len() int { return len(r.entries) }

// IsEmpty returns true if the record has no entries.
func (r *Record[T]) IsEmpty() bool { return len(r.entries) == 0 }

// Current returns the cursor position, in [0, Len].
func (r *Record[T]) Current() int { return r.current }

// CanUndo returns true if there is an applied entry to undo.
func (r *Record[T]) CanUndo() bool { return r.current > 0 }

// CanRedo returns true if there is an undone entry to redo.
func (r *Record[T]) CanRedo() bool { return r.current < len(r.entries) }

// Limit returns the entry limit, or 0 if the record is unbounded.
func (r *Record[T]) Limit() int { return r.limit }

// IsSaved returns true if the cursor is at the saved position.
func (r *Record[T]) IsSaved() bool { return r.saved == r.current }

// Saved returns the saved position and whether one is reachable.
func (r *Record[T]) Saved() (int, bool) { return r.saved, r.saved >= 0 }

// SetSaved marks the current position as saved, or clears the saved state.
func (r *Record[T]) SetSaved(saved bool) {
	before := r.state()
	if saved {
		r.saved = r.current
	} else {
		r.saved = SavedNone
	}
	r.socket.emitChanges(before, r.state(), false)
}

// Label returns the label of the entry at index i.
func (r *Record[T]) Label(i int) string { return r.entries[i].Label() }

// UndoLabel returns the label of the entry the next Undo would reverse.
func (r *Record[T]) UndoLabel() (string, bool) {
	if !r.CanUndo() {
		return "", false
	}
	return r.entries[r.current-1].Label(), true
}

// RedoLabel returns the label of the entry the next Redo would apply.
func (r *Record[T]) RedoLabel() (string, bool) {
	if !r.CanRedo() {
		return "", false
	}
	return r.entries[r.current].Label(), true
}

// Apply executes the action against the target and pushes it onto the
// record, discarding any undone entries first. If the previous entry can
// merge with the action, the two are coalesced instead of growing the
// record. On failure the record is unchanged and the failed action is not
// stored; the target is left however the action's Apply left it.
func (r *Record[T]) Apply(target T, action Action[T]) error {
	before := r.state()
	_, err := r.push(target, newEntry(action), true)
	if err != nil {
		return err
	}
	r.socket.emitChanges(before, r.state(), true)
	return nil
}

// pushResult describes what push did besides storing the entry, so that
// wrappers (History, checkpoints) can keep their own bookkeeping.
type pushResult[T any] struct {
	tail      []Entry[T] // undone entries discarded by the push
	tailSaved int        // saved index discarded with the tail, else SavedNone
	evicted   int        // entries dropped at the front under the limit
	merged    bool
	annulled  bool
}

// push runs the entry's action and stores it. Signals are the caller's
// responsibility. allowMerge is cleared by checkpoints, whose rollback
// cannot split a coalesced entry.
func (r *Record[T]) push(target T, e Entry[T], allowMerge bool) (pushResult[T], error) {
	res := pushResult[T]{tailSaved: SavedNone}
	if err := e.action.Apply(target); err != nil {
		return res, err
	}

	// The undone entries are abandoned; History turns them into a branch.
	if r.current < len(r.entries) {
		res.tail = append(res.tail, r.entries[r.current:]...)
		r.entries = r.entries[:r.current]
		if r.saved > r.current {
			res.tailSaved = r.saved
			r.saved = SavedNone
		}
	}

	merge := MergeNo
	if allowMerge {
		merge = r.mergeBack(e.action)
	}
	switch merge {
	case MergeYes:
		res.merged = true
		r.entries[r.current-1].updatedAt = e.updatedAt
	case MergeAnnul:
		res.annulled = true
		r.current--
		r.entries = r.entries[:r.current]
	default:
		if r.limit > 0 && r.current >= r.limit {
			// Evict the oldest entry; all indices shift down by one.
			copy(r.entries, r.entries[1:])
			r.entries = r.entries[:len(r.entries)-1]
			res.evicted = 1
			switch {
			case r.saved == 0:
				r.saved = SavedUnreachable
			case r.saved > 0:
				r.saved--
			}
		} else {
			r.current++
		}
		r.entries = append(r.entries, e)
	}
	return res, nil
}

// mergeBack asks the entry before the cursor whether it merges with the
// incoming action. Merging is suppressed at the saved position so Undo can
// always return exactly to the saved state.
func (r *Record[T]) mergeBack(incoming Action[T]) MergeResult {
	if r.current == 0 || r.IsSaved() {
		return MergeNo
	}
	prev, ok := r.entries[r.current-1].action.(Merger[T])
	if !ok {
		return MergeNo
	}
	return prev.Merge(incoming)
}

// Undo reverses the entry before the cursor. Returns ErrNothingToUndo if
// the cursor is at the start. If the action's Undo fails the entry stays in
// place for a later retry and the error is returned.
func (r *Record[T]) Undo(target T) error {
	before := r.state()
	if err := r.stepBack(target); err != nil {
		return err
	}
	r.socket.emitChanges(before, r.state(), false)
	return nil
}

// Redo applies the entry at the cursor. Returns ErrNothingToRedo if the
// cursor is at the end.
func (r *Record[T]) Redo(target T) error {
	before := r.state()
	if err := r.stepForward(target); err != nil {
		return err
	}
	r.socket.emitChanges(before, r.state(), false)
	return nil
}

func (r *Record[T]) stepBack(target T) error {
	if !r.CanUndo() {
		return ErrNothingToUndo
	}
	if err := r.entries[r.current-1].action.Undo(target); err != nil {
		return err
	}
	r.current--
	return nil
}

func (r *Record[T]) stepForward(target T) error {
	if !r.CanRedo() {
		return ErrNothingToRedo
	}
	if err := r.entries[r.current].action.Apply(target); err != nil {
		return err
	}
	r.current++
	return nil
}

// GoTo repeatedly undoes or redoes entries until the cursor reaches index.
// On a step failure navigation stops at the last successful position and
// the error identifies the failing entry. The slot sees one coalesced set
// of signals, not one per step.
func (r *Record[T]) GoTo(target T, index int) error {
	if index < 0 || index > len(r.entries) {
		return fmt.Errorf("go to %d of %d: %w", index, len(r.entries), ErrIndexOutOfRange)
	}
	before := r.state()
	err := r.seek(target, index)
	r.socket.emitChanges(before, r.state(), false)
	return err
}

func (r *Record[T]) seek(target T, index int) error {
	for r.current != index {
		if index > r.current {
			if err := r.stepForward(target); err != nil {
				return fmt.Errorf("redo entry %d: %w", r.current, err)
			}
		} else {
			if err := r.stepBack(target); err != nil {
				return fmt.Errorf("undo entry %d: %w", r.current-1, err)
			}
		}
	}
	return nil
}

// Revert navigates back to the saved position. Returns ErrNoSavedState if
// no saved position is reachable.
func (r *Record[T]) Revert(target T) error {
	if r.saved < 0 {
		return ErrNoSavedState
	}
	return r.GoTo(target, r.saved)
}

// SetLimit bounds the record to limit entries and returns the effective
// limit. A limit <= 0 removes the bound. If the record is over the new
// limit the oldest entries are evicted, except that entries at or below the
// cursor survive: the effective limit is clamped so the cursor stays
// reachable.
func (r *Record[T]) SetLimit(limit int) int {
	if limit <= 0 {
		r.limit = 0
		return 0
	}
	before := r.state()
	r.limit = limit
	r.evictTo(limit)
	r.socket.emitChanges(before, r.state(), false)
	return r.limit
}

// evictTo drops oldest entries down to limit, shifting indices, and clamps
// r.limit if the cursor blocked a full trim. Returns the eviction count.
func (r *Record[T]) evictTo(limit int) int {
	if len(r.entries) <= limit {
		return 0
	}
	begin := min(r.current, len(r.entries)-limit)
	if begin == 0 {
		r.limit = len(r.entries)
		return 0
	}
	copy(r.entries, r.entries[begin:])
	r.entries = r.entries[:len(r.entries)-begin]
	r.current -= begin
	switch {
	case r.saved >= begin:
		r.saved -= begin
	case r.saved >= 0:
		r.saved = SavedUnreachable
	}
	if len(r.entries) > limit {
		r.limit = len(r.entries)
	}
	return begin
}

// Clear removes all entries without undoing them.
func (r *Record[T]) Clear() {
	before := r.state()
	wasSaved := r.IsSaved()
	r.entries = r.entries[:0]
	r.current = 0
	if wasSaved {
		r.saved = 0
	} else {
		r.saved = SavedNone
	}
	r.socket.emitChanges(before, r.state(), false)
}

// Checkpoint wraps the record for speculative edits; see RecordCheckpoint.
func (r *Record[T]) Checkpoint() *RecordCheckpoint[T] {
	return &RecordCheckpoint[T]{record: r}
}

// Queue wraps the record for deferred edits; see RecordQueue.
func (r *Record[T]) Queue() *RecordQueue[T] {
	return &RecordQueue[T]{record: r}
}

func (r *Record[T]) state() recordState {
	return recordState{
		current: r.current,
		canUndo: r.CanUndo(),
		canRedo: r.CanRedo(),
		saved:   r.IsSaved(),
	}
}

// cutTail removes and returns the undone entries above the cursor, along
// with the saved index if it pointed into them. Used by History when the
// active branch changes.
func (r *Record[T]) cutTail() ([]Entry[T], int) {
	tail := append([]Entry[T](nil), r.entries[r.current:]...)
	r.entries = r.entries[:r.current]
	saved := SavedNone
	if r.saved > r.current {
		saved = r.saved
		r.saved = SavedNone
	}
	return tail, saved
}

// appendEntries attaches entries above the cursor as redoable future.
func (r *Record[T]) appendEntries(entries []Entry[T]) {
	r.entries = append(r.entries, entries...)
}

// popBack removes the last entry without undoing it. The caller has already
// undone it; used by checkpoint rollback.
func (r *Record[T]) popBack() {
	r.entries = r.entries[:len(r.entries)-1]
}
