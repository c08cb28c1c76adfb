package histree

import "fmt"

// RootBranch is the id of the branch a history starts on.
const RootBranch = 0

// At addresses a position in a history: a branch id and a cursor index on
// that branch's path.
type At struct {
	Branch  int
	Current int
}

// History is a tree of records. The active branch is materialized as a
// full record holding the whole path from the initial state to the branch
// tip; every other branch stores only the entries past its divergence
// point, plus the id of the branch it forked from and the cursor position
// it forked at. Cursor indices are always positions on a branch's full
// path, so index 0 is the initial state regardless of branch.
//
// Unlike a plain record, a history never destroys undone entries on apply:
// they are kept as a new branch that can be revisited with GoTo.
type History[T any] struct {
	record   *Record[T]
	branches map[int]*branch[T]
	current  int // active branch id
	next     int // next branch id to assign
}

// branch is an inactive branch: the suffix of its path past the divergence
// point. saved carries the saved index if the saved state lives on this
// branch, else SavedNone.
type branch[T any] struct {
	parent  At
	entries []Entry[T]
	saved   int
}

// NewHistory creates an empty history on the root branch.
func NewHistory[T any]() *History[T] {
	return &History[T]{
		record:   NewRecord[T](),
		branches: make(map[int]*branch[T]),
		current:  RootBranch,
		next:     RootBranch + 1,
	}
}

// Connect sets the slot notified when the history's state changes,
// returning the previous slot if any.
func (h *History[T]) Connect(slot Slot) Slot { return h.record.Connect(slot) }

// Disconnect removes and returns the slot.
func (h *History[T]) Disconnect() Slot { return h.record.Disconnect() }

// Branch returns the id of the active branch.
func (h *History[T]) Branch() int { return h.current }

// At returns the active branch id and cursor position.
func (h *History[T]) At() At { return At{Branch: h.current, Current: h.record.Current()} }

// Branches returns the ids of the inactive branches, in no particular
// order. The active branch id is not included.
func (h *History[T]) Branches() []int {
	ids := make([]int, 0, len(h.branches))
	for id := range h.branches {
		ids = append(ids, id)
	}
	return ids
}

// Parent returns the parent position of an inactive branch.
func (h *History[T]) Parent(id int) (At, bool) {
	b, ok := h.branches[id]
	if !ok {
		return At{}, false
	}
	return b.parent, true
}

// BranchLen returns the tip position of a branch's path: the highest index
// GoTo can reach on it.
func (h *History[T]) BranchLen(id int) (int, bool) {
	if id == h.current {
		return h.record.Len(), true
	}
	b, ok := h.branches[id]
	if !ok {
		return 0, false
	}
	return b.parent.Current + len(b.entries), true
}

// Len returns the number of entries on the active branch's path.
func (h *History[T]) Len() int { return h.record.Len() }

// Current returns the cursor position on the active branch.
func (h *History[T]) Current() int { return h.record.Current() }

// CanUndo returns true if there is an applied entry to undo.
func (h *History[T]) CanUndo() bool { return h.record.CanUndo() }

// CanRedo returns true if there is an undone entry to redo.
func (h *History[T]) CanRedo() bool { return h.record.CanRedo() }

// IsSaved returns true if the cursor is at the saved position.
func (h *History[T]) IsSaved() bool { return h.record.IsSaved() }

// SavedAt returns the position of the saved state, which may be on an
// inactive branch, and whether one is reachable.
func (h *History[T]) SavedAt() (At, bool) {
	if saved, ok := h.record.Saved(); ok {
		return At{Branch: h.current, Current: saved}, true
	}
	for id, b := range h.branches {
		if b.saved != SavedNone {
			return At{Branch: id, Current: b.saved}, true
		}
	}
	return At{}, false
}

// SetSaved marks the current position as saved, or clears the saved state.
// Any saved mark held by an inactive branch is cleared either way; at most
// one position in the tree is saved.
func (h *History[T]) SetSaved(saved bool) {
	for _, b := range h.branches {
		b.saved = SavedNone
	}
	h.record.SetSaved(saved)
}

// Label returns the label of entry i on the active branch's path.
func (h *History[T]) Label(i int) string { return h.record.Label(i) }

// UndoLabel returns the label of the entry the next Undo would reverse.
func (h *History[T]) UndoLabel() (string, bool) { return h.record.UndoLabel() }

// RedoLabel returns the label of the entry the next Redo would apply.
func (h *History[T]) RedoLabel() (string, bool) { return h.record.RedoLabel() }

// Apply executes the action on the active branch. If undone entries exist
// they are not destroyed as a plain record would: they become a new branch
// forked from the pre-call position, and any branches hanging above the
// cut are reparented onto it.
func (h *History[T]) Apply(target T, action Action[T]) error {
	before := h.record.state()
	_, err := h.push(target, newEntry(action), true)
	if err != nil {
		return err
	}
	h.record.socket.emitChanges(before, h.record.state(), true)
	return nil
}

// push applies the entry and performs the fork and eviction bookkeeping.
// Returns the id of the branch forked from the abandoned tail, or 0 if the
// apply did not fork. Signals are the caller's responsibility.
func (h *History[T]) push(target T, e Entry[T], allowMerge bool) (int, error) {
	at := h.At()
	// An abandoned tail forks at the current cursor, so the entry under
	// the anchor must survive the push; merging would coalesce or annul
	// it and leave the new branch pointing past the record's tip.
	if h.record.CanRedo() {
		allowMerge = false
	}
	res, err := h.record.push(target, e, allowMerge)
	if err != nil {
		return 0, err
	}
	if res.evicted > 0 {
		h.shiftBranches(res.evicted)
		at.Current -= res.evicted
	}
	if len(res.tail) == 0 {
		return 0, nil
	}
	id := h.next
	h.next++
	// Branches that forked above the cut live on the abandoned tail now.
	for _, b := range h.branches {
		if b.parent.Branch == h.current && b.parent.Current > at.Current {
			b.parent.Branch = id
		}
	}
	h.branches[id] = &branch[T]{parent: at, entries: res.tail, saved: res.tailSaved}
	return id, nil
}

// Undo reverses the entry before the cursor on the active branch.
func (h *History[T]) Undo(target T) error { return h.record.Undo(target) }

// Redo applies the entry at the cursor on the active branch.
func (h *History[T]) Redo(target T) error { return h.record.Redo(target) }

// GoTo navigates to position index on the given branch, undoing back to
// each divergence point and redoing down the chain of branches in between.
// On a step failure navigation stops where it is: the active branch and
// cursor reflect exactly how far it got.
func (h *History[T]) GoTo(target T, branchID, index int) error {
	if branchID == h.current {
		return h.record.GoTo(target, index)
	}
	path, err := h.path(branchID)
	if err != nil {
		return err
	}
	old := h.current
	for _, id := range path {
		if err := h.enter(target, id); err != nil {
			h.emitBranch(old, h.current)
			return err
		}
	}
	h.emitBranch(old, h.current)
	return h.record.GoTo(target, index)
}

// path returns the chain of inactive branch ids leading from the active
// branch to id, nearest first.
func (h *History[T]) path(id int) ([]int, error) {
	var reversed []int
	for id != h.current {
		b, ok := h.branches[id]
		if !ok || len(reversed) > len(h.branches) {
			return nil, fmt.Errorf("branch %d: %w", id, ErrUnknownBranch)
		}
		reversed = append(reversed, id)
		id = b.parent.Branch
	}
	path := make([]int, len(reversed))
	for i, id := range reversed {
		path[len(path)-1-i] = id
	}
	return path, nil
}

// enter makes branch id the active one. Its parent must be the active
// branch. The active branch's suffix past the divergence point is stored
// under its own id, and the entered branch's entries are materialized onto
// the record as redoable future.
func (h *History[T]) enter(target T, id int) error {
	b := h.branches[id]
	if err := h.record.GoTo(target, b.parent.Current); err != nil {
		return err
	}
	delete(h.branches, id)
	old := h.current
	tail, tailSaved := h.record.cutTail()
	// The shared prefix now belongs to the entered branch's path; branches
	// anchored at or below the cut follow it, the rest stay on the old
	// branch's suffix.
	for _, c := range h.branches {
		if c.parent.Branch == old && c.parent.Current <= b.parent.Current {
			c.parent.Branch = id
		}
	}
	h.branches[old] = &branch[T]{
		parent:  At{Branch: id, Current: b.parent.Current},
		entries: tail,
		saved:   tailSaved,
	}
	h.record.appendEntries(b.entries)
	if b.saved != SavedNone {
		h.record.saved = b.saved
	}
	h.current = id
	return nil
}

// SetLimit bounds every branch's path to limit entries and returns the
// effective limit. Evicting shared prefix entries shifts all positions
// down; a branch whose divergence point is evicted can never be navigated
// to again and is pruned together with its descendants.
func (h *History[T]) SetLimit(limit int) int {
	if limit <= 0 {
		h.record.limit = 0
		return 0
	}
	before := h.record.state()
	h.record.limit = limit
	evicted := h.record.evictTo(limit)
	if evicted > 0 {
		h.shiftBranches(evicted)
	}
	h.record.socket.emitChanges(before, h.record.state(), false)
	return h.record.limit
}

// Limit returns the entry limit, or 0 if unbounded.
func (h *History[T]) Limit() int { return h.record.Limit() }

// shiftBranches renumbers branch anchors after k front evictions and
// prunes branches whose divergence point no longer exists.
func (h *History[T]) shiftBranches(k int) {
	dead := make(map[int]bool)
	for id, b := range h.branches {
		if b.parent.Current < k && b.parent.Branch == h.current {
			dead[id] = true
		}
	}
	// Descendants of a pruned branch go with it.
	for changed := true; changed; {
		changed = false
		for id, b := range h.branches {
			if !dead[id] && dead[b.parent.Branch] {
				dead[id] = true
				changed = true
			}
		}
	}
	for id := range dead {
		delete(h.branches, id)
	}
	for _, b := range h.branches {
		b.parent.Current -= k
		if b.saved != SavedNone {
			b.saved -= k
		}
	}
}

// Clear removes all branches and entries without undoing them. The history
// is back on the root branch.
func (h *History[T]) Clear() {
	h.branches = make(map[int]*branch[T])
	h.current = RootBranch
	h.next = RootBranch + 1
	h.record.Clear()
}

// Checkpoint wraps the history for speculative edits; see
// HistoryCheckpoint.
func (h *History[T]) Checkpoint() *HistoryCheckpoint[T] {
	return &HistoryCheckpoint[T]{history: h, start: h.At()}
}

// Queue wraps the history for deferred edits; see HistoryQueue.
func (h *History[T]) Queue() *HistoryQueue[T] {
	return &HistoryQueue[T]{history: h}
}

func (h *History[T]) emitBranch(old, now int) {
	if old != now {
		h.record.socket.emit(Signal{Kind: SignalBranch, Old: old, New: now})
	}
}
