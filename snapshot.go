package histree

import (
	"fmt"
	"time"
)

// EntrySnapshot is the read-only view of one entry. Action points at the
// live action owned by the structure; viewers must treat it as opaque.
type EntrySnapshot[T any] struct {
	Action    Action[T]
	Label     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecordSnapshot is the read-only view of a record, and the persisted-state
// layout a serialization collaborator stores: the entry sequence plus the
// cursor, saved and limit scalars. Mutating a snapshot never affects the
// record it came from.
type RecordSnapshot[T any] struct {
	Entries []EntrySnapshot[T]
	Current int
	Saved   int // entry index, SavedNone or SavedUnreachable
	Limit   int // 0 means unlimited
}

// Applied reports whether entry i was applied (lies below the cursor).
func (s RecordSnapshot[T]) Applied(i int) bool { return i < s.Current }

// Snapshot returns a read-only copy of the record's state.
func (r *Record[T]) Snapshot() RecordSnapshot[T] {
	return RecordSnapshot[T]{
		Entries: snapshotEntries(r.entries),
		Current: r.current,
		Saved:   r.saved,
		Limit:   r.limit,
	}
}

// RestoreRecord rebuilds a record from a snapshot, validating its
// invariants.
func RestoreRecord[T any](s RecordSnapshot[T]) (*Record[T], error) {
	if err := validateRecord(s); err != nil {
		return nil, err
	}
	return &Record[T]{
		entries: restoreEntries(s.Entries),
		current: s.Current,
		saved:   s.Saved,
		limit:   max(s.Limit, 0),
	}, nil
}

// BranchSnapshot is the read-only view of an inactive branch: its parent
// position and the entries past the divergence point.
type BranchSnapshot[T any] struct {
	Parent  At
	Entries []EntrySnapshot[T]
	Saved   int
}

// HistorySnapshot is the read-only view of a history: the active branch's
// materialized record, the branch topology, and the id scalars.
type HistorySnapshot[T any] struct {
	Record   RecordSnapshot[T]
	Branches map[int]BranchSnapshot[T]
	Branch   int // active branch id
	Next     int // next branch id to assign
}

// At returns the active position.
func (s HistorySnapshot[T]) At() At {
	return At{Branch: s.Branch, Current: s.Record.Current}
}

// SavedAt returns the saved position, which may be on an inactive branch,
// and whether one is reachable.
func (s HistorySnapshot[T]) SavedAt() (At, bool) {
	if s.Record.Saved >= 0 {
		return At{Branch: s.Branch, Current: s.Record.Saved}, true
	}
	for id, b := range s.Branches {
		if b.Saved >= 0 {
			return At{Branch: id, Current: b.Saved}, true
		}
	}
	return At{}, false
}

// Snapshot returns a read-only copy of the history's state.
func (h *History[T]) Snapshot() HistorySnapshot[T] {
	branches := make(map[int]BranchSnapshot[T], len(h.branches))
	for id, b := range h.branches {
		branches[id] = BranchSnapshot[T]{
			Parent:  b.parent,
			Entries: snapshotEntries(b.entries),
			Saved:   b.saved,
		}
	}
	return HistorySnapshot[T]{
		Record:   h.record.Snapshot(),
		Branches: branches,
		Branch:   h.current,
		Next:     h.next,
	}
}

// RestoreHistory rebuilds a history from a snapshot, validating the branch
// topology.
func RestoreHistory[T any](s HistorySnapshot[T]) (*History[T], error) {
	if err := validateRecord(s.Record); err != nil {
		return nil, err
	}
	if err := validateBranches(s); err != nil {
		return nil, err
	}
	record, err := RestoreRecord(s.Record)
	if err != nil {
		return nil, err
	}
	next := s.Branch + 1
	branches := make(map[int]*branch[T], len(s.Branches))
	for id, b := range s.Branches {
		branches[id] = &branch[T]{
			parent:  b.Parent,
			entries: restoreEntries(b.Entries),
			saved:   b.Saved,
		}
		if id >= next {
			next = id + 1
		}
	}
	if s.Next > next {
		next = s.Next
	}
	return &History[T]{
		record:   record,
		branches: branches,
		current:  s.Branch,
		next:     next,
	}, nil
}

func validateRecord[T any](s RecordSnapshot[T]) error {
	if s.Current < 0 || s.Current > len(s.Entries) {
		return fmt.Errorf("cursor %d of %d entries: %w", s.Current, len(s.Entries), ErrInvalidSnapshot)
	}
	if s.Saved > len(s.Entries) || s.Saved < SavedUnreachable {
		return fmt.Errorf("saved index %d: %w", s.Saved, ErrInvalidSnapshot)
	}
	for i, e := range s.Entries {
		if e.Action == nil {
			return fmt.Errorf("entry %d has no action: %w", i, ErrInvalidSnapshot)
		}
	}
	return nil
}

// validateBranches checks that every branch's parent chain reaches the
// active branch and that each divergence point lies on its parent's path.
func validateBranches[T any](s HistorySnapshot[T]) error {
	tips := map[int]int{s.Branch: len(s.Record.Entries)}
	var tip func(id int, hops int) (int, error)
	tip = func(id int, hops int) (int, error) {
		if t, ok := tips[id]; ok {
			return t, nil
		}
		if hops > len(s.Branches) {
			return 0, fmt.Errorf("branch %d: parent cycle: %w", id, ErrInvalidSnapshot)
		}
		b, ok := s.Branches[id]
		if !ok {
			return 0, fmt.Errorf("branch %d: %w", id, ErrUnknownBranch)
		}
		parentTip, err := tip(b.Parent.Branch, hops+1)
		if err != nil {
			return 0, err
		}
		if b.Parent.Current < 0 || b.Parent.Current > parentTip {
			return 0, fmt.Errorf("branch %d diverges at %d of %d: %w",
				id, b.Parent.Current, parentTip, ErrInvalidSnapshot)
		}
		t := b.Parent.Current + len(b.Entries)
		tips[id] = t
		return t, nil
	}
	for id, b := range s.Branches {
		if _, err := tip(id, 0); err != nil {
			return err
		}
		for i, e := range b.Entries {
			if e.Action == nil {
				return fmt.Errorf("branch %d entry %d has no action: %w", id, i, ErrInvalidSnapshot)
			}
		}
	}
	return nil
}

func snapshotEntries[T any](entries []Entry[T]) []EntrySnapshot[T] {
	out := make([]EntrySnapshot[T], len(entries))
	for i := range entries {
		out[i] = EntrySnapshot[T]{
			Action:    entries[i].action,
			Label:     entries[i].Label(),
			CreatedAt: entries[i].createdAt,
			UpdatedAt: entries[i].updatedAt,
		}
	}
	return out
}

func restoreEntries[T any](entries []EntrySnapshot[T]) []Entry[T] {
	out := make([]Entry[T], len(entries))
	for i, e := range entries {
		created, updated := e.CreatedAt, e.UpdatedAt
		if created.IsZero() {
			created = time.Now()
		}
		if updated.IsZero() {
			updated = created
		}
		out[i] = Entry[T]{action: e.Action, createdAt: created, updatedAt: updated}
	}
	return out
}
