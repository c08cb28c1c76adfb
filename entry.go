package histree

import "time"

// Entry wraps an action with bookkeeping metadata. A record owns its
// entries exclusively; entries are immutable once stored except for the
// in-place update performed by a successful merge.
type Entry[T any] struct {
	action    Action[T]
	createdAt time.Time
	updatedAt time.Time
}

func newEntry[T any](action Action[T]) Entry[T] {
	now := time.Now()
	return Entry[T]{action: action, createdAt: now, updatedAt: now}
}

// Label returns the action's label, or "" if the action has none.
func (e *Entry[T]) Label() string {
	if l, ok := e.action.(Labeler); ok {
		return l.Label()
	}
	return ""
}

// CreatedAt returns the time the entry was first applied.
func (e *Entry[T]) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt returns the time of the last apply or merge into the entry.
func (e *Entry[T]) UpdatedAt() time.Time { return e.updatedAt }
