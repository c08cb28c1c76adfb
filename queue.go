package histree

import "fmt"

// queued is a pending operation descriptor. action is set for applies.
type queued[T any] struct {
	op     checkpointOp
	action Action[T]
}

// RecordQueue wraps a record and buffers apply/undo/redo requests without
// touching the target. Commit replays them in enqueue order.
type RecordQueue[T any] struct {
	record  *Record[T]
	pending []queued[T]
}

// Apply enqueues an apply of the action. The target is not touched.
func (q *RecordQueue[T]) Apply(action Action[T]) {
	q.pending = append(q.pending, queued[T]{op: opApply, action: action})
}

// Undo enqueues an undo.
func (q *RecordQueue[T]) Undo() {
	q.pending = append(q.pending, queued[T]{op: opUndo})
}

// Redo enqueues a redo.
func (q *RecordQueue[T]) Redo() {
	q.pending = append(q.pending, queued[T]{op: opRedo})
}

// Len returns the number of pending operations.
func (q *RecordQueue[T]) Len() int { return len(q.pending) }

// Commit replays the pending operations against the record, exactly as if
// each had been called directly. No-op outcomes (nothing to undo or redo)
// are skipped. The first failure stops the replay: the failing and later
// descriptors stay queued and the step error is returned.
func (q *RecordQueue[T]) Commit(target T) error {
	for i, p := range q.pending {
		if err := replay(q.record, target, p); err != nil {
			q.pending = q.pending[i:]
			return fmt.Errorf("queue commit: step %d: %w", i, err)
		}
	}
	q.pending = nil
	return nil
}

// Cancel discards the pending operations without touching the target.
func (q *RecordQueue[T]) Cancel() { q.pending = nil }

// HistoryQueue wraps a history and buffers apply/undo/redo requests for a
// deferred, ordered commit.
type HistoryQueue[T any] struct {
	history *History[T]
	pending []queued[T]
}

// Apply enqueues an apply of the action. The target is not touched.
func (q *HistoryQueue[T]) Apply(action Action[T]) {
	q.pending = append(q.pending, queued[T]{op: opApply, action: action})
}

// Undo enqueues an undo.
func (q *HistoryQueue[T]) Undo() {
	q.pending = append(q.pending, queued[T]{op: opUndo})
}

// Redo enqueues a redo.
func (q *HistoryQueue[T]) Redo() {
	q.pending = append(q.pending, queued[T]{op: opRedo})
}

// Len returns the number of pending operations.
func (q *HistoryQueue[T]) Len() int { return len(q.pending) }

// Commit replays the pending operations against the history; see
// RecordQueue.Commit for the failure rules.
func (q *HistoryQueue[T]) Commit(target T) error {
	for i, p := range q.pending {
		if err := replay(q.history, target, p); err != nil {
			q.pending = q.pending[i:]
			return fmt.Errorf("queue commit: step %d: %w", i, err)
		}
	}
	q.pending = nil
	return nil
}

// Cancel discards the pending operations without touching the target.
func (q *HistoryQueue[T]) Cancel() { q.pending = nil }

// timeline is the surface a queue replays against.
type timeline[T any] interface {
	Apply(target T, action Action[T]) error
	Undo(target T) error
	Redo(target T) error
}

func replay[T any](tl timeline[T], target T, p queued[T]) error {
	var err error
	switch p.op {
	case opApply:
		err = tl.Apply(target, p.action)
	case opUndo:
		err = tl.Undo(target)
	case opRedo:
		err = tl.Redo(target)
	}
	if IsNoop(err) {
		return nil
	}
	return err
}
