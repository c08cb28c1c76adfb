package histree

import (
	"errors"
	"testing"
)

func TestRecordQueueCommit(t *testing.T) {
	r := NewRecord[*text]()
	target := &text{}
	q := r.Queue()
	q.Apply(push('a'))
	q.Apply(push('b'))
	q.Undo()
	q.Apply(push('c'))

	if q.Len() != 4 {
		t.Fatalf("Len = %d, want 4", q.Len())
	}
	if target.s != "" {
		t.Fatal("enqueueing must not touch the target")
	}

	if err := q.Commit(target); err != nil {
		t.Fatal(err)
	}
	if target.s != "ac" {
		t.Errorf("target = %q, want %q", target.s, "ac")
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d after commit, want 0", q.Len())
	}
}

func TestRecordQueueSkipsNoops(t *testing.T) {
	r := NewRecord[*text]()
	target := &text{}
	q := r.Queue()
	q.Undo() // nothing to undo yet
	q.Apply(push('a'))
	q.Redo() // nothing to redo
	q.Apply(push('b'))

	if err := q.Commit(target); err != nil {
		t.Fatal(err)
	}
	if target.s != "ab" {
		t.Errorf("target = %q, want %q", target.s, "ab")
	}
}

func TestRecordQueueCommitStopsOnFailure(t *testing.T) {
	r := NewRecord[*text]()
	target := &text{}
	bad := &faulty{c: 'b', failApply: true}
	q := r.Queue()
	q.Apply(push('a'))
	q.Apply(bad)
	q.Apply(push('c'))

	if err := q.Commit(target); !errors.Is(err, errRefused) {
		t.Fatalf("Commit = %v, want errRefused", err)
	}
	if target.s != "a" {
		t.Errorf("target = %q, steps after the failure must not run", target.s)
	}
	if q.Len() != 2 {
		t.Errorf("Len = %d, the failing and later steps stay queued", q.Len())
	}

	bad.failApply = false
	if err := q.Commit(target); err != nil {
		t.Fatal(err)
	}
	if target.s != "abc" || q.Len() != 0 {
		t.Errorf("target=%q len=%d after retry, want abc,0", target.s, q.Len())
	}
}

func TestRecordQueueCancel(t *testing.T) {
	r := NewRecord[*text]()
	target := &text{}
	q := r.Queue()
	q.Apply(push('a'))
	q.Cancel()

	if q.Len() != 0 {
		t.Errorf("Len = %d after cancel, want 0", q.Len())
	}
	if err := q.Commit(target); err != nil {
		t.Fatal(err)
	}
	if target.s != "" || r.Len() != 0 {
		t.Error("cancelled operations must not run")
	}
}

func TestHistoryQueueCommitForks(t *testing.T) {
	h := NewHistory[*text]()
	target := &text{}
	applyString(t, h, target, "ab")

	q := h.Queue()
	q.Undo()
	q.Apply(push('c'))
	if err := q.Commit(target); err != nil {
		t.Fatal(err)
	}

	if target.s != "ac" {
		t.Errorf("target = %q, want %q", target.s, "ac")
	}
	if len(h.Branches()) != 1 {
		t.Errorf("branches = %v, the replayed apply should fork", h.Branches())
	}
}

func TestHistoryQueueSkipsNoops(t *testing.T) {
	h := NewHistory[*text]()
	target := &text{}
	q := h.Queue()
	q.Redo()
	q.Apply(push('a'))
	q.Undo()
	q.Undo() // second undo is a no-op

	if err := q.Commit(target); err != nil {
		t.Fatal(err)
	}
	if target.s != "" || h.Current() != 0 || h.Len() != 1 {
		t.Errorf("target=%q current=%d len=%d, want empty,0,1", target.s, h.Current(), h.Len())
	}
}
