package histree

import (
	"errors"
	"testing"
)

func TestRecordCheckpointCommit(t *testing.T) {
	r := NewRecord[*text]()
	target := &text{}
	cp := r.Checkpoint()
	applyString(t, cp, target, "ab")
	cp.Commit()

	if target.s != "ab" || r.Len() != 2 {
		t.Errorf("target=%q len=%d, committed edits should stay", target.s, r.Len())
	}
	if err := r.Undo(target); err != nil {
		t.Fatal(err)
	}
	if target.s != "a" {
		t.Errorf("target = %q, want %q", target.s, "a")
	}
}

func TestRecordCheckpointCancel(t *testing.T) {
	r := NewRecord[*text]()
	target := &text{}
	applyString(t, r, target, "ab")

	cp := r.Checkpoint()
	if err := cp.Undo(target); err != nil {
		t.Fatal(err)
	}
	applyString(t, cp, target, "cd")
	if target.s != "acd" {
		t.Fatalf("target = %q, staged edits run immediately", target.s)
	}

	if err := cp.Cancel(target); err != nil {
		t.Fatal(err)
	}
	if target.s != "ab" {
		t.Errorf("target = %q, want %q back", target.s, "ab")
	}
	if r.Len() != 2 || r.Current() != 2 {
		t.Errorf("len=%d current=%d, want 2,2", r.Len(), r.Current())
	}
	if r.Label(0) != "push a" || r.Label(1) != "push b" {
		t.Errorf("entries = %q,%q, the truncated tail should be restored", r.Label(0), r.Label(1))
	}
}

func TestRecordCheckpointCancelRestoresSaved(t *testing.T) {
	r := NewRecord[*text]()
	target := &text{}
	applyString(t, r, target, "ab")
	r.SetSaved(true)
	if err := r.Undo(target); err != nil {
		t.Fatal(err)
	}

	cp := r.Checkpoint()
	applyString(t, cp, target, "c")
	if _, ok := r.Saved(); ok {
		t.Fatal("the staged apply should have truncated the saved position away")
	}
	if err := cp.Cancel(target); err != nil {
		t.Fatal(err)
	}

	if saved, ok := r.Saved(); !ok || saved != 2 {
		t.Errorf("saved = %d,%v, want 2 restored", saved, ok)
	}
	if err := r.Redo(target); err != nil {
		t.Fatal(err)
	}
	if !r.IsSaved() || target.s != "ab" {
		t.Errorf("target=%q saved=%v, want ab at the saved state", target.s, r.IsSaved())
	}
}

func TestRecordCheckpointDoesNotMerge(t *testing.T) {
	r := NewRecord[*text]()
	target := &text{}
	r.SetSaved(false)
	if err := r.Apply(target, &typed{s: "a"}); err != nil {
		t.Fatal(err)
	}

	cp := r.Checkpoint()
	if err := cp.Apply(target, &typed{s: "b"}); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 2 {
		t.Fatalf("len = %d, staged applies must not coalesce", r.Len())
	}
	if err := cp.Cancel(target); err != nil {
		t.Fatal(err)
	}
	if target.s != "a" || r.Len() != 1 {
		t.Errorf("target=%q len=%d, want a,1", target.s, r.Len())
	}
}

func TestRecordCheckpointCancelStopsOnFailure(t *testing.T) {
	r := NewRecord[*text]()
	target := &text{}
	bad := &faulty{c: 'b'}

	cp := r.Checkpoint()
	applyString(t, cp, target, "a")
	if err := cp.Apply(target, bad); err != nil {
		t.Fatal(err)
	}

	bad.failUndo = true
	if err := cp.Cancel(target); !errors.Is(err, errRefused) {
		t.Fatalf("Cancel = %v, want errRefused", err)
	}
	if target.s != "ab" {
		t.Errorf("target = %q, failed rollback must not lose state", target.s)
	}

	// The remaining staged edits can be rolled back once the failure
	// clears.
	bad.failUndo = false
	if err := cp.Cancel(target); err != nil {
		t.Fatal(err)
	}
	if target.s != "" || r.Len() != 0 {
		t.Errorf("target=%q len=%d, want empty", target.s, r.Len())
	}
}

func TestHistoryCheckpointCommit(t *testing.T) {
	h := NewHistory[*text]()
	target := &text{}
	applyString(t, h, target, "ab")
	if err := h.Undo(target); err != nil {
		t.Fatal(err)
	}

	cp := h.Checkpoint()
	applyString(t, cp, target, "c")
	cp.Commit()

	if target.s != "ac" {
		t.Errorf("target = %q, want %q", target.s, "ac")
	}
	if len(h.Branches()) != 1 {
		t.Errorf("branches = %v, the committed fork should stay", h.Branches())
	}
}

func TestHistoryCheckpointCancelUnforks(t *testing.T) {
	h := NewHistory[*text]()
	target := &text{}
	applyString(t, h, target, "abc")
	if err := h.Undo(target); err != nil {
		t.Fatal(err)
	}

	cp := h.Checkpoint()
	applyString(t, cp, target, "d")
	if len(h.Branches()) != 1 {
		t.Fatalf("branches = %v, the staged apply should have forked", h.Branches())
	}

	if err := cp.Cancel(target); err != nil {
		t.Fatal(err)
	}
	if len(h.Branches()) != 0 {
		t.Errorf("branches = %v, cancel should fold the fork back", h.Branches())
	}
	if target.s != "ab" || h.Len() != 3 || h.Current() != 2 {
		t.Errorf("target=%q len=%d current=%d, want ab,3,2", target.s, h.Len(), h.Current())
	}
	if err := h.Redo(target); err != nil {
		t.Fatal(err)
	}
	if target.s != "abc" {
		t.Errorf("target = %q, the original tail should be redoable", target.s)
	}
}

func TestHistoryCheckpointCancelUndoRedo(t *testing.T) {
	h := NewHistory[*text]()
	target := &text{}
	applyString(t, h, target, "abc")

	cp := h.Checkpoint()
	if err := cp.Undo(target); err != nil {
		t.Fatal(err)
	}
	if err := cp.Undo(target); err != nil {
		t.Fatal(err)
	}
	if err := cp.Redo(target); err != nil {
		t.Fatal(err)
	}
	if target.s != "ab" {
		t.Fatalf("target = %q", target.s)
	}

	if err := cp.Cancel(target); err != nil {
		t.Fatal(err)
	}
	if target.s != "abc" || h.At() != (At{Branch: RootBranch, Current: 3}) {
		t.Errorf("target=%q at=%+v, want abc back at 0:3", target.s, h.At())
	}
}
