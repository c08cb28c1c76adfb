package histree

import (
	"errors"
	"testing"
)

// text is the mutable target the tests edit.
type text struct {
	s string
}

// push appends a single character.
type push byte

func (p push) Apply(t *text) error {
	t.s += string(rune(p))
	return nil
}

func (p push) Undo(t *text) error {
	t.s = t.s[:len(t.s)-1]
	return nil
}

func (p push) Label() string { return "push " + string(rune(p)) }

// typed is a run of characters that coalesces with adjacent runs and with
// backspaces, the way an editor groups keystrokes into one undo step.
type typed struct {
	s string
}

func (a *typed) Apply(t *text) error {
	t.s += a.s
	return nil
}

func (a *typed) Undo(t *text) error {
	t.s = t.s[:len(t.s)-len(a.s)]
	return nil
}

func (a *typed) Label() string { return "type " + a.s }

func (a *typed) Merge(next Action[*text]) MergeResult {
	switch n := next.(type) {
	case *typed:
		a.s += n.s
		return MergeYes
	case *backspace:
		if len(a.s) == 1 {
			return MergeAnnul
		}
		a.s = a.s[:len(a.s)-1]
		return MergeYes
	}
	return MergeNo
}

// backspace removes the last character, remembering it for undo.
type backspace struct {
	c byte
}

func (b *backspace) Apply(t *text) error {
	b.c = t.s[len(t.s)-1]
	t.s = t.s[:len(t.s)-1]
	return nil
}

func (b *backspace) Undo(t *text) error {
	t.s += string(b.c)
	return nil
}

func (b *backspace) Label() string { return "backspace" }

var errRefused = errors.New("refused")

// faulty pushes a character but can be told to fail either direction.
type faulty struct {
	c         byte
	failApply bool
	failUndo  bool
}

func (f *faulty) Apply(t *text) error {
	if f.failApply {
		return errRefused
	}
	t.s += string(f.c)
	return nil
}

func (f *faulty) Undo(t *text) error {
	if f.failUndo {
		return errRefused
	}
	t.s = t.s[:len(t.s)-1]
	return nil
}

// applyString pushes one action per character.
func applyString[R interface {
	Apply(*text, Action[*text]) error
}](t *testing.T, r R, target *text, s string) {
	t.Helper()
	for i := 0; i < len(s); i++ {
		if err := r.Apply(target, push(s[i])); err != nil {
			t.Fatalf("apply %q: %v", s[i], err)
		}
	}
}

// collectSignals connects a slot that appends every signal to the returned
// slice.
func collectSignals(c interface{ Connect(Slot) Slot }) *[]Signal {
	var got []Signal
	c.Connect(func(sig Signal) { got = append(got, sig) })
	return &got
}

func kinds(signals []Signal) []SignalKind {
	out := make([]SignalKind, len(signals))
	for i, s := range signals {
		out[i] = s.Kind
	}
	return out
}
