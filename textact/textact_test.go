package textact

import (
	"errors"
	"testing"

	"github.com/histree-dev/histree"
)

func TestInsertApplyUndo(t *testing.T) {
	b := NewBuffer("hello world")
	r := histree.NewRecord[*Buffer]()
	if err := r.Apply(b, &Insert{Offset: 5, Text: ","}); err != nil {
		t.Fatal(err)
	}
	if b.String() != "hello, world" {
		t.Errorf("buffer = %q", b.String())
	}
	if err := r.Undo(b); err != nil {
		t.Fatal(err)
	}
	if b.String() != "hello world" {
		t.Errorf("buffer = %q after undo", b.String())
	}
}

func TestInsertOutOfBounds(t *testing.T) {
	b := NewBuffer("ab")
	err := (&Insert{Offset: 5, Text: "x"}).Apply(b)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Apply = %v, want ErrOutOfBounds", err)
	}
	if b.String() != "ab" {
		t.Error("failed apply must not change the buffer")
	}
}

func TestDeleteRemembersText(t *testing.T) {
	b := NewBuffer("hello")
	r := histree.NewRecord[*Buffer]()
	if err := r.Apply(b, &Delete{Offset: 1, Length: 3}); err != nil {
		t.Fatal(err)
	}
	if b.String() != "ho" {
		t.Errorf("buffer = %q", b.String())
	}
	if label, _ := r.UndoLabel(); label != `delete "ell" at 1` {
		t.Errorf("label = %q", label)
	}
	if err := r.Undo(b); err != nil {
		t.Fatal(err)
	}
	if b.String() != "hello" {
		t.Errorf("buffer = %q after undo", b.String())
	}
}

func TestReplaceApplyUndo(t *testing.T) {
	b := NewBuffer("black cat")
	r := histree.NewRecord[*Buffer]()
	if err := r.Apply(b, &Replace{Offset: 0, Length: 5, Text: "white"}); err != nil {
		t.Fatal(err)
	}
	if b.String() != "white cat" {
		t.Errorf("buffer = %q", b.String())
	}
	if err := r.Undo(b); err != nil {
		t.Fatal(err)
	}
	if b.String() != "black cat" {
		t.Errorf("buffer = %q after undo", b.String())
	}
}

func TestTypingCoalesces(t *testing.T) {
	b := NewBuffer("")
	r := histree.NewRecord[*Buffer]()
	r.SetSaved(false)
	for i, c := range []string{"h", "i", "!"} {
		if err := r.Apply(b, &Insert{Offset: i, Text: c}); err != nil {
			t.Fatal(err)
		}
	}

	if b.String() != "hi!" {
		t.Fatalf("buffer = %q", b.String())
	}
	if r.Len() != 1 {
		t.Fatalf("len = %d, keystrokes should share one entry", r.Len())
	}
	if err := r.Undo(b); err != nil {
		t.Fatal(err)
	}
	if b.String() != "" {
		t.Errorf("one undo should remove the whole word, got %q", b.String())
	}
}

func TestNonAdjacentInsertDoesNotMerge(t *testing.T) {
	b := NewBuffer("ab")
	r := histree.NewRecord[*Buffer]()
	r.SetSaved(false)
	if err := r.Apply(b, &Insert{Offset: 2, Text: "c"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Apply(b, &Insert{Offset: 0, Text: "x"}); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 2 {
		t.Errorf("len = %d, inserts at different places must stay separate", r.Len())
	}
}

func TestBackspaceShrinksInsert(t *testing.T) {
	b := NewBuffer("")
	r := histree.NewRecord[*Buffer]()
	r.SetSaved(false)
	if err := r.Apply(b, &Insert{Offset: 0, Text: "hi"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Apply(b, DeleteBack(b, b.Len())); err != nil {
		t.Fatal(err)
	}

	if b.String() != "h" || r.Len() != 1 {
		t.Errorf("buffer=%q len=%d, want h,1", b.String(), r.Len())
	}
	if err := r.Apply(b, DeleteBack(b, b.Len())); err != nil {
		t.Fatal(err)
	}
	if b.String() != "" || r.Len() != 0 {
		t.Errorf("buffer=%q len=%d, erasing the whole insert should annul it", b.String(), r.Len())
	}
}

func TestDeleteBackGraphemes(t *testing.T) {
	// The flag is two runes but one user-perceived character.
	b := NewBuffer("a\U0001F1E9\U0001F1EA")
	del := DeleteBack(b, b.Len())
	if del == nil {
		t.Fatal("DeleteBack returned nil")
	}
	if err := del.Apply(b); err != nil {
		t.Fatal(err)
	}
	if b.String() != "a" {
		t.Errorf("buffer = %q, a backspace must remove the whole cluster", b.String())
	}

	if DeleteBack(b, 0) != nil {
		t.Error("DeleteBack at the start should return nil")
	}
}

func TestDeleteForwardGraphemes(t *testing.T) {
	b := NewBuffer("\U0001F1E9\U0001F1EAa")
	del := DeleteForward(b, 0)
	if del == nil {
		t.Fatal("DeleteForward returned nil")
	}
	if err := del.Apply(b); err != nil {
		t.Fatal(err)
	}
	if b.String() != "a" {
		t.Errorf("buffer = %q", b.String())
	}
	if DeleteForward(b, b.Len()) != nil {
		t.Error("DeleteForward at the end should return nil")
	}
}

func TestBufferGraphemes(t *testing.T) {
	b := NewBuffer("a\U0001F1E9\U0001F1EA")
	if b.Graphemes() != 2 {
		t.Errorf("Graphemes = %d, want 2", b.Graphemes())
	}
}
