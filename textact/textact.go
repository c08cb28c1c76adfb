// Package textact provides ready-made undoable actions for editing plain
// text: insert, delete and replace over byte offsets, with grapheme-aware
// helpers so a single undo step never splits a user-perceived character.
//
// Insert coalesces with adjacent inserts and with backspaces inside its
// own span, so typing a word costs one history entry instead of one per
// keystroke.
package textact

import (
	"errors"
	"fmt"

	"github.com/rivo/uniseg"

	"github.com/histree-dev/histree"
)

// ErrOutOfBounds is returned when an action's offsets do not fit the
// buffer.
var ErrOutOfBounds = errors.New("offset out of bounds")

// Buffer is the editable target.
type Buffer struct {
	s string
}

// NewBuffer creates a buffer with the given content.
func NewBuffer(s string) *Buffer { return &Buffer{s: s} }

// String returns the buffer content.
func (b *Buffer) String() string { return b.s }

// Len returns the content length in bytes.
func (b *Buffer) Len() int { return len(b.s) }

// Graphemes returns the number of user-perceived characters.
func (b *Buffer) Graphemes() int { return uniseg.GraphemeClusterCount(b.s) }

func (b *Buffer) check(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(b.s) {
		return fmt.Errorf("%d+%d in %d bytes: %w", offset, length, len(b.s), ErrOutOfBounds)
	}
	return nil
}

// Insert places Text at byte offset Offset.
type Insert struct {
	Offset int
	Text   string
}

func (a *Insert) Apply(b *Buffer) error {
	if err := b.check(a.Offset, 0); err != nil {
		return err
	}
	b.s = b.s[:a.Offset] + a.Text + b.s[a.Offset:]
	return nil
}

func (a *Insert) Undo(b *Buffer) error {
	if err := b.check(a.Offset, len(a.Text)); err != nil {
		return err
	}
	b.s = b.s[:a.Offset] + b.s[a.Offset+len(a.Text):]
	return nil
}

func (a *Insert) Label() string {
	return fmt.Sprintf("insert %q at %d", a.Text, a.Offset)
}

// Merge grows the insert with text typed directly after it and shrinks it
// under backspaces that stay inside the inserted span. A backspace that
// erases the last of the inserted text annuls the entry entirely.
func (a *Insert) Merge(next histree.Action[*Buffer]) histree.MergeResult {
	end := a.Offset + len(a.Text)
	switch n := next.(type) {
	case *Insert:
		if n.Offset != end {
			return histree.MergeNo
		}
		a.Text += n.Text
		return histree.MergeYes
	case *Delete:
		if n.Offset < a.Offset || n.Offset+n.Length != end {
			return histree.MergeNo
		}
		if n.Offset == a.Offset {
			return histree.MergeAnnul
		}
		a.Text = a.Text[:n.Offset-a.Offset]
		return histree.MergeYes
	}
	return histree.MergeNo
}

// Delete removes Length bytes at Offset, remembering them for undo.
type Delete struct {
	Offset int
	Length int

	deleted string
}

func (a *Delete) Apply(b *Buffer) error {
	if err := b.check(a.Offset, a.Length); err != nil {
		return err
	}
	a.deleted = b.s[a.Offset : a.Offset+a.Length]
	b.s = b.s[:a.Offset] + b.s[a.Offset+a.Length:]
	return nil
}

func (a *Delete) Undo(b *Buffer) error {
	if err := b.check(a.Offset, 0); err != nil {
		return err
	}
	b.s = b.s[:a.Offset] + a.deleted + b.s[a.Offset:]
	return nil
}

func (a *Delete) Label() string {
	if a.deleted != "" {
		return fmt.Sprintf("delete %q at %d", a.deleted, a.Offset)
	}
	return fmt.Sprintf("delete %d bytes at %d", a.Length, a.Offset)
}

// Replace swaps Length bytes at Offset for Text.
type Replace struct {
	Offset int
	Length int
	Text   string

	replaced string
}

func (a *Replace) Apply(b *Buffer) error {
	if err := b.check(a.Offset, a.Length); err != nil {
		return err
	}
	a.replaced = b.s[a.Offset : a.Offset+a.Length]
	b.s = b.s[:a.Offset] + a.Text + b.s[a.Offset+a.Length:]
	return nil
}

func (a *Replace) Undo(b *Buffer) error {
	if err := b.check(a.Offset, len(a.Text)); err != nil {
		return err
	}
	b.s = b.s[:a.Offset] + a.replaced + b.s[a.Offset+len(a.Text):]
	return nil
}

func (a *Replace) Label() string {
	return fmt.Sprintf("replace %d bytes at %d with %q", a.Length, a.Offset, a.Text)
}

// DeleteBack builds a Delete that removes the grapheme cluster ending at
// offset, the way a backspace should. Returns nil if offset is at the
// start or out of range.
func DeleteBack(b *Buffer, offset int) *Delete {
	if offset <= 0 || offset > len(b.s) {
		return nil
	}
	start := 0
	rest := b.s[:offset]
	state := -1
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if len(rest) == 0 {
			return &Delete{Offset: start, Length: len(cluster)}
		}
		start += len(cluster)
	}
	return nil
}

// DeleteForward builds a Delete that removes the grapheme cluster starting
// at offset. Returns nil if offset is at the end or out of range.
func DeleteForward(b *Buffer, offset int) *Delete {
	if offset < 0 || offset >= len(b.s) {
		return nil
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(b.s[offset:], -1)
	if cluster == "" {
		return nil
	}
	return &Delete{Offset: offset, Length: len(cluster)}
}
