// Package display renders records and histories as plaintext lists and
// graphs, one row per position, newest first. History output is a commit
// graph: * marks a position, | continues a branch and |/ joins a fork back
// into the path it left.
package display

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/histree-dev/histree"
)

// Printer selects what each row shows. The zero value prints bare
// positions; Default turns everything on.
type Printer struct {
	// Detailed adds elapsed times and renders multi-line labels in full.
	Detailed bool
	// Position shows the numeric position of each row.
	Position bool
	// Current marks the current position.
	Current bool
	// Saved marks the saved position.
	Saved bool
	// Relative formats the age of an entry. Nil uses a coarse duration
	// like "5m0s".
	Relative func(now, at time.Time) string
}

// Default returns a printer with every part of the output enabled.
func Default() Printer {
	return Printer{Detailed: true, Position: true, Current: true, Saved: true}
}

func (p Printer) relative(now, at time.Time) string {
	if p.Relative != nil {
		return p.Relative(now, at)
	}
	d := now.Sub(at)
	if d < 0 {
		d = -d
	}
	return d.Round(100 * time.Millisecond).String()
}

// RecordString renders a record snapshot to a string.
func RecordString[T any](snap histree.RecordSnapshot[T], p Printer) string {
	var sb strings.Builder
	_ = Record(&sb, snap, p)
	return sb.String()
}

// Record renders a record snapshot as a flat list, one row per position
// from the newest entry down to the initial state.
func Record[T any](w io.Writer, snap histree.RecordSnapshot[T], p Printer) error {
	pr := &printer{w: w, p: p, now: time.Now()}
	current := snap.Current
	for i := len(snap.Entries); i >= 0; i-- {
		var entry *histree.EntrySnapshot[T]
		if i > 0 {
			entry = &snap.Entries[i-1]
		}
		pr.mark()
		if p.Position {
			pr.printf("%d", i)
		}
		if entry != nil && p.Detailed {
			pr.printf(" %s", p.relative(pr.now, entry.UpdatedAt))
		}
		pr.labels(i == current, i == snap.Saved)
		pr.message(entryLabel(entry), -1)
	}
	return pr.err
}

// HistoryString renders a history snapshot to a string.
func HistoryString[T any](snap histree.HistorySnapshot[T], p Printer) string {
	var sb strings.Builder
	_ = History(&sb, snap, p)
	return sb.String()
}

// History renders a history snapshot as a graph. The active branch runs
// down the left edge; forks are drawn indented above the position they
// left from and joined back with |/.
func History[T any](w io.Writer, snap histree.HistorySnapshot[T], p Printer) error {
	pr := &printer{w: w, p: p, now: time.Now()}
	g := graph[T]{printer: pr, snap: snap}
	g.current = snap.At()
	g.saved, g.hasSaved = snap.SavedAt()
	for i := len(snap.Record.Entries); i >= 1; i-- {
		g.node(histree.At{Branch: snap.Branch, Current: i}, &snap.Record.Entries[i-1], 0)
	}
	g.node(histree.At{Branch: snap.Branch, Current: 0}, nil, 0)
	return pr.err
}

type graph[T any] struct {
	*printer
	snap     histree.HistorySnapshot[T]
	current  histree.At
	saved    histree.At
	hasSaved bool
}

// node renders the row for position at, preceded by every branch that
// forked off exactly there.
func (g *graph[T]) node(at histree.At, entry *histree.EntrySnapshot[T], level int) {
	for _, id := range g.forksAt(at) {
		b := g.snap.Branches[id]
		for j := len(b.Entries) - 1; j >= 0; j-- {
			child := histree.At{Branch: id, Current: b.Parent.Current + 1 + j}
			g.node(child, &b.Entries[j], level+1)
		}
		g.edges(level)
		g.printf("|/\n")
	}
	g.edges(level)
	g.row(at, entry, level)
}

// forksAt returns the ids of branches anchored at exactly this position,
// lowest id first.
func (g *graph[T]) forksAt(at histree.At) []int {
	var ids []int
	for id, b := range g.snap.Branches {
		if b.Parent == at {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

func (g *graph[T]) row(at histree.At, entry *histree.EntrySnapshot[T], level int) {
	g.mark()
	if g.p.Position {
		g.printf("%d:%d", at.Branch, at.Current)
	}
	if entry != nil && g.p.Detailed {
		g.printf(" %s", g.p.relative(g.now, entry.CreatedAt))
		g.printf(", %s", g.p.relative(g.now, entry.UpdatedAt))
	}
	g.labels(at == g.current, g.hasSaved && at == g.saved)
	g.message(entryLabel(entry), level)
}

// printer accumulates output, remembering the first write error.
type printer struct {
	w   io.Writer
	p   Printer
	now time.Time
	err error
}

func (pr *printer) printf(format string, args ...any) {
	if pr.err == nil {
		_, pr.err = fmt.Fprintf(pr.w, format, args...)
	}
}

func (pr *printer) mark() {
	pr.printf("* ")
}

func (pr *printer) edges(level int) {
	for i := 0; i < level; i++ {
		pr.printf("| ")
	}
}

func (pr *printer) labels(current, saved bool) {
	current = current && pr.p.Current
	saved = saved && pr.p.Saved
	switch {
	case current && saved:
		pr.printf(" (current, saved)")
	case current:
		pr.printf(" (current)")
	case saved:
		pr.printf(" (saved)")
	}
}

// message writes the entry label. Detailed output puts each label line on
// its own row under the node, continued by the branch edges; level < 0
// means list output with no edges. Compact output appends the first
// non-empty line to the node's row.
func (pr *printer) message(label string, level int) {
	if label == "" {
		pr.printf("\n")
		return
	}
	if !pr.p.Detailed {
		for _, line := range strings.Split(label, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				pr.printf(" %s", line)
				break
			}
		}
		pr.printf("\n")
		return
	}
	pr.printf("\n")
	for _, line := range strings.Split(label, "\n") {
		if level >= 0 {
			pr.edges(level + 1)
		}
		pr.printf("%s\n", strings.TrimSpace(line))
	}
}

func entryLabel[T any](entry *histree.EntrySnapshot[T]) string {
	if entry == nil {
		return ""
	}
	return entry.Label
}
