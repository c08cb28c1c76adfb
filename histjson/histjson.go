// Package histjson persists records and histories as JSON. Actions are
// domain types the package cannot know, so callers describe them both
// ways: an action implements Marshaler to write itself, and a Registry
// maps each action kind back to a decoder when loading.
package histjson

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/histree-dev/histree"
)

var (
	// ErrNotMarshalable is returned when an action does not implement
	// Marshaler.
	ErrNotMarshalable = errors.New("action is not marshalable")
	// ErrUnknownKind is returned when no decoder is registered for an
	// action kind found in the input.
	ErrUnknownKind = errors.New("unknown action kind")
)

// Marshaler is implemented by actions that can serialize themselves. Kind
// names the action type and must be stable across versions; the returned
// payload is raw JSON, or nil for actions with no state.
type Marshaler interface {
	Kind() string
	MarshalAction() ([]byte, error)
}

// DecodeFunc rebuilds an action of one kind from its JSON payload.
type DecodeFunc[T any] func(data gjson.Result) (histree.Action[T], error)

// Registry maps action kinds to decoders.
type Registry[T any] struct {
	decoders map[string]DecodeFunc[T]
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{decoders: make(map[string]DecodeFunc[T])}
}

// Register installs the decoder for one action kind, replacing any
// previous one.
func (rg *Registry[T]) Register(kind string, decode DecodeFunc[T]) {
	rg.decoders[kind] = decode
}

// MarshalRecord serializes a record snapshot. Every action in it must
// implement Marshaler.
func (rg *Registry[T]) MarshalRecord(snap histree.RecordSnapshot[T]) ([]byte, error) {
	return marshalRecord(snap, "")
}

// UnmarshalRecord rebuilds a record from MarshalRecord output, decoding
// each action through the registry.
func (rg *Registry[T]) UnmarshalRecord(data []byte) (*histree.Record[T], error) {
	snap, err := rg.recordSnapshot(gjson.ParseBytes(data))
	if err != nil {
		return nil, err
	}
	return histree.RestoreRecord(snap)
}

// MarshalHistory serializes a history snapshot, branches included.
func (rg *Registry[T]) MarshalHistory(snap histree.HistorySnapshot[T]) ([]byte, error) {
	out, err := marshalRecord(snap.Record, "record")
	if err != nil {
		return nil, err
	}
	set := setter(&out, &err)
	set("branch", snap.Branch)
	set("next", snap.Next)
	set("branches", map[string]any{})
	for id, b := range snap.Branches {
		p := fmt.Sprintf("branches.:%d", id)
		set(p+".parent.branch", b.Parent.Branch)
		set(p+".parent.current", b.Parent.Current)
		set(p+".saved", b.Saved)
		if err == nil {
			err = marshalEntries(&out, p+".entries", b.Entries)
		}
	}
	return out, err
}

// UnmarshalHistory rebuilds a history from MarshalHistory output.
func (rg *Registry[T]) UnmarshalHistory(data []byte) (*histree.History[T], error) {
	v := gjson.ParseBytes(data)
	record, err := rg.recordSnapshot(v.Get("record"))
	if err != nil {
		return nil, err
	}
	snap := histree.HistorySnapshot[T]{
		Record:   record,
		Branches: make(map[int]histree.BranchSnapshot[T]),
		Branch:   int(v.Get("branch").Int()),
		Next:     int(v.Get("next").Int()),
	}
	v.Get("branches").ForEach(func(key, bv gjson.Result) bool {
		var b histree.BranchSnapshot[T]
		b.Parent.Branch = int(bv.Get("parent.branch").Int())
		b.Parent.Current = int(bv.Get("parent.current").Int())
		b.Saved = int(bv.Get("saved").Int())
		if b.Entries, err = rg.entries(bv.Get("entries")); err != nil {
			err = fmt.Errorf("branch %s: %w", key.String(), err)
			return false
		}
		snap.Branches[int(key.Int())] = b
		return true
	})
	if err != nil {
		return nil, err
	}
	return histree.RestoreHistory(snap)
}

func marshalRecord[T any](snap histree.RecordSnapshot[T], prefix string) ([]byte, error) {
	out := []byte(`{}`)
	var err error
	path := func(p string) string {
		if prefix == "" {
			return p
		}
		return prefix + "." + p
	}
	set := setter(&out, &err)
	set(path("current"), snap.Current)
	set(path("saved"), snap.Saved)
	set(path("limit"), snap.Limit)
	if err == nil {
		err = marshalEntries(&out, path("entries"), snap.Entries)
	}
	return out, err
}

func marshalEntries[T any](out *[]byte, path string, entries []histree.EntrySnapshot[T]) error {
	var err error
	set := setter(out, &err)
	set(path, []any{})
	for i, e := range entries {
		m, ok := e.Action.(Marshaler)
		if !ok {
			return fmt.Errorf("entry %d: %T: %w", i, e.Action, ErrNotMarshalable)
		}
		data, merr := m.MarshalAction()
		if merr != nil {
			return fmt.Errorf("entry %d: %w", i, merr)
		}
		p := fmt.Sprintf("%s.%d", path, i)
		set(p+".kind", m.Kind())
		set(p+".created", e.CreatedAt.Format(time.RFC3339Nano))
		set(p+".updated", e.UpdatedAt.Format(time.RFC3339Nano))
		if err == nil && len(data) > 0 {
			*out, err = sjson.SetRawBytes(*out, p+".data", data)
		}
	}
	return err
}

// setter binds sjson.SetBytes to an output buffer, keeping the first
// error.
func setter(out *[]byte, err *error) func(path string, value any) {
	return func(path string, value any) {
		if *err == nil {
			*out, *err = sjson.SetBytes(*out, path, value)
		}
	}
}

func (rg *Registry[T]) recordSnapshot(v gjson.Result) (histree.RecordSnapshot[T], error) {
	snap := histree.RecordSnapshot[T]{
		Current: int(v.Get("current").Int()),
		Saved:   int(v.Get("saved").Int()),
		Limit:   int(v.Get("limit").Int()),
	}
	var err error
	snap.Entries, err = rg.entries(v.Get("entries"))
	return snap, err
}

func (rg *Registry[T]) entries(v gjson.Result) ([]histree.EntrySnapshot[T], error) {
	items := v.Array()
	out := make([]histree.EntrySnapshot[T], 0, len(items))
	for i, ev := range items {
		e, err := rg.entry(ev)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (rg *Registry[T]) entry(v gjson.Result) (histree.EntrySnapshot[T], error) {
	var e histree.EntrySnapshot[T]
	kind := v.Get("kind").String()
	decode, ok := rg.decoders[kind]
	if !ok {
		return e, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
	action, err := decode(v.Get("data"))
	if err != nil {
		return e, fmt.Errorf("%q: %w", kind, err)
	}
	e.Action = action
	if l, ok := action.(histree.Labeler); ok {
		e.Label = l.Label()
	}
	e.CreatedAt = parseTime(v.Get("created"))
	e.UpdatedAt = parseTime(v.Get("updated"))
	return e, nil
}

func parseTime(v gjson.Result) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v.String())
	if err != nil {
		return time.Time{}
	}
	return t
}
