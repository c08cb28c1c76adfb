// Package luaact builds undoable actions from Lua scripts, so edits can be
// defined at runtime without recompiling. A script evaluates to a table
// with an apply(doc) and an undo(doc) function and an optional label
// string:
//
//	return {
//	    label = "shout",
//	    apply = function(doc) doc:set(doc:get() .. "!") end,
//	    undo = function(doc) doc:set(doc:get():sub(1, -2)) end,
//	}
//
// An Engine and every action compiled on it share one Lua state, which is
// not goroutine-safe: all applies and undos must happen on one goroutine.
package luaact

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// ErrNotAction is returned when a script does not evaluate to an action
// table.
var ErrNotAction = errors.New("script did not return an action table")

const documentTypeName = "histree.document"

// Document is the target Lua actions edit. Scripts see it as an object
// with get() and set(text) methods.
type Document struct {
	Text string
}

// Engine owns the Lua state actions are compiled and run on.
type Engine struct {
	L *lua.LState
}

// NewEngine creates an engine with a fresh Lua state.
func NewEngine() *Engine {
	L := lua.NewState()
	mt := L.NewTypeMetatable(documentTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"get": documentGet,
		"set": documentSet,
	}))
	return &Engine{L: L}
}

// Close releases the Lua state. Actions compiled on the engine must not be
// used afterwards.
func (e *Engine) Close() { e.L.Close() }

// Compile evaluates the script and wraps the returned table as an action.
// The name is used in labels and errors when the table has no label field.
func (e *Engine) Compile(name, script string) (*Action, error) {
	fn, err := e.L.LoadString(script)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	e.L.Push(fn)
	if err := e.L.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", name, err)
	}
	ret := e.L.Get(-1)
	e.L.Pop(1)

	table, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s returned %s: %w", name, ret.Type(), ErrNotAction)
	}
	action := &Action{eng: e, name: name, table: table}
	for _, field := range []string{"apply", "undo"} {
		if _, ok := table.RawGetString(field).(*lua.LFunction); !ok {
			return nil, fmt.Errorf("%s has no %s function: %w", name, field, ErrNotAction)
		}
	}
	return action, nil
}

// Action is a Lua-scripted action over a Document.
type Action struct {
	eng   *Engine
	name  string
	table *lua.LTable
}

// Apply runs the script's apply function against the document.
func (a *Action) Apply(d *Document) error { return a.call("apply", d) }

// Undo runs the script's undo function against the document.
func (a *Action) Undo(d *Document) error { return a.call("undo", d) }

// Label returns the table's label field, or the script name.
func (a *Action) Label() string {
	if s, ok := a.table.RawGetString("label").(lua.LString); ok {
		return string(s)
	}
	return a.name
}

func (a *Action) call(field string, d *Document) error {
	L := a.eng.L
	fn, ok := a.table.RawGetString(field).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("%s has no %s function: %w", a.name, field, ErrNotAction)
	}
	ud := L.NewUserData()
	ud.Value = d
	L.SetMetatable(ud, L.GetTypeMetatable(documentTypeName))
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, ud); err != nil {
		return fmt.Errorf("%s.%s: %w", a.name, field, err)
	}
	return nil
}

func checkDocument(L *lua.LState) *Document {
	ud := L.CheckUserData(1)
	if d, ok := ud.Value.(*Document); ok {
		return d
	}
	L.ArgError(1, "document expected")
	return nil
}

func documentGet(L *lua.LState) int {
	d := checkDocument(L)
	L.Push(lua.LString(d.Text))
	return 1
}

func documentSet(L *lua.LState) int {
	d := checkDocument(L)
	d.Text = L.CheckString(2)
	return 0
}
