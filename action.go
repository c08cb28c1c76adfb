package histree

// Action is the unit of change applied to a target of type T.
//
// Apply performs the change and Undo reverses it. An action may mutate its
// own fields during Apply to remember what it did (for example, store a
// popped character) so Undo can restore the target exactly. Apply is also
// used to redo an undone action, so it must be repeatable after Undo.
type Action[T any] interface {
	Apply(target T) error
	Undo(target T) error
}

// MergeResult decides how two adjacent actions are stored.
type MergeResult int

const (
	// MergeNo keeps both actions as separate entries.
	MergeNo MergeResult = iota
	// MergeYes absorbs the incoming action into the previous entry. The
	// previous action must have updated its own state so that a single Undo
	// reverses both changes.
	MergeYes
	// MergeAnnul drops both actions; they cancel each other out.
	MergeAnnul
)

// Merger is an optional capability for actions that can coalesce with the
// action applied directly after them. Merge is consulted after next has
// been applied to the target; returning MergeYes means the receiver has
// consumed next.
type Merger[T any] interface {
	Action[T]
	Merge(next Action[T]) MergeResult
}

// Labeler is an optional capability for actions that carry a
// human-readable description, used by display and persistence.
type Labeler interface {
	Label() string
}

// Func creates an action from apply and undo functions. The label may be
// empty. The closures share state the same way a struct action's fields
// would, so they can remember what Apply did.
func Func[T any](label string, apply, undo func(T) error) Action[T] {
	return &funcAction[T]{label: label, apply: apply, undo: undo}
}

type funcAction[T any] struct {
	label string
	apply func(T) error
	undo  func(T) error
}

func (a *funcAction[T]) Apply(target T) error { return a.apply(target) }
func (a *funcAction[T]) Undo(target T) error  { return a.undo(target) }
func (a *funcAction[T]) Label() string        { return a.label }
