package histree

import "errors"

// Common errors for history operations.
var (
	// ErrNothingToUndo reports an undo with no applied entries. It marks a
	// no-op, not a failure: the target was not touched.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo reports a redo with no undone entries.
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrNoSavedState reports a revert on a record whose saved state is not
	// set, or was evicted under the entry limit.
	ErrNoSavedState = errors.New("no saved state")

	// ErrIndexOutOfRange reports a go-to index outside [0, len].
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnknownBranch reports navigation to a branch id that does not
	// exist, or was pruned.
	ErrUnknownBranch = errors.New("unknown branch")

	// ErrInvalidSnapshot reports a snapshot whose fields violate the record
	// or history invariants.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// IsNoop reports whether err only marks a no-op condition such as undoing
// with nothing applied. Queue commits skip these instead of stopping.
func IsNoop(err error) bool {
	return errors.Is(err, ErrNothingToUndo) || errors.Is(err, ErrNothingToRedo)
}
