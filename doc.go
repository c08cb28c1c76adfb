// Package histree provides undo/redo functionality for a single mutable
// target.
//
// All modifications are expressed as actions: small objects that know how
// to apply a change to the target and how to reverse it. The package keeps
// the applied actions so they can be undone and redone in a controlled
// order. Key concepts:
//
// # Actions
//
// Actions implement the Action interface with Apply and Undo methods. An
// action may mutate its own fields while applying (for example, store a
// removed character) so Undo can reverse the change exactly. Optional
// capabilities are discovered by interface assertion:
//   - Merger: coalesce an incoming action into the previous one
//   - Labeler: a human-readable description for display and persistence
//
// # Record
//
// Record is a linear sequence of entries with a single cursor:
//
//	rec := histree.NewRecord[*strings.Builder]()
//	rec.Apply(target, action)
//	rec.Undo(target)
//	rec.Redo(target)
//
// The record tracks a saved position (for "unsaved changes" indicators) and
// an optional entry limit with oldest-first eviction.
//
// # History
//
// History generalizes Record into a tree. Applying a new action while older
// entries are undone does not destroy the abandoned entries; they are kept
// as a separate branch that can be revisited with GoTo:
//
//	hist := histree.NewHistory[*strings.Builder]()
//	hist.Apply(target, a)
//	hist.Undo(target)
//	hist.Apply(target, b) // forks; the branch with `a` survives
//	hist.GoTo(target, branch, index)
//
// # Checkpoints and Queues
//
// A checkpoint stages a batch of edits that can be committed as one unit or
// cancelled, rolling the wrapped record or history back to where staging
// began. A queue buffers apply/undo/redo requests without touching the
// target until Commit replays them in order.
//
// # Signals
//
// Record and History accept an optional slot callback that is notified when
// the ability to undo or redo changes, when the saved state is entered or
// left, and when the cursor or the active branch moves.
//
// # Concurrency
//
// The structures are not synchronized. Every operation borrows the target
// only for the duration of the call, and callers that share a record or
// history across goroutines must serialize whole operations externally.
package histree
