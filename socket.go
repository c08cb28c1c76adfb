package histree

// SignalKind distinguishes the state transitions reported to a slot.
type SignalKind int

const (
	// SignalUndo reports that the ability to undo changed; On carries the
	// new state.
	SignalUndo SignalKind = iota + 1
	// SignalRedo reports that the ability to redo changed.
	SignalRedo
	// SignalSaved reports that the saved state was entered or left.
	SignalSaved
	// SignalCursor reports cursor movement; Old and New carry positions.
	// Emitted with Old == New when an apply merged into the previous entry.
	SignalCursor
	// SignalBranch reports that the active branch changed; Old and New
	// carry branch ids. Only emitted by History.
	SignalBranch
)

// Signal reports a state transition in a record or history.
type Signal struct {
	Kind SignalKind
	// On carries the new capability state for SignalUndo, SignalRedo and
	// SignalSaved.
	On bool
	// Old and New carry cursor positions for SignalCursor and branch ids
	// for SignalBranch.
	Old, New int
}

// Slot receives signals from a record or history. Slots run inline during
// the operation that caused the transition and must not call back into the
// structure.
type Slot func(Signal)

// socket owns the optional slot and the change detection around it.
// Multi-step operations capture the state once before and once after, so a
// slot sees one coalesced set of signals per call.
type socket struct {
	slot Slot
}

func (s *socket) connect(slot Slot) Slot {
	old := s.slot
	s.slot = slot
	return old
}

func (s *socket) disconnect() Slot {
	old := s.slot
	s.slot = nil
	return old
}

func (s *socket) emit(sig Signal) {
	if s.slot != nil {
		s.slot(sig)
	}
}

// recordState is the observable state a slot cares about.
type recordState struct {
	current int
	canUndo bool
	canRedo bool
	saved   bool
}

// emitChanges emits one signal per transition between old and new. When
// forceCursor is set the cursor signal is emitted even if the position did
// not move, matching apply's merge behavior.
func (s *socket) emitChanges(old, now recordState, forceCursor bool) {
	if s.slot == nil {
		return
	}
	if forceCursor || old.current != now.current {
		s.emit(Signal{Kind: SignalCursor, Old: old.current, New: now.current})
	}
	if old.canUndo != now.canUndo {
		s.emit(Signal{Kind: SignalUndo, On: now.canUndo})
	}
	if old.canRedo != now.canRedo {
		s.emit(Signal{Kind: SignalRedo, On: now.canRedo})
	}
	if old.saved != now.saved {
		s.emit(Signal{Kind: SignalSaved, On: now.saved})
	}
}
