// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package engine

// pushHistory appends the current state as a new snapshot, discarding any
// redo-able snapshots beyond the current history position (a step taken
// after an Undo invalidates the undone future, matching the teacher's own
// history-truncation behavior), and evicts the oldest entry once
// HistoryCapacity is exceeded.
func (e *Engine) pushHistory() {
	if e.historyPos < len(e.history) {
		e.history = e.history[:e.historyPos]
	}
	e.history = append(e.history, e.takeSnapshot())
	e.historyPos = len(e.history)

	limit := e.params.HistoryCapacity
	if limit > 0 && len(e.history) > limit {
		drop := len(e.history) - limit
		e.history = append(e.history[:0], e.history[drop:]...)
		e.historyPos = len(e.history)
	}
}

// Undo restores the snapshot taken before the most recent step (AdvanceSteps
// pushes one snapshot per step, so Undo goes back one step, not one whole
// AdvanceSteps call); it returns false if there is nothing to undo. Undo
// followed immediately by Redo restores the pre-Undo state bit-
// identically (spec §8).
func (e *Engine) Undo() bool {
	if e.historyPos <= 1 {
		return false
	}
	e.historyPos--
	e.restore(e.history[e.historyPos-1])
	return true
}

// Redo re-applies a snapshot previously undone by Undo, if any.
func (e *Engine) Redo() bool {
	if e.historyPos >= len(e.history) {
		return false
	}
	e.restore(e.history[e.historyPos])
	e.historyPos++
	return true
}

// CanUndo reports whether Undo would succeed.
func (e *Engine) CanUndo() bool { return e.historyPos > 1 }

// CanRedo reports whether Redo would succeed.
func (e *Engine) CanRedo() bool { return e.historyPos < len(e.history) }
