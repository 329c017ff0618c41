package commands

import (
	"time"

	"github.com/heimdex/clipforge/internal/timeline"
)

// History is the two-stack undo/redo record owned by one editing session.
// It is not safe for concurrent use; the session serialises access.
type History struct {
	undo []Command
	redo []Command
	now  func() time.Time
}

// NewHistory returns an empty history. now stamps the project's updatedAt
// whenever a run changes the document; nil uses time.Now.
func NewHistory(now func() time.Time) *History {
	if now == nil {
		now = time.Now
	}
	return &History{now: now}
}

// Apply runs cmd, records it for undo and discards the redo branch.
func (h *History) Apply(cmd Command, p *timeline.Project) bool {
	changed := cmd.Apply(p)
	h.undo = append(h.undo, cmd)
	clear(h.redo)
	h.redo = h.redo[:0]
	h.touch(p, changed)
	return changed
}

// Undo reverts the most recent command. It returns the command, or nil when
// there is nothing to undo, and whether the document changed.
func (h *History) Undo(p *timeline.Project) (Command, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	cmd := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	changed := cmd.Undo(p)
	h.redo = append(h.redo, cmd)
	h.touch(p, changed)
	return cmd, changed
}

// Redo re-applies the most recently undone command.
func (h *History) Redo(p *timeline.Project) (Command, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	cmd := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	changed := cmd.Apply(p)
	h.undo = append(h.undo, cmd)
	h.touch(p, changed)
	return cmd, changed
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoName is the menu label for the next undo, or "" when there is none.
func (h *History) UndoName() string {
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].Name()
}

func (h *History) RedoName() string {
	if len(h.redo) == 0 {
		return ""
	}
	return h.redo[len(h.redo)-1].Name()
}

// Len returns the sizes of the undo and redo stacks.
func (h *History) Len() (undo, redo int) {
	return len(h.undo), len(h.redo)
}

// Reset drops both stacks.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}

func (h *History) touch(p *timeline.Project, changed bool) {
	if changed && p != nil {
		p.Touch(h.now())
	}
}
