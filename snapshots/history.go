package snapshots

import (
	"errors"
	"time"

	"github.com/reusee/taicell/frames"
)

// Snapshot is one committed version of the working dataset.
type Snapshot struct {
	Version   int
	Frame     *frames.Frame
	Cell      int
	CreatedAt time.Time
}

// InitialCell marks the snapshot produced by loading a dataset.
const InitialCell = -1

var ErrEmpty = errors.New("history is empty")

// History is the ordered list of committed snapshots. The last one is current.
type History struct {
	snapshots []Snapshot
}

// New starts a history whose first snapshot is the loaded dataset.
func New(initial *frames.Frame) *History {
	h := new(History)
	h.Commit(initial, InitialCell)
	return h
}

func (h *History) Commit(frame *frames.Frame, cell int) Snapshot {
	if frame == nil {
		frame = frames.Empty()
	}
	snapshot := Snapshot{
		Version:   len(h.snapshots),
		Frame:     frame,
		Cell:      cell,
		CreatedAt: time.Now(),
	}
	h.snapshots = append(h.snapshots, snapshot)
	return snapshot
}

// Revert drops the current snapshot. It reports false and changes nothing when only the initial one is left.
func (h *History) Revert() (Snapshot, bool) {
	if len(h.snapshots) <= 1 {
		return Snapshot{}, false
	}
	last := h.snapshots[len(h.snapshots)-1]
	h.snapshots[len(h.snapshots)-1] = Snapshot{}
	h.snapshots = h.snapshots[:len(h.snapshots)-1]
	return last, true
}

func (h *History) Current() (Snapshot, error) {
	if len(h.snapshots) == 0 {
		return Snapshot{}, ErrEmpty
	}
	return h.snapshots[len(h.snapshots)-1], nil
}

func (h *History) At(version int) (Snapshot, bool) {
	if version < 0 || version >= len(h.snapshots) {
		return Snapshot{}, false
	}
	return h.snapshots[version], true
}

func (h *History) Len() int {
	return len(h.snapshots)
}

// Version is the version number of the current snapshot, -1 when empty.
func (h *History) Version() int {
	return len(h.snapshots) - 1
}

func (h *History) All() []Snapshot {
	ret := make([]Snapshot, len(h.snapshots))
	copy(ret, h.snapshots)
	return ret
}
