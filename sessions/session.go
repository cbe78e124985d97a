package sessions

import (
	"time"

	"github.com/google/uuid"
	"github.com/reusee/taicell/cells"
	"github.com/reusee/taicell/frames"
	"github.com/reusee/taicell/snapshots"
)

// Session is the state of one analysis. It is owned by the caller and is not safe for concurrent use.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	Objective string
	Plan      string
	Source    string
	Metadata  frames.Metadata

	History *snapshots.History
	Ledger  *cells.Ledger
}

func New() *Session {
	return &Session{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		Ledger:    cells.NewLedger(nil),
	}
}

func (s *Session) Loaded() bool {
	return s.History != nil && s.History.Len() > 0
}

// Current returns the current dataset, nil before any load.
func (s *Session) Current() *frames.Frame {
	if s.History == nil {
		return nil
	}
	snapshot, err := s.History.Current()
	if err != nil {
		return nil
	}
	return snapshot.Frame
}

// DatasetVersion is the number of commits since the dataset was loaded.
func (s *Session) DatasetVersion() int {
	if s.History == nil {
		return 0
	}
	return s.History.Version()
}
