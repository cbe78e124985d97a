package sessions

import (
	"testing"

	"github.com/google/uuid"
	"github.com/reusee/taicell/frames"
	"github.com/reusee/taicell/snapshots"
)

func TestSession(t *testing.T) {
	s := New()
	if s.ID == uuid.Nil {
		t.Fatal()
	}
	if s.Loaded() || s.Current() != nil || s.DatasetVersion() != 0 {
		t.Fatal()
	}
	if s.Ledger.Len() != 0 {
		t.Fatal()
	}

	f := frames.MustNew([]string{"a"}, [][]any{{1}})
	s.History = snapshots.New(f)
	if !s.Loaded() || s.Current() != f {
		t.Fatal()
	}
	s.History.Commit(frames.Empty(), 0)
	if s.DatasetVersion() != 1 {
		t.Fatalf("got %d", s.DatasetVersion())
	}

	if New().ID == s.ID {
		t.Fatal("ids should differ")
	}
}
