package cells

// Ledger holds one cell per plan step, in plan order.
type Ledger struct {
	cells []*Cell
}

func NewLedger(steps []string) *Ledger {
	l := new(Ledger)
	for i, step := range steps {
		l.cells = append(l.cells, New(i, step))
	}
	return l
}

func (l *Ledger) Len() int {
	return len(l.cells)
}

func (l *Ledger) At(i int) (*Cell, bool) {
	if i < 0 || i >= len(l.cells) {
		return nil, false
	}
	return l.cells[i], true
}

func (l *Ledger) Cells() []*Cell {
	return l.cells
}

// ResetAll resets every cell and returns how many had outcomes.
func (l *Ledger) ResetAll() (n int) {
	for _, c := range l.cells {
		if touched(c) {
			n++
		}
		c.Reset()
	}
	return
}

// ResetFrom resets the cells that committed or read any snapshot at or after version.
func (l *Ledger) ResetFrom(version int) (n int) {
	for _, c := range l.cells {
		if c.CommitVersion >= version || c.BaseVersion >= version {
			n++
			c.Reset()
		}
	}
	return
}

func touched(c *Cell) bool {
	return c.State != Empty && c.State != CodeReady ||
		c.Attempts > 0 ||
		!c.Result.IsZero() ||
		c.Error != ""
}
