package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/reusee/taicell/frames"
	"github.com/reusee/taicell/snapshots"
)

const previewRows = 20

func (s *Shell) load(path string) error {
	frame, err := frames.ReadCSVFile(path)
	if err != nil {
		return err
	}
	if err := s.Controller.LoadDataset(s.ctx, s.Session, frame, path); err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "loaded %s: %d rows, %d columns\n", path, frame.Len(), frame.Width())
	return nil
}

func (s *Shell) objective(text string) error {
	s.Session.Objective = text
	return nil
}

func (s *Shell) plan(objective *string) error {
	text := s.Session.Objective
	if *objective != "" {
		text = *objective
	}
	if text == "" {
		return errors.New("no objective, use: plan <objective>")
	}
	plan, err := s.Controller.GeneratePlan(s.ctx, s.Session, text)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.Out, plan)
	return nil
}

func (s *Shell) split() error {
	n, err := s.Controller.SplitPlan(s.ctx, s.Session, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "%d cells\n", n)
	return s.steps()
}

func (s *Shell) steps() error {
	fmt.Fprintln(s.Out, renderCells(s.Session.Ledger.Cells()))
	return nil
}

func (s *Shell) gen(i int) error {
	if err := s.Controller.GenerateCode(s.ctx, s.Session, i); err != nil {
		return err
	}
	return s.show(&i)
}

// readBlock reads lines until a lone dot.
func (s *Shell) readBlock() (string, error) {
	if s.next == nil {
		return "", errors.New("command needs an input block")
	}
	var lines []string
	for {
		line, err := s.next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) == blockTerminator {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Shell) setPlan() error {
	plan, err := s.readBlock()
	if err != nil {
		return err
	}
	n, err := s.Controller.SplitPlan(s.ctx, s.Session, plan)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "%d cells\n", n)
	return s.steps()
}

func (s *Shell) code(i int) error {
	code, err := s.readBlock()
	if err != nil {
		return err
	}
	return s.Controller.SetCode(s.ctx, s.Session, i, code)
}

func (s *Shell) run(i int) error {
	if err := s.Controller.Run(s.ctx, s.Session, i); err != nil {
		return err
	}
	return s.show(&i)
}

func (s *Shell) runAll() error {
	if err := s.Controller.RunAll(s.ctx, s.Session); err != nil {
		return err
	}
	return s.steps()
}

func (s *Shell) approve(i int) error {
	if err := s.Controller.ApproveInstall(s.ctx, s.Session, i); err != nil {
		return err
	}
	return s.show(&i)
}

func (s *Shell) reject(i int) error {
	if err := s.Controller.RejectInstall(s.ctx, s.Session, i); err != nil {
		return err
	}
	return s.show(&i)
}

func (s *Shell) revert() error {
	ok, err := s.Controller.Revert(s.ctx, s.Session)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(s.Out, "nothing to revert")
		return nil
	}
	fmt.Fprintf(s.Out, "dataset version %d\n", s.Session.DatasetVersion())
	return nil
}

func (s *Shell) edit(i int, step string) error {
	return s.Controller.EditStep(s.ctx, s.Session, i, step)
}

func (s *Shell) abandon(i int) error {
	return s.Controller.Abandon(s.ctx, s.Session, i)
}

func (s *Shell) show(i *int) error {
	if i == nil {
		frame := s.Session.Current()
		if frame == nil {
			return errors.New("no dataset loaded")
		}
		fmt.Fprintf(s.Out, "dataset version %d, %d rows\n", s.Session.DatasetVersion(), frame.Len())
		fmt.Fprintln(s.Out, renderFrame(frame, previewRows))
		return nil
	}
	cell, ok := s.Session.Ledger.At(*i)
	if !ok {
		return fmt.Errorf("no cell %d", *i)
	}
	fmt.Fprintln(s.Out, renderCell(cell))
	return nil
}

func (s *Shell) meta() error {
	if !s.Session.Loaded() {
		return errors.New("no dataset loaded")
	}
	fmt.Fprint(s.Out, s.Session.Metadata.String())
	return nil
}

func (s *Shell) history() error {
	if !s.Session.Loaded() {
		return errors.New("no dataset loaded")
	}
	for _, snapshot := range s.Session.History.All() {
		origin := "loaded"
		if snapshot.Cell != snapshots.InitialCell {
			origin = fmt.Sprintf("cell %d", snapshot.Cell)
		}
		fmt.Fprintf(s.Out, "%d\t%s\t%d rows\t%s\n",
			snapshot.Version,
			origin,
			snapshot.Frame.Len(),
			snapshot.CreatedAt.Format("15:04:05"),
		)
	}
	return nil
}

func (s *Shell) tap(i *int) error {
	globals := map[string]any{
		"df": s.Session.Current(),
	}
	if i != nil {
		cell, ok := s.Session.Ledger.At(*i)
		if !ok {
			return fmt.Errorf("no cell %d", *i)
		}
		globals["cell"] = cell
		globals["result"] = cell.Result.Frame
	}
	s.Tap(s.ctx, "session", globals)
	return nil
}
