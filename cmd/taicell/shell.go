package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/chzyer/readline"
	"github.com/reusee/taicell/cmds"
	"github.com/reusee/taicell/debugs"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/runs"
	"github.com/reusee/taicell/sessions"
)

// Shell drives one session from text commands.
type Shell struct {
	Controller *runs.Controller
	Session    *sessions.Session
	Tap        debugs.Tap
	Logger     logs.Logger
	Out        io.Writer

	executor *cmds.Executor
	arity    map[string]int
	// current command state
	ctx  context.Context
	next func() (string, error)
}

var errQuit = errors.New("quit")

const blockTerminator = "."

func (s *Shell) define(name string, desc string, fn any) {
	s.executor.Define(name, cmds.Func(fn).Desc(desc))
	s.arity[name] = reflect.TypeOf(fn).NumIn()
}

func (s *Shell) init() {
	if s.executor != nil {
		return
	}
	s.executor = cmds.NewExecutor()
	s.arity = make(map[string]int)

	s.define("load", "load a csv file as the dataset", s.load)
	s.define("objective", "set the analysis objective", s.objective)
	s.define("plan", "generate a plan for the objective", s.plan)
	s.define("split", "split the plan into cells, discarding existing cells", s.split)
	s.define("setplan", "enter a plan, ending with a line containing a single dot, and split it", s.setPlan)
	s.define("steps", "list cells", s.steps)
	s.define("gen", "generate code for a cell", s.gen)
	s.define("code", "enter code for a cell, ending with a line containing a single dot", s.code)
	s.define("run", "run a cell", s.run)
	s.define("runall", "run every runnable cell in order", s.runAll)
	s.define("approve", "install the missing modules of a cell and continue", s.approve)
	s.define("reject", "decline installing the missing modules of a cell", s.reject)
	s.define("revert", "drop the latest dataset snapshot", s.revert)
	s.define("edit", "replace the step text of a cell", s.edit)
	s.define("abandon", "give up on a cell", s.abandon)
	s.define("show", "show a cell, or the current dataset", s.show)
	s.define("meta", "show dataset metadata", s.meta)
	s.define("history", "list dataset snapshots", s.history)
	s.define("tap", "open a starlark prompt on the dataset and a cell", s.tap)
	s.define("quit", "leave", func() error {
		return errQuit
	})
}

// Exec runs one command line. next supplies further lines for commands that read a block.
func (s *Shell) Exec(ctx context.Context, line string, next func() (string, error)) error {
	s.init()
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	name, rest, _ := strings.Cut(line, " ")
	if name == "help" {
		s.executor.WriteUsage(s.Out)
		return nil
	}
	arity, ok := s.arity[name]
	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}
	args := []string{name}
	if rest = strings.TrimSpace(rest); rest != "" && arity > 0 {
		for _, arg := range strings.SplitN(rest, " ", arity) {
			args = append(args, strings.TrimSpace(arg))
		}
	}

	s.ctx = ctx
	s.next = next
	defer func() {
		s.ctx = nil
		s.next = nil
	}()
	return s.executor.Execute(args)
}

func (s *Shell) RunScript(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	next := func() (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return scanner.Text(), nil
	}
	for {
		line, err := next()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
		fmt.Fprintf(s.Out, "> %s\n", line)
		if err := s.Exec(ctx, line, next); errors.Is(err, errQuit) {
			return nil
		} else if err != nil {
			return err
		}
	}
}

func (s *Shell) Interactive(ctx context.Context) error {
	var historyFile string
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".taicell_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "taicell> ",
		HistoryFile: historyFile,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	next := func() (string, error) {
		rl.SetPrompt("... ")
		defer rl.SetPrompt("taicell> ")
		return rl.Readline()
	}
	for {
		line, err := rl.Readline()
		if err != nil { // Ctrl-C or Ctrl-D
			return nil
		}
		// Ctrl-C during a command cancels that command only
		cmdCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		err = s.Exec(cmdCtx, line, next)
		stop()
		if errors.Is(err, errQuit) {
			return nil
		} else if err != nil {
			fmt.Fprintf(s.Out, "error: %v\n", err)
		}
	}
}
