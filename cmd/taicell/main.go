package main

import (
	"context"
	"fmt"
	"os"

	"github.com/reusee/dscope"
	"github.com/reusee/e5"
	"github.com/reusee/taicell/cmds"
	"github.com/reusee/taicell/debugs"
	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/modes"
	"github.com/reusee/taicell/runs"
	"github.com/reusee/taicell/sandboxes"
	"github.com/reusee/taicell/sessions"
)

var (
	childMode     = cmds.Switch(sandboxes.ChildCommand)
	dataFlag      = cmds.Var[string]("-data")
	objectiveFlag = cmds.Var[string]("-objective")
	scriptFlag    = cmds.Var[string]("-script")
)

var wrap = e5.Wrap.With(e5.WrapStacktrace)

func main() {
	cmds.Execute(os.Args[1:])
	ctx := context.Background()

	scope := dscope.New(
		new(Module),
		modes.ForProduction(),
	)

	if *childMode {
		scope.Call(func(
			logger logs.Logger,
		) {
			if err := sandboxes.Child(ctx, os.Stdin, os.Stdout, logger); err != nil {
				logger.Error("sandbox child", "error", err)
				os.Exit(1)
			}
		})
		return
	}

	scope.Call(func(
		controller *runs.Controller,
		tap debugs.Tap,
		logger logs.Logger,
	) {
		shell := &Shell{
			Controller: controller,
			Session:    sessions.New(),
			Tap:        tap,
			Logger:     logger,
			Out:        os.Stdout,
		}
		logger.Info("session", "id", shell.Session.ID)

		if *dataFlag != "" {
			if err := shell.Exec(ctx, "load "+*dataFlag, nil); err != nil {
				fatal(err)
			}
		}
		if *objectiveFlag != "" {
			if err := shell.Exec(ctx, "objective "+*objectiveFlag, nil); err != nil {
				fatal(err)
			}
		}

		if *scriptFlag != "" {
			f, err := os.Open(*scriptFlag)
			if err != nil {
				fatal(err)
			}
			defer f.Close()
			if err := shell.RunScript(ctx, f); err != nil {
				fatal(err)
			}
			return
		}

		if err := shell.Interactive(ctx); err != nil {
			fatal(err)
		}
	})
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%v\n", wrap(err))
	os.Exit(1)
}
