package cmds

var GlobalExecutor = NewExecutor()

func Define(name string, command *Command) {
	GlobalExecutor.Define(name, command)
}

func Execute(args []string) {
	if err := GlobalExecutor.Execute(args); err != nil {
		panic(err)
	}
}

func PrintUsage() {
	GlobalExecutor.PrintUsage()
}
