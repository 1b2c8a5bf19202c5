package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run a fins command" }
func (*runCmd) Usage() string {
	return `fins run <command...>

  Runs a single command and prints its output. The arguments are joined with
  spaces, quote the command to protect '>' or '|' from the shell.

Usage Examples:
$ fins run 'AAPL MSFT NVDA -> mcap -> sort mcap desc'
$ fins -json run '$tech -> pe < 30'
`
}

func (*runCmd) SetFlags(*flag.FlagSet) {}

func (*runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	command := strings.TrimSpace(strings.Join(f.Args(), " "))
	if command == "" {
		fmt.Fprintln(os.Stderr, "Error: missing command")
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	out := a.interp.Interpret(ctx, command)
	newPrinter(ctx, a).Print(out)
	if out.IsError() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
