package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/etnz/fins"
)

type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "run commands interactively" }
func (*replCmd) Usage() string {
	return `fins repl

  Reads commands from the terminal and prints their outputs. $variables are
  kept for the whole session. Type 'exit' or 'quit' to leave.
`
}

func (*replCmd) SetFlags(*flag.FlagSet) {}

func (*replCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	fmt.Fprintln(os.Stdout, "fins interactive session. Type 'exit' to quit.")
	if err := repl(ctx, a.interp, os.Stdin, os.Stdout, newPrinter(ctx, a).Print); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

const replPrompt = "fins> "

// repl runs the commands read from r until exit, quit or the end of input.
func repl(ctx context.Context, interp interpreter, r io.Reader, w io.Writer, print func(fins.Output)) error {
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, replPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		print(interp.Interpret(ctx, line))
	}
}
