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

type execCmd struct {
	file      string
	keepGoing bool
}

func (*execCmd) Name() string     { return "exec" }
func (*execCmd) Synopsis() string { return "run the commands of a file" }
func (*execCmd) Usage() string {
	return `fins exec -f <file> [-k]

  Runs a file of commands, one per line. Blank lines and lines starting with
  '#' are skipped. The execution stops at the first error unless -k is set.
  Use '-' to read the commands from stdin.
`
}

func (c *execCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "File of commands, - for stdin")
	f.BoolVar(&c.keepGoing, "k", false, "Keep going after an error")
}

func (c *execCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: missing -f <file>")
		return subcommands.ExitUsageError
	}
	var r io.Reader = os.Stdin
	if c.file != "-" {
		f, err := os.Open(c.file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", c.file, err)
			return subcommands.ExitFailure
		}
		defer f.Close()
		r = f
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	p := newPrinter(ctx, a)
	failed, err := execLines(ctx, a.interp, r, c.keepGoing, p.Print)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", c.file, err)
		return subcommands.ExitFailure
	}
	if failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// interpreter runs commands.
type interpreter interface {
	Interpret(ctx context.Context, text string) fins.Output
}

// execLines runs each command line of r and prints its output. It returns the
// number of failed commands, it stops at the first one unless keepGoing.
func execLines(ctx context.Context, interp interpreter, r io.Reader, keepGoing bool, print func(fins.Output)) (failed int, err error) {
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out := interp.Interpret(ctx, line)
		if out.IsError() {
			out = fins.Errorf("line %d: %w", n, out.Err()).WithLog(out.Log()...)
			failed++
		}
		print(out)
		if out.IsError() && !keepGoing {
			break
		}
	}
	return failed, scanner.Err()
}
