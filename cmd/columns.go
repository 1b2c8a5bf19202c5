package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/etnz/fins/columns"
)

type columnsCmd struct{}

func (*columnsCmd) Name() string     { return "columns" }
func (*columnsCmd) Synopsis() string { return "list the column types" }
func (*columnsCmd) Usage() string {
	return `fins columns

  Lists the column types with their parameters.
`
}

func (*columnsCmd) SetFlags(*flag.FlagSet) {}

func (*columnsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var md strings.Builder
	writeColumns(&md, columns.Catalogue().Definitions())
	if isTerminal(os.Stdout) {
		printMarkdown(os.Stdout, md.String())
	} else {
		fmt.Print(md.String())
	}
	return subcommands.ExitSuccess
}

// writeColumns writes the definitions as a markdown table.
func writeColumns(w io.Writer, defs []columns.Definition) {
	fmt.Fprintf(w, "| Column | Description | Parameters |\n|:---|:---|:---|\n")
	for _, d := range defs {
		var params []string
		for _, p := range d.Params {
			params = append(params, fmt.Sprintf("%s=%s", p.Name, p.Default))
		}
		if d.Ranged {
			params = append(params, "[start:end] period")
		}
		fmt.Fprintf(w, "| %s | %s | %s |\n", d.Name, d.Description, strings.Join(params, ", "))
	}
}
