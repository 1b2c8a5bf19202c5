package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/fins/docs"
)

type topicCmd struct{}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `fins topic [topic...]

  Shows the documentation of the topics, the list of topics without argument,
  and every topic with '*'.
`
}

func (*topicCmd) SetFlags(*flag.FlagSet) {}

func (*topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	doc := docs.Index()
	if f.NArg() > 0 {
		var err error
		if doc, err = docs.Join(f.Args()...); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading doc: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	if isTerminal(os.Stdout) {
		printMarkdown(os.Stdout, doc)
	} else {
		fmt.Print(doc)
	}
	return subcommands.ExitSuccess
}
