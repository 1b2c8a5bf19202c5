package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/etnz/fins"
	"github.com/etnz/fins/storage"
)

type lsCmd struct{}

func (*lsCmd) Name() string     { return "ls" }
func (*lsCmd) Synopsis() string { return "list the stored variables" }
func (*lsCmd) Usage() string {
	return `fins ls [prefix]

  Lists the /variables of the storage directory, optionally those starting
  with prefix.
`
}

func (*lsCmd) SetFlags(*flag.FlagSet) {}

func (*lsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	prefix := "/"
	if f.NArg() > 0 {
		prefix = f.Arg(0)
	}
	paths, err := openStorage(cfg.StorageDir).List(prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing variables: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return subcommands.ExitSuccess
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete stored variables" }
func (*rmCmd) Usage() string {
	return `fins rm <path>...

  Deletes /variables. Locked variables must be unlocked first.
`
}

func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: missing path")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	store := openStorage(cfg.StorageDir)
	status := subcommands.ExitSuccess
	for _, path := range f.Args() {
		if err := remove(store, path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = subcommands.ExitFailure
		}
	}
	return status
}

func openStorage(dir string) storage.Storage {
	return storage.NewDisk(dir, fins.Codec{}, zerolog.Nop())
}

// remove deletes path from store.
func remove(store storage.Storage, path string) error {
	if !storage.IsDisk(path) {
		return fmt.Errorf("%s is not a /variable", path)
	}
	found, err := store.Delete(path)
	if err != nil {
		return fmt.Errorf("cannot delete %s: %w", path, err)
	}
	if !found {
		return fmt.Errorf("%s: %w", path, fins.ErrNotFound)
	}
	return nil
}
