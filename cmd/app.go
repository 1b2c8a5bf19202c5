// Package cmd implements the fins command line application.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/etnz/fins"
	"github.com/etnz/fins/columns"
	"github.com/etnz/fins/config"
	"github.com/etnz/fins/dsl"
	"github.com/etnz/fins/eodhd"
	"github.com/etnz/fins/httpcache"
	"github.com/etnz/fins/logger"
	"github.com/etnz/fins/storage"
	"github.com/etnz/fins/symbols"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&runCmd{}, "commands")
	c.Register(&execCmd{}, "commands")
	c.Register(&replCmd{}, "commands")

	c.Register(&lsCmd{}, "variables")
	c.Register(&rmCmd{}, "variables")

	c.Register(&searchCmd{}, "help")
	c.Register(&columnsCmd{}, "help")
	c.Register(&topicCmd{}, "help")

	c.Register(&serveCmd{}, "")
	c.Register(&AssistCmd{}, "")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configPath = flag.String("config", config.DefaultPath(), "Path to the YAML configuration file")
	storageDir = flag.String("storage-dir", "", "Directory of the /variables, overrides the configuration")
	logLevel   = flag.String("log-level", "", "Log level (debug, info, warn, error, off), overrides the configuration")
	jsonOutput = flag.Bool("json", false, "Print outputs as JSON")
	offline    = flag.Bool("offline", false, "Do not fetch market data")
)

// builtins returns the registry of the interpreter.
var builtins = dsl.Builtins

// app holds the components wired from the configuration.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	resolver *symbols.Resolver
	catalog  *columns.Catalog
	interp   *dsl.Interpreter
	http     *httpcache.Store
	cache    *symbols.Cache
	eodhd    *eodhd.Client // nil when running without market data
}

// loadConfig loads the configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if *storageDir != "" {
		cfg.StorageDir = *storageDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	return cfg, cfg.Validate()
}

// openApp wires the interpreter and its data source, logging to the console.
// Call close when done.
func openApp() (*app, error) { return newApp(true) }

// newApp wires the interpreter and its data source.
func newApp(pretty bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: pretty})
	logger.SetGlobal(log)
	a := &app{cfg: cfg, log: log, catalog: columns.Catalogue()}

	var provider fins.DataSource = symbols.NewStatic()
	opts := []symbols.Option{
		symbols.WithLogger(log),
		symbols.WithMaxConcurrentFetches(cfg.MaxConcurrentFetches),
	}
	switch {
	case *offline:
	case cfg.EODHDAPIKey == "":
		log.Warn().Msg("no EODHD API key, running without market data")
	default:
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create cache dir: %w", err)
		}
		if a.http, err = httpcache.Open(filepath.Join(cfg.CacheDir, "http.db"), log); err != nil {
			return nil, err
		}
		if a.cache, err = symbols.OpenCache(filepath.Join(cfg.CacheDir, "symbols.db"), log); err != nil {
			a.close()
			return nil, err
		}
		a.eodhd = eodhd.New(cfg.EODHDAPIKey, eodhd.WithCache(a.http), eodhd.WithLogger(log))
		provider = a.eodhd
		opts = append(opts, symbols.WithCache(a.cache))
	}
	a.resolver = symbols.NewResolver(provider, opts...)

	reg := builtins()
	if err := reg.Check(); err != nil {
		a.close()
		return nil, fmt.Errorf("config error: %w", err)
	}
	a.interp = dsl.NewInterpreter(reg, storage.New(cfg.StorageDir, fins.Codec{}, log),
		dsl.WithDataSource(a.resolver),
		dsl.WithColumns(a.catalog),
		dsl.WithLogger(log),
		dsl.WithWorkers(cfg.MaxConcurrentFetches),
	)
	return a, nil
}

// close releases the caches.
func (a *app) close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.http != nil {
		errs = append(errs, a.http.Close())
	}
	return errors.Join(errs...)
}
