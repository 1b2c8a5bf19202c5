package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"github.com/etnz/fins/date"
	"github.com/etnz/fins/scheduler"
	"github.com/etnz/fins/server"
)

type serveCmd struct {
	addr string
	dev  bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the interpreter over HTTP" }
func (*serveCmd) Usage() string {
	return `fins serve [-addr :8080] [-dev]

  Serves the interpreter over HTTP:

    POST   /api/interpret     {"command": "..."}
    GET    /api/variables     ?prefix=/lists
    DELETE /api/variables/<path>
    GET    /api/columns
    GET    /ws                one command per text message
    GET    /health

  Expired cache entries are purged on the configured schedule.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address, overrides the configuration")
	f.BoolVar(&c.dev, "dev", false, "Development mode: console logs, no compression")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(c.dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()
	if c.addr != "" {
		a.cfg.Addr = c.addr
	}

	sched := scheduler.New(a.log)
	for _, job := range a.purgeJobs() {
		if err := sched.AddJob(a.cfg.PurgeSchedule, job); err != nil {
			fmt.Fprintf(os.Stderr, "Error scheduling %s: %v\n", job.Name(), err)
			return subcommands.ExitFailure
		}
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Addr:        a.cfg.Addr,
		Log:         a.log,
		Interpreter: a.interp,
		Columns:     a.catalog,
		DevMode:     c.dev,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

// purgeJobs returns the jobs removing expired cache entries.
func (a *app) purgeJobs() []scheduler.Job {
	jobs := []scheduler.Job{
		scheduler.JobFunc("purge symbols", func(ctx context.Context) error {
			n, err := a.resolver.Purge(ctx, date.Today())
			a.log.Info().Int64("removed", n).Msg("symbols purged")
			return err
		}),
	}
	if a.http != nil {
		jobs = append(jobs, scheduler.JobFunc("purge http cache", func(context.Context) error {
			n, err := a.http.Purge()
			a.log.Info().Int("removed", n).Msg("http cache purged")
			return err
		}))
	}
	return jobs
}
