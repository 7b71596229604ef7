package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/vnykmshr/cadence/internal/config"
	"github.com/vnykmshr/cadence/internal/harness"
	cerrors "github.com/vnykmshr/cadence/pkg/common/errors"
	"github.com/vnykmshr/cadence/pkg/metrics"
	"github.com/vnykmshr/cadence/pkg/scheduling/scheduler"
)

func createCommands() []*cli.Command {
	return []*cli.Command{
		createTimerCommand(),
		createPoolCommand(),
		createTicketsCommand(),
		createRecordCommand(),
	}
}

// env is the state shared by every command.
type env struct {
	cfg     config.Config
	log     *zap.Logger
	metrics *metrics.Registry
	out     io.Writer
}

func loadEnv(cmd *cli.Command) (*env, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:     cfg,
		log:     logger,
		metrics: cfg.MetricsRegistry(prometheus.NewRegistry()),
		out:     cmd.Root().Writer,
	}, nil
}

func (e *env) close() {
	_ = e.log.Sync()
}

func scheduleFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:  "period",
			Usage: "period of the repeating tasks",
			Value: time.Second,
		},
		&cli.IntFlag{
			Name:  "fail-after",
			Usage: "the failing task errors on this run",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "duration",
			Usage: "how long to run before shutting down",
			Value: 10 * time.Second,
		},
	}
}

// demoTasks returns a healthy task and one that fails on run failAfter.
func demoTasks(out io.Writer, failAfter int) (healthy, failing scheduler.Task) {
	var ticks, attempts atomic.Int64
	healthy = scheduler.NewTask("tick", func(context.Context) error {
		fmt.Fprintf(out, "tick %d at %s\n", ticks.Add(1), time.Now().Format(time.TimeOnly))
		return nil
	})
	failing = scheduler.NewTask("flaky", func(context.Context) error {
		n := attempts.Add(1)
		if n == int64(failAfter) {
			return fmt.Errorf("flaky failed on attempt %d", n)
		}
		fmt.Fprintf(out, "flaky %d ok\n", n)
		return nil
	})
	return healthy, failing
}

// runDemo submits the demo tasks to s, waits, shuts down and prints a summary.
func runDemo(ctx context.Context, e *env, s scheduler.Scheduler, cmd *cli.Command) error {
	healthy, failing := demoTasks(e.out, cmd.Int("fail-after"))
	period := cmd.Duration("period")

	a, err := s.Submit(healthy, scheduler.AtFixedRate(0, period))
	if err != nil {
		return err
	}
	b, err := s.Submit(failing, scheduler.WithFixedDelay(period/2, period))
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-time.After(cmd.Duration("duration")):
	}

	shutdownErr := s.Shutdown(true)
	st := s.Stats()
	fmt.Fprintf(e.out, "%s: %s after %d runs\n", a.Task().ID, a.State(), a.RunCount())
	fmt.Fprintf(e.out, "%s: %s after %d runs\n", b.Task().ID, b.State(), b.RunCount())
	fmt.Fprintf(e.out, "runs=%d failures=%d cancelled=%d\n", st.Runs, st.Failures, st.Cancelled)

	if cerrors.IsTaskFailure(shutdownErr) {
		fmt.Fprintf(e.out, "worker terminated: %v\n", shutdownErr)
		return nil
	}
	return shutdownErr
}

func createTimerCommand() *cli.Command {
	return &cli.Command{
		Name:  "timer",
		Usage: "run a healthy and a failing task on a single worker",
		Flags: scheduleFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			sc := e.cfg.SchedulerConfig(e.log, e.metrics)
			w, err := scheduler.NewSingleWorkerWithConfig(sc)
			if err != nil {
				return err
			}
			return runDemo(ctx, e, w, cmd)
		},
	}
}

func createPoolCommand() *cli.Command {
	flags := append(scheduleFlags(), &cli.IntFlag{
		Name:  "workers",
		Usage: "pool size (default: schedule.pool_size)",
	})
	return &cli.Command{
		Name:  "pool",
		Usage: "run a healthy and a failing task on a worker pool",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			sc := e.cfg.SchedulerConfig(e.log, e.metrics)
			if n := cmd.Int("workers"); n != 0 {
				sc.Workers = n
			}
			p, err := scheduler.NewPoolWithConfig(sc)
			if err != nil {
				return err
			}
			for _, w := range p.Workers() {
				fmt.Fprintf(e.out, "worker %s ready\n", w.Name)
			}
			return runDemo(ctx, e, p, cmd)
		},
	}
}

func createTicketsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tickets",
		Usage: "sell tickets from several windows",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "tickets", Usage: "ticket stock", Value: harness.DefaultTickets},
			&cli.IntFlag{Name: "windows", Usage: "number of sale windows", Value: 2},
			&cli.StringFlag{Name: "guard", Usage: "none, mutex, read or write", Value: string(harness.GuardWrite)},
			&cli.DurationFlag{Name: "pause", Usage: "time spent inside each sale", Value: time.Millisecond},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			guard, err := harness.ParseGuard(cmd.String("guard"))
			if err != nil {
				return err
			}
			office, err := harness.NewTicketOffice(harness.TicketConfig{
				Tickets: cmd.Int("tickets"),
				Windows: cmd.Int("windows"),
				Guard:   guard,
				Pause:   cmd.Duration("pause"),
				Logger:  e.log,
			})
			if err != nil {
				return err
			}

			report, err := office.Run(ctx)
			for _, s := range report.Sales {
				fmt.Fprintf(e.out, "%s sold ticket %d\n", s.Window, s.Ticket)
			}
			fmt.Fprintf(e.out, "sold=%d duplicates=%v oversold=%d remaining=%d consistent=%t\n",
				len(report.Sales), report.Duplicates, report.Oversold(), report.Remaining, report.Consistent())
			return err
		},
	}
}

func createRecordCommand() *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "share a name/sex record between producers and a reader",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "producers", Usage: "number of producers", Value: 2},
			&cli.StringFlag{Name: "guard", Usage: "none, mutex, read or write", Value: string(harness.GuardWrite)},
			&cli.DurationFlag{Name: "duration", Usage: "how long to run", Value: time.Second},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			guard, err := harness.ParseGuard(cmd.String("guard"))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("duration"))
			defer cancel()

			report, err := harness.RunRecord(ctx, harness.RecordConfig{
				Producers: cmd.Int("producers"),
				Guard:     guard,
				Logger:    e.log,
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			for _, p := range report.Samples {
				fmt.Fprintf(e.out, "torn: %s--%s\n", p.Name, p.Sex)
			}
			fmt.Fprintf(e.out, "reads=%d writes=%d torn=%d\n", report.Reads, report.Writes, report.Torn)
			return nil
		},
	}
}
