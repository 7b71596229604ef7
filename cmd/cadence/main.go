// cadence runs the scheduling and locking demos.
//
// Usage:
//
//	cadence [global options] <command> [command options]
//
// Commands:
//
//	timer     single-worker scheduler: one failing task stops every series
//	pool      worker pool: a failing task stops only its own series
//	tickets   sell a stock of tickets from several windows under a guard
//	record    producers and a reader sharing a two-field record
//
// Examples:
//
//	cadence timer --period 200ms --fail-after 3
//	cadence -c cadence.yaml pool --duration 5s
//	cadence tickets --guard read --windows 4
//	cadence record --guard write --duration 2s
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args))
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "cadence",
		Usage:   "scheduling and shared-state demos",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML or JSON configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override log.level (debug, info, warn, error)",
			},
		},
		Commands: createCommands(),
	}
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := createApp().Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "cadence:", err)
		return 1
	}
	return 0
}
