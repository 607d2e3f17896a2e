package cmd

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var everyCmd = &cobra.Command{
	Use:   "every <interval>",
	Short: "Run comparisons indefinitely at an interval",
	Long: `The every subcommand runs comparisons at the interval you
specify. The result of each run is saved to storage.
Additionally, if notifiers are configured, they are told
about endpoints that were down or degraded, and configured
exporters receive every run.

This command runs until it is interrupted.

Interval formats are the same as those for Go's
time.ParseDuration() syntax:
https://golang.org/pkg/time/#ParseDuration - with a
few shortcuts: second, minute, hour, day, and week.

Examples:

  $ searchbench every 10m -c searchbench.json
  $ searchbench every day -c searchbench.json
  $ searchbench every 1h30m -c searchbench.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := parseInterval(args[0])
		if err != nil {
			return err
		}

		storeResults = true
		b, err := loadBench(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		err = b.ReportEvery(ctx, interval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func parseInterval(s string) (time.Duration, error) {
	itvlStr := strings.ToLower(s)
	switch itvlStr {
	case "second":
		itvlStr = "1s"
	case "minute":
		itvlStr = "1m"
	case "hour":
		itvlStr = "1h"
	case "day":
		itvlStr = "24h"
	case "week":
		itvlStr = "168h"
	}

	interval, err := time.ParseDuration(itvlStr)
	if err != nil {
		return 0, err
	}
	if interval <= 0 {
		return 0, errors.New("interval must be positive")
	}
	return interval, nil
}

func init() {
	RootCmd.AddCommand(everyCmd)
}
