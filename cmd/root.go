package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sommelier/searchbench"
	"github.com/sommelier/searchbench/logger"
	"github.com/sommelier/searchbench/sample/http"
	"github.com/sommelier/searchbench/types"
)

var (
	configFile   string
	storeResults bool
	printLogs    bool
	logFile      string
	noColor      bool
)

var (
	baseURL       string
	query         string
	limit         int
	attempts      int
	spacing       time.Duration
	timeout       time.Duration
	skipFinalWait bool
	threshold     time.Duration
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "searchbench",
	Short: "Compare the latency of the semantic and LLM search endpoints",
	Long: `searchbench sends the same search request to the semantic
(RAG) search endpoint and to the LLM search endpoint of a
running server, one request at a time, and prints the
latency of every call followed by a comparison summary.

By default it benchmarks http://localhost:4000. Use
--base-url to point it elsewhere, or --config/-c to load
a JSON file describing samplers, storage, notifiers and
exporters.

Running searchbench without any arguments performs a single
comparison and prints it to stdout. To store the results
of the run, use --store.

If an endpoint has no successful request, no summary is
printed and searchbench exits with a non-zero status.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			types.DisableColor()
		}
		if printLogs || logFile != "" {
			return logger.Enable(logFile, printLogs)
		}
		logger.Disable()
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := loadBench(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		if storeResults {
			return b.ReportAndStore(ctx)
		}
		return b.Report(ctx)
	},
}

// loadBench reads the config file if one is given. Otherwise it
// builds the default comparison from the command line flags.
func loadBench(cmd *cobra.Command) (searchbench.Bench, error) {
	var b searchbench.Bench
	if configFile != "" {
		configBytes, err := ioutil.ReadFile(configFile)
		if err != nil {
			return b, err
		}
		if err := json.Unmarshal(configBytes, &b); err != nil {
			return b, fmt.Errorf("%s: %w", configFile, err)
		}
	} else {
		b = searchbench.DefaultBench(baseURL, samplerFromFlags())
	}
	b.Out = cmd.OutOrStdout()

	if storeResults && b.Storage == nil {
		return b, errors.New("no storage configured")
	}
	return b, nil
}

func samplerFromFlags() http.Sampler {
	s := searchbench.DefaultSampler()
	s.Payload = types.Payload{Query: query, Limit: limit}
	s.Attempts = attempts
	s.AttemptSpacing = spacing
	s.SkipFinalSpacing = skipFinalWait
	s.Timeout = timeout
	s.ThresholdRTT = threshold
	return s
}

// signalContext is canceled on SIGINT or SIGTERM so a run
// stops at the next request or wait.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		logrus.WithError(err).Debug("command failed")
		fmt.Fprintln(os.Stderr, color.RedString("ERROR:"), err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "JSON config file (replaces the default endpoints)")
	RootCmd.PersistentFlags().BoolVar(&storeResults, "store", false, "Store results")
	RootCmd.PersistentFlags().BoolVar(&printLogs, "v", false, "Enable debug logging to standard error")
	RootCmd.PersistentFlags().StringVar(&logFile, "log", "", "Append JSON logs to this file")
	RootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	RootCmd.Flags().StringVar(&baseURL, "base-url", searchbench.DefaultBaseURL, "Base URL of the search server")
	RootCmd.Flags().StringVar(&query, "query", searchbench.DefaultQuery, "Search query sent to both endpoints")
	RootCmd.Flags().IntVar(&limit, "limit", searchbench.DefaultLimit, "Result limit sent to both endpoints")
	RootCmd.Flags().IntVar(&attempts, "attempts", searchbench.DefaultAttempts, "Requests per endpoint")
	RootCmd.Flags().DurationVar(&spacing, "spacing", searchbench.DefaultAttemptSpacing, "Wait after each request")
	RootCmd.Flags().DurationVar(&timeout, "timeout", http.DefaultTimeout, "Timeout of a single request")
	RootCmd.Flags().BoolVar(&skipFinalWait, "skip-final-wait", false, "Don't wait after the last request of an endpoint")
	RootCmd.Flags().DurationVar(&threshold, "threshold", 0, "Mean RTT above which an endpoint is degraded")
}
