package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitpost/packages/bench"
	"github.com/abdul-hamid-achik/hitpost/packages/output"
)

var (
	benchReq            requestFlags
	benchRequestsFlag   int
	benchDurationFlag   time.Duration
	benchRateFlag       float64
	benchConcurrentFlag int
	benchThresholdFlag  string
	benchNoProgressFlag bool
	benchVerboseFlag    bool
	benchOutputFlag     string
)

var benchCmd = &cobra.Command{
	Use:   "bench <url|request>",
	Short: "Send a request repeatedly and report latency",
	Long: `Send one request many times and report latency percentiles, throughput
and status code counts.

The run ends after -n requests, after --duration, or at whichever comes first
when both are given. Responses with a status of 400 or above count as errors.

Threshold format: comma-separated list of conditions
  p50<100ms, p95<200ms, p99<500ms, max<1s, errors<1%, rps>100

Examples:
  hitpost bench https://httpbin.org/get -n 200 -c 20
  hitpost bench "List users" --duration 30s --rate 50
  hitpost bench "List users" -n 1000 --threshold "p95<200ms,errors<1%"
  hitpost bench https://httpbin.org/get -n 50 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: benchCommand,
}

func init() {
	benchReq.register(benchCmd)
	benchCmd.Flags().IntVarP(&benchRequestsFlag, "requests", "n", 100, "Number of requests to send (0 to run for --duration)")
	benchCmd.Flags().DurationVar(&benchDurationFlag, "duration", 0, "Maximum run time (e.g. 30s, 1m)")
	benchCmd.Flags().Float64Var(&benchRateFlag, "rate", 0, "Requests per second (0 for unthrottled)")
	benchCmd.Flags().IntVarP(&benchConcurrentFlag, "concurrency", "C", 10, "Maximum requests in flight")
	benchCmd.Flags().StringVar(&benchThresholdFlag, "threshold", "", "Pass/fail thresholds (e.g. 'p95<200ms,errors<1%')")
	benchCmd.Flags().BoolVar(&benchNoProgressFlag, "no-progress", false, "Hide the progress line")
	benchCmd.Flags().BoolVarP(&benchVerboseFlag, "verbose", "v", false, "List error messages in the summary")
	benchCmd.Flags().StringVarP(&benchOutputFlag, "output", "o", getEnvString("HITPOST_OUTPUT", ""), "Output format: console or json (env: HITPOST_OUTPUT)")
}

func benchCommand(cmd *cobra.Command, args []string) error {
	cfg := &bench.Config{
		Requests:    benchRequestsFlag,
		Duration:    benchDurationFlag,
		Rate:        benchRateFlag,
		Concurrency: benchConcurrentFlag,
	}
	if benchThresholdFlag != "" {
		thresholds, err := bench.ParseThresholds(benchThresholdFlag)
		if err != nil {
			return withExit(ExitUsageError, fmt.Errorf("invalid threshold: %w", err))
		}
		cfg.Thresholds = thresholds
	}
	if err := cfg.Validate(); err != nil {
		return withExit(ExitUsageError, err)
	}

	format := strings.ToLower(outputFormat(benchOutputFlag))
	if format != output.FormatConsole && format != output.FormatJSON && format != "" {
		return withExit(ExitUsageError, fmt.Errorf("unknown output format: %q (use console or json)", format))
	}
	jsonOutput := format == output.FormatJSON

	w, _, err := benchReq.build(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	req := w.Request()

	// Progress goes to stderr so JSON on stdout stays parseable.
	progress := bench.NewReporter(
		bench.WithWriter(cmd.ErrOrStderr()),
		bench.WithNoColor(settings.GetNoColor()),
		bench.WithNoProgress(benchNoProgressFlag),
	)
	summary := bench.NewReporter(
		bench.WithWriter(cmd.OutOrStdout()),
		bench.WithNoColor(settings.GetNoColor()),
		bench.WithVerbose(benchVerboseFlag),
	)

	runner := bench.NewRunner(cfg, bench.ClientExecutor(benchReq.newClient(), req),
		bench.WithReporter(progress),
		bench.WithLogger(slog.Default()),
		bench.WithTarget(req.Method+" "+req.URL),
	)

	result, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := summary.JSONSummary(result.Summary, result.Thresholds); err != nil {
			return err
		}
	} else {
		summary.Summary(result.Summary, result.Thresholds)
	}

	if result.HasThresholdFailures() {
		return exitSilently(ExitTestFailure)
	}
	return nil
}
