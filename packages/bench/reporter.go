package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Reporter handles output for bench runs
type Reporter struct {
	writer     io.Writer
	noColor    bool
	noProgress bool
	verbose    bool

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
}

// ReporterOption configures the reporter
type ReporterOption func(*Reporter)

// WithWriter sets the output writer
func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		r.writer = w
	}
}

// WithNoColor disables colored output
func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		r.noColor = noColor
	}
}

// WithNoProgress disables real-time progress display
func WithNoProgress(noProgress bool) ReporterOption {
	return func(r *Reporter) {
		r.noProgress = noProgress
	}
}

// WithVerbose adds error messages to the summary
func WithVerbose(verbose bool) ReporterOption {
	return func(r *Reporter) {
		r.verbose = verbose
	}
}

// NewReporter creates a new reporter
func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{
		writer: os.Stdout,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.green = newColor(r.noColor, color.FgGreen)
	r.red = newColor(r.noColor, color.FgRed)
	r.yellow = newColor(r.noColor, color.FgYellow)
	r.cyan = newColor(r.noColor, color.FgCyan)
	r.bold = newColor(r.noColor, color.Bold)

	return r
}

func newColor(noColor bool, attr color.Attribute) *color.Color {
	c := color.New(attr)
	if noColor {
		c.DisableColor()
	}
	return c
}

// Header prints the run header
func (r *Reporter) Header(target string, config *Config) {
	fmt.Fprintln(r.writer)
	if target != "" {
		r.cyan.Fprintf(r.writer, "Benchmarking: %s\n", target)
	}

	var details []string
	if config.Requests > 0 {
		details = append(details, fmt.Sprintf("Requests: %d", config.Requests))
	}
	if config.Duration > 0 {
		details = append(details, fmt.Sprintf("Duration: %s", config.Duration))
	}
	if config.Rate > 0 {
		details = append(details, fmt.Sprintf("Rate: %.0f req/s", config.Rate))
	} else {
		details = append(details, "Rate: unthrottled")
	}
	details = append(details, fmt.Sprintf("Concurrency: %d", config.Concurrency))

	fmt.Fprintf(r.writer, "%s\n", strings.Join(details, " | "))
	fmt.Fprintln(r.writer)
}

// Progress prints a single updating progress line
func (r *Reporter) Progress(stats CurrentStats, config *Config) {
	if r.noProgress {
		return
	}

	fmt.Fprint(r.writer, "\r\033[K")

	if config.Requests > 0 {
		fmt.Fprintf(r.writer, "%s/%s requests", formatNumber(stats.Total), formatNumber(int64(config.Requests)))
	} else {
		fmt.Fprintf(r.writer, "%s / %s, %s requests", formatDuration(stats.Elapsed), formatDuration(config.Duration), formatNumber(stats.Total))
	}
	fmt.Fprintf(r.writer, " | %.1f req/s | p50 %s | p99 %s | in flight %d",
		stats.RPS, formatLatency(stats.P50), formatLatency(stats.P99), stats.InFlight)
	if stats.Errors > 0 {
		r.red.Fprintf(r.writer, " | %s errors", formatNumber(stats.Errors))
	}
}

// ClearProgress clears the progress line
func (r *Reporter) ClearProgress() {
	if r.noProgress {
		return
	}
	fmt.Fprint(r.writer, "\r\033[K")
}

// Summary prints the final summary
func (r *Reporter) Summary(summary *Summary, thresholdResults []ThresholdResult) {
	r.bold.Fprintln(r.writer, "BENCH SUMMARY")
	fmt.Fprintln(r.writer, strings.Repeat("─", 40))

	fmt.Fprintf(r.writer, "Duration:   %s\n", formatDuration(summary.Duration))
	fmt.Fprintf(r.writer, "Total:      ")
	r.bold.Fprintf(r.writer, "%s", formatNumber(summary.TotalRequests))
	fmt.Fprintf(r.writer, " requests (%.1f req/s)\n", summary.RPS)

	fmt.Fprintf(r.writer, "Success:    ")
	r.green.Fprintf(r.writer, "%s", formatNumber(summary.SuccessCount))
	fmt.Fprintf(r.writer, " (%.1f%%)\n", summary.SuccessRate*100)

	fmt.Fprintf(r.writer, "Failed:     ")
	if summary.ErrorCount > 0 {
		r.red.Fprintf(r.writer, "%s", formatNumber(summary.ErrorCount))
	} else {
		fmt.Fprintf(r.writer, "%s", formatNumber(summary.ErrorCount))
	}
	fmt.Fprintf(r.writer, " (%.1f%%)\n", summary.ErrorRate*100)

	if summary.TimeoutCount > 0 {
		fmt.Fprintf(r.writer, "Timeouts:   ")
		r.yellow.Fprintf(r.writer, "%s\n", formatNumber(summary.TimeoutCount))
	}

	if len(summary.StatusCounts) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "STATUS CODES")
		for _, sc := range summary.StatusCounts {
			c := r.green
			switch {
			case sc.Status >= 400:
				c = r.red
			case sc.Status >= 300:
				c = r.yellow
			}
			fmt.Fprint(r.writer, "  ")
			c.Fprintf(r.writer, "%d", sc.Status)
			fmt.Fprintf(r.writer, ": %s\n", formatNumber(sc.Count))
		}
	}

	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "LATENCY (ms)")
	fmt.Fprintf(r.writer, "  p50: %-6s | p90: %-6s | p95: %-6s | p99: %s\n",
		formatLatencyMs(summary.P50),
		formatLatencyMs(summary.P90),
		formatLatencyMs(summary.P95),
		formatLatencyMs(summary.P99))
	fmt.Fprintf(r.writer, "  min: %-6s | max: %-6s | mean: %-5s | stddev: %s\n",
		formatLatencyMs(summary.Min),
		formatLatencyMs(summary.Max),
		formatLatencyMs(summary.Mean),
		formatLatencyMs(summary.StdDev))

	if r.verbose && len(summary.ErrorCounts) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "ERRORS")
		messages := make([]string, 0, len(summary.ErrorCounts))
		for msg := range summary.ErrorCounts {
			messages = append(messages, msg)
		}
		sort.Strings(messages)
		for _, msg := range messages {
			fmt.Fprintf(r.writer, "  %s x%s\n", msg, formatNumber(summary.ErrorCounts[msg]))
		}
	}

	if len(thresholdResults) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "THRESHOLDS")
		allPassed := true
		for _, tr := range thresholdResults {
			if tr.Passed {
				r.green.Fprintf(r.writer, "  ✓ ")
			} else {
				r.red.Fprintf(r.writer, "  ✗ ")
				allPassed = false
			}
			fmt.Fprintf(r.writer, "%s %s    (actual: %s)\n", tr.Name, tr.Expected, tr.Actual)
		}

		fmt.Fprintln(r.writer)
		if allPassed {
			r.green.Fprintln(r.writer, "All thresholds passed!")
		} else {
			r.red.Fprintln(r.writer, "Some thresholds failed!")
		}
	}

	fmt.Fprintln(r.writer)
}

type jsonSummary struct {
	Duration   string            `json:"duration"`
	Requests   jsonRequests      `json:"requests"`
	Rates      jsonRates         `json:"rates"`
	Latency    jsonLatency       `json:"latency"`
	Statuses   []StatusCount     `json:"statuses"`
	Errors     map[string]int64  `json:"errors,omitempty"`
	Thresholds []ThresholdResult `json:"thresholds,omitempty"`
}

type jsonRequests struct {
	Total    int64 `json:"total"`
	Success  int64 `json:"success"`
	Failed   int64 `json:"failed"`
	Timeouts int64 `json:"timeouts"`
}

type jsonRates struct {
	RPS         float64 `json:"rps"`
	SuccessRate float64 `json:"successRate"`
	ErrorRate   float64 `json:"errorRate"`
}

// Latency values are milliseconds.
type jsonLatency struct {
	P50    int64 `json:"p50"`
	P90    int64 `json:"p90"`
	P95    int64 `json:"p95"`
	P99    int64 `json:"p99"`
	Min    int64 `json:"min"`
	Max    int64 `json:"max"`
	Mean   int64 `json:"mean"`
	StdDev int64 `json:"stddev"`
}

// JSONSummary outputs the summary as JSON
func (r *Reporter) JSONSummary(summary *Summary, thresholdResults []ThresholdResult) error {
	out := jsonSummary{
		Duration: summary.Duration.String(),
		Requests: jsonRequests{
			Total:    summary.TotalRequests,
			Success:  summary.SuccessCount,
			Failed:   summary.ErrorCount,
			Timeouts: summary.TimeoutCount,
		},
		Rates: jsonRates{
			RPS:         summary.RPS,
			SuccessRate: summary.SuccessRate,
			ErrorRate:   summary.ErrorRate,
		},
		Latency: jsonLatency{
			P50:    summary.P50.Milliseconds(),
			P90:    summary.P90.Milliseconds(),
			P95:    summary.P95.Milliseconds(),
			P99:    summary.P99.Milliseconds(),
			Min:    summary.Min.Milliseconds(),
			Max:    summary.Max.Milliseconds(),
			Mean:   summary.Mean.Milliseconds(),
			StdDev: summary.StdDev.Milliseconds(),
		},
		Statuses:   summary.StatusCounts,
		Thresholds: thresholdResults,
	}
	if out.Statuses == nil {
		out.Statuses = []StatusCount{}
	}
	if len(summary.ErrorCounts) > 0 {
		out.Errors = summary.ErrorCounts
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %02ds", minutes, seconds)
}

func formatLatency(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dμs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatLatencyMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000
	if ms < 1 {
		return fmt.Sprintf("%.2f", ms)
	}
	if ms < 10 {
		return fmt.Sprintf("%.1f", ms)
	}
	return fmt.Sprintf("%.0f", ms)
}

// formatNumber formats a number with commas
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 1000 {
		return s
	}

	result := make([]byte, 0, len(s)+(len(s)-1)/3)
	start := len(s) % 3
	if start == 0 {
		start = 3
	}

	result = append(result, s[:start]...)
	for i := start; i < len(s); i += 3 {
		result = append(result, ',')
		result = append(result, s[i:i+3]...)
	}

	return string(result)
}
