package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/hitpost/packages/assertions"
	"github.com/abdul-hamid-achik/hitpost/packages/history"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool

	green  *color.Color
	yellow *color.Color
	red    *color.Color
	cyan   *color.Color
	gray   *color.Color
	bold   *color.Color
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.green = f.color(color.FgGreen)
	f.yellow = f.color(color.FgYellow)
	f.red = f.color(color.FgRed)
	f.cyan = f.color(color.FgCyan)
	f.gray = f.color(color.FgHiBlack)
	f.bold = f.color(color.Bold)
	return f
}

func (f *ConsoleFormatter) color(attr color.Attribute) *color.Color {
	c := color.New(attr)
	if f.noColor {
		c.DisableColor()
	}
	return c
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose prints response headers.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) statusColor(status int) *color.Color {
	switch StatusClass(status) {
	case "success":
		return f.green
	case "redirect":
		return f.yellow
	case "error":
		return f.red
	default:
		return f.gray
	}
}

// FormatResponse prints the status line, headers when verbose, and the
// pretty body.
func (f *ConsoleFormatter) FormatResponse(resp *http.Response) {
	status := f.statusColor(resp.Status).SprintFunc()
	fmt.Fprintf(f.writer, "%s  %s  %s\n",
		status(fmt.Sprintf("%d %s", resp.Status, resp.StatusText)),
		f.cyan.Sprint(FormatResponseTime(resp.ResponseTime)),
		f.gray.Sprint(FormatSize(int64(len(resp.Body)))))

	if f.verbose && len(resp.Headers) > 0 {
		keys := make([]string, 0, len(resp.Headers))
		for k := range resp.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(f.writer, "%s: %s\n", f.bold.Sprint(k), resp.Headers[k])
		}
	}

	if resp.BodyPretty != "" {
		fmt.Fprintf(f.writer, "\n%s\n", resp.BodyPretty)
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	e := http.AsError(err)
	if e == nil {
		return
	}
	red := f.red.SprintFunc()
	if e.Status != nil {
		fmt.Fprintf(f.writer, "%s %s %s\n", red("Error:"), e.Message, f.gray.Sprintf("(status %d)", *e.Status))
		return
	}
	fmt.Fprintf(f.writer, "%s %s\n", red("Error:"), e.Message)
}

func (f *ConsoleFormatter) FormatAssertions(results []*assertions.Result) {
	if len(results) == 0 {
		return
	}
	green := f.green.SprintFunc()
	red := f.red.SprintFunc()

	fmt.Fprintln(f.writer)
	passed, failed := 0, 0
	for _, r := range results {
		label := r.Subject + " " + r.Operator
		if r.Passed {
			passed++
			fmt.Fprintf(f.writer, "  %s %s\n", green("✓"), label)
			continue
		}
		failed++
		fmt.Fprintf(f.writer, "  %s %s\n", red("✗"), label)
		fmt.Fprintf(f.writer, "      Expected: %s\n", formatValue(r.Expected, 100))
		fmt.Fprintf(f.writer, "      Actual:   %s\n", formatValue(r.Actual, 100))
		if r.Message != "" {
			fmt.Fprintf(f.writer, "      %s\n", r.Message)
		}
	}

	fmt.Fprintf(f.writer, "\nAssertions: ")
	if passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", passed)))
	}
	if failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", failed)))
	}
	fmt.Fprintf(f.writer, "%d total\n", len(results))
}

func (f *ConsoleFormatter) FormatHistory(items []*history.Item) {
	if len(items) == 0 {
		fmt.Fprintln(f.writer, f.gray.Sprint("No history"))
		return
	}
	for _, item := range items {
		when := item.Time().Local().Format(time.DateTime)
		switch {
		case item.Response != nil:
			status := f.statusColor(item.Response.Status).Sprintf("%d %s", item.Response.Status, item.Response.StatusText)
			fmt.Fprintf(f.writer, "%s  %s  %s  %s\n", f.bold.Sprint(item.ID), f.gray.Sprint(when), status,
				f.cyan.Sprint(FormatResponseTime(item.Response.ResponseTime)))
		case item.Error != nil:
			fmt.Fprintf(f.writer, "%s  %s  %s\n", f.bold.Sprint(item.ID), f.gray.Sprint(when), f.red.Sprint(item.Error.Message))
		}
	}
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	fmt.Fprintf(f.writer, "%s %s\n", f.bold.Sprint("hitpost"), version)
}

func (f *ConsoleFormatter) Flush() error {
	return nil
}
