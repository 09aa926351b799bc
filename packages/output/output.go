package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/hitpost/packages/assertions"
	"github.com/abdul-hamid-achik/hitpost/packages/history"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

// Formatter renders the results of a command.
type Formatter interface {
	FormatResponse(resp *http.Response)
	FormatError(err error)
	FormatAssertions(results []*assertions.Result)
	FormatHistory(items []*history.Item)
	Flush() error
}

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options are shared by every formatter.
type Options struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
}

// New returns the formatter registered under name.
func New(name string, opts Options) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", FormatConsole:
		consoleOpts := []ConsoleOption{WithVerbose(opts.Verbose), WithNoColor(opts.NoColor)}
		if opts.Writer != nil {
			consoleOpts = append(consoleOpts, WithWriter(opts.Writer))
		}
		return NewConsoleFormatter(consoleOpts...), nil
	case FormatJSON:
		var jsonOpts []JSONOption
		if opts.Writer != nil {
			jsonOpts = append(jsonOpts, JSONWithWriter(opts.Writer))
		}
		return NewJSONFormatter(jsonOpts...), nil
	default:
		return nil, fmt.Errorf("unknown output format: %q (use console or json)", name)
	}
}

// FormatResponseTime renders milliseconds as "Nms" below a second, seconds
// with two decimals below a minute, and minutes with two decimals beyond.
func FormatResponseTime(ms int64) string {
	switch {
	case ms < 1000:
		return strconv.FormatInt(ms, 10) + "ms"
	case ms < 60000:
		return fmt.Sprintf("%.2fs", float64(ms)/1000)
	default:
		return fmt.Sprintf("%.2fm", float64(ms)/60000)
	}
}

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders a byte count in binary units with at most two decimals.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return strconv.FormatFloat(roundTo2(value), 'f', -1, 64) + " " + sizeUnits[unit]
}

func roundTo2(f float64) float64 {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	r, _ := strconv.ParseFloat(s, 64)
	return r
}

// StatusClass names the color class of a status code: success, redirect,
// error or unknown.
func StatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "success"
	case status >= 300 && status < 400:
		return "redirect"
	case status >= 400:
		return "error"
	default:
		return "unknown"
	}
}

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	case string:
		if len(val) > maxLen {
			return strconv.Quote(val[:maxLen]) + "..."
		}
		return strconv.Quote(val)
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}
