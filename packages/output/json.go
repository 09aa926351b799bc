package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/abdul-hamid-achik/hitpost/packages/assertions"
	"github.com/abdul-hamid-achik/hitpost/packages/history"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

// JSONResult is written when assertions accompany a response.
type JSONResult struct {
	Response   *http.Response       `json:"response,omitempty"`
	Error      *http.Error          `json:"error,omitempty"`
	Assertions []*assertions.Result `json:"assertions"`
	Passed     bool                 `json:"passed"`
}

// JSONFormatter writes one JSON document per command. A lone response or
// error is written in its wire shape, history as an array of items.
type JSONFormatter struct {
	writer     io.Writer
	response   *http.Response
	err        *http.Error
	assertions []*assertions.Result
	history    []*history.Item
	hasHistory bool
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResponse(resp *http.Response) {
	f.response = resp
}

func (f *JSONFormatter) FormatError(err error) {
	f.err = http.AsError(err)
}

func (f *JSONFormatter) FormatAssertions(results []*assertions.Result) {
	f.assertions = append(f.assertions, results...)
}

func (f *JSONFormatter) FormatHistory(items []*history.Item) {
	f.history = append(f.history, items...)
	f.hasHistory = true
}

// Flush writes the accumulated document. Nothing is written when nothing
// was formatted.
func (f *JSONFormatter) Flush() error {
	var doc any
	switch {
	case f.hasHistory:
		items := f.history
		if items == nil {
			items = []*history.Item{}
		}
		doc = items
	case len(f.assertions) > 0:
		doc = JSONResult{
			Response:   f.response,
			Error:      f.err,
			Assertions: f.assertions,
			Passed:     f.err == nil && assertions.AllPassed(f.assertions),
		}
	case f.err != nil:
		doc = f.err
	case f.response != nil:
		doc = f.response
	default:
		return nil
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(doc)
}
