// Package extract pulls single values out of a response for scripting.
package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

// ErrNotJSON is returned when a body path is queried on a non-JSON body.
var ErrNotJSON = errors.New("response body is not JSON")

// ErrNoMatch is returned when the query selects nothing.
var ErrNoMatch = errors.New("query matched nothing")

// Query evaluates expr against resp. Besides gjson paths over the body
// (including modifiers such as @pretty and #(...) filters), it accepts
// "status", "status_text", "response_time" and "header <name>".
// Strings are returned unquoted; other JSON values as raw JSON.
func Query(resp *http.Response, expr string) (string, error) {
	expr = strings.TrimSpace(expr)

	switch {
	case expr == "status":
		return strconv.Itoa(resp.Status), nil
	case expr == "status_text":
		return resp.StatusText, nil
	case expr == "response_time":
		return strconv.FormatInt(resp.ResponseTime, 10), nil
	case strings.HasPrefix(expr, "header "):
		name := strings.TrimSpace(strings.TrimPrefix(expr, "header "))
		v := resp.Header(name)
		if v == "" {
			return "", fmt.Errorf("%w: header %s", ErrNoMatch, name)
		}
		return v, nil
	}

	path := expr
	if path == "body" || strings.HasPrefix(path, "body.") {
		path = strings.TrimPrefix(strings.TrimPrefix(path, "body"), ".")
	}
	if !gjson.Valid(resp.Body) {
		return "", ErrNotJSON
	}
	if path == "" {
		return resp.Body, nil
	}

	result := gjson.Get(resp.Body, path)
	if !result.Exists() {
		return "", fmt.Errorf("%w: %s", ErrNoMatch, expr)
	}
	if result.Type == gjson.String {
		return result.Str, nil
	}
	return result.Raw, nil
}

// QueryAll evaluates every expression, stopping at the first failure.
func QueryAll(resp *http.Response, exprs []string) ([]string, error) {
	out := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		v, err := Query(resp, expr)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
