package http

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"golang.org/x/net/html/charset"
)

// UnknownStatusText is reported for status codes without a reason phrase.
const UnknownStatusText = "Unknown"

var prettyOptions = &pretty.Options{
	Width:    0,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: true,
}

// Response is the success half of a request execution.
type Response struct {
	Status     int               `json:"status"`
	StatusText string            `json:"status_text"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	BodyPretty string            `json:"body_pretty"`
	// Milliseconds from request start to the end of the body read.
	ResponseTime int64 `json:"response_time"`
}

// Normalize reads resp to completion and shapes it into a Response. start is
// when the request began. The body is always closed.
func Normalize(start time.Time, resp *http.Response) (*Response, error) {
	defer resp.Body.Close()

	status := resp.StatusCode
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = UnknownStatusText
	}

	headers := flattenHeaders(resp.Header)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, bodyReadFailed(status, err)
	}
	body := decodeText(raw, resp.Header.Get("Content-Type"))

	elapsed := time.Since(start).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}

	return &Response{
		Status:       status,
		StatusText:   statusText,
		Headers:      headers,
		Body:         body,
		BodyPretty:   PrettyBody(body),
		ResponseTime: elapsed,
	}, nil
}

// flattenHeaders keeps one value per lower-cased header name. Values that are
// not visible ASCII are skipped; the last usable value wins.
func flattenHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for name, values := range h {
		key := strings.ToLower(name)
		for _, v := range values {
			if isVisibleASCII(v) {
				headers[key] = v
			}
		}
	}
	return headers
}

func isVisibleASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if (b < 0x20 || b >= 0x7f) && b != '\t' {
			return false
		}
	}
	return true
}

// decodeText converts raw to UTF-8 using the charset named in contentType,
// defaulting to UTF-8. Invalid sequences become U+FFFD.
func decodeText(raw []byte, contentType string) string {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if label := params["charset"]; label != "" {
			if enc, name := charset.Lookup(label); enc != nil && name != "utf-8" {
				if decoded, err := enc.NewDecoder().Bytes(raw); err == nil {
					return string(decoded)
				}
			}
		}
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), "�")
}

// PrettyBody re-indents body when it is JSON and returns it untouched
// otherwise.
func PrettyBody(body string) string {
	if !gjson.Valid(body) {
		return body
	}
	out := pretty.PrettyOptions([]byte(body), prettyOptions)
	return strings.TrimSuffix(string(out), "\n")
}

func (r *Response) BodyJSON() (any, error) {
	var result any
	if err := json.Unmarshal([]byte(r.Body), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Header looks up a response header ignoring case.
func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType(), "application/json")
}

func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r *Response) IsRedirect() bool {
	return r.Status >= 300 && r.Status < 400
}

func (r *Response) IsClientError() bool {
	return r.Status >= 400 && r.Status < 500
}

func (r *Response) IsServerError() bool {
	return r.Status >= 500
}

func (r *Response) Duration() time.Duration {
	return time.Duration(r.ResponseTime) * time.Millisecond
}
