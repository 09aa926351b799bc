package http

import (
	"math"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout applies when a request carries no timeout of its own.
const DefaultTimeout = 30 * time.Second

// BodyType names a body encoding as it appears on the wire.
type BodyType string

const (
	BodyNone    BodyType = "none"
	BodyText    BodyType = "text"
	BodyGraphQL BodyType = "graphql"
	BodyForm    BodyType = "form"
	BodyBinary  BodyType = "binary"
)

// FormSubtype values understood by FormBody. Anything else is sent verbatim.
const (
	FormURLEncoded = "urlencoded"
	FormMultipart  = "multipart"
)

// Body is the payload of a Request. It is one of NoBody, TextBody, FormBody
// or BinaryBody.
type Body interface {
	Type() BodyType
	isBody()
}

// NoBody sends nothing.
type NoBody struct{}

func (NoBody) Type() BodyType { return BodyNone }
func (NoBody) isBody() {}

// TextBody is sent verbatim. Kind is text, graphql, or an unrecognized body
// type that falls back to text.
type TextBody struct {
	Kind    BodyType
	Content string
}

func (b TextBody) Type() BodyType {
	if b.Kind == "" {
		return BodyText
	}
	return b.Kind
}

func (TextBody) isBody() {}

// FormBody holds key/value text in the encoding named by Subtype.
type FormBody struct {
	Subtype string
	Content string
}

func (FormBody) Type() BodyType { return BodyForm }
func (FormBody) isBody() {}

// BinaryBody holds base64 encoded bytes.
type BinaryBody struct {
	Data string
}

func (BinaryBody) Type() BodyType { return BodyBinary }
func (BinaryBody) isBody() {}

// Request is an abstract HTTP request.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    Body
	// Zero means DefaultTimeout.
	Timeout time.Duration
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
		Body:    NoBody{},
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body Body) *Request {
	r.Body = body
	return r
}

func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

// HasHeader reports whether a header was supplied, ignoring key case.
func (r *Request) HasHeader(key string) bool {
	for k := range r.Headers {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// EffectiveTimeout returns the timeout to enforce for r.
func (r *Request) EffectiveTimeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

// WireRequest is the loosely typed request shape exchanged with callers over
// JSON or YAML. Convert it once with Request.
type WireRequest struct {
	Method      string            `json:"method" yaml:"method"`
	URL         string            `json:"url" yaml:"url"`
	Headers     map[string]string `json:"headers" yaml:"headers,omitempty"`
	Body        *string           `json:"body,omitempty" yaml:"body,omitempty"`
	BodyType    *string           `json:"body_type,omitempty" yaml:"body_type,omitempty"`
	TextSubtype *string           `json:"text_subtype,omitempty" yaml:"text_subtype,omitempty"`
	FormSubtype *string           `json:"form_subtype,omitempty" yaml:"form_subtype,omitempty"`
	BinaryData  *string           `json:"binary_data,omitempty" yaml:"binary_data,omitempty"`
	// Milliseconds.
	Timeout *uint64 `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Request converts w into a Request. A body type whose payload is missing
// becomes NoBody.
func (w WireRequest) Request() *Request {
	headers := make(map[string]string, len(w.Headers))
	for k, v := range w.Headers {
		headers[k] = v
	}

	r := &Request{
		Method:  w.Method,
		URL:     w.URL,
		Headers: headers,
		Body:    w.body(),
		Timeout: DefaultTimeout,
	}
	if w.Timeout != nil {
		r.Timeout = wireTimeout(*w.Timeout)
	}
	return r
}

// maxTimeoutMs is the largest millisecond count a time.Duration can hold.
const maxTimeoutMs = uint64(math.MaxInt64 / int64(time.Millisecond))

// wireTimeout converts a millisecond timeout, saturating instead of
// overflowing. Zero keeps its meaning on Request: use DefaultTimeout.
func wireTimeout(ms uint64) time.Duration {
	if ms > maxTimeoutMs {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}

func (w WireRequest) body() Body {
	switch bodyType := BodyType(deref(w.BodyType, string(BodyNone))); bodyType {
	case BodyNone:
		return NoBody{}
	case BodyForm:
		if w.Body == nil {
			return NoBody{}
		}
		return FormBody{Subtype: deref(w.FormSubtype, FormURLEncoded), Content: *w.Body}
	case BodyBinary:
		if w.BinaryData == nil {
			return NoBody{}
		}
		return BinaryBody{Data: *w.BinaryData}
	default:
		if w.Body == nil {
			return NoBody{}
		}
		return TextBody{Kind: bodyType, Content: *w.Body}
	}
}

// Wire converts r back into its wire shape.
func (r *Request) Wire() WireRequest {
	w := WireRequest{
		Method:  r.Method,
		URL:     r.URL,
		Headers: r.Headers,
	}
	ms := uint64(r.EffectiveTimeout().Milliseconds())
	w.Timeout = &ms

	body := r.Body
	if body == nil {
		body = NoBody{}
	}
	bodyType := string(body.Type())
	w.BodyType = &bodyType

	switch b := body.(type) {
	case TextBody:
		w.Body = &b.Content
	case FormBody:
		w.Body = &b.Content
		w.FormSubtype = &b.Subtype
	case BinaryBody:
		w.BinaryData = &b.Data
	}
	return w
}

func deref(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

// Param is a query parameter attached to a saved request.
type Param struct {
	Key     string `json:"key" yaml:"key"`
	Value   string `json:"value" yaml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// BuildURL appends the enabled params with a non-blank key to rawURL.
// An unparsable URL is returned unchanged.
func BuildURL(rawURL string, params []Param) string {
	var active []Param
	for _, p := range params {
		if p.Enabled && strings.TrimSpace(p.Key) != "" {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	for _, p := range active {
		q.Add(p.Key, p.Value)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
