package form

import (
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedFormType is returned for any selector other than urlencoded
// or multipart.
var ErrUnsupportedFormType = errors.New("Unsupported form type")

// Type selects a form encoding.
type Type string

const (
	URLEncoded Type = "urlencoded"
	Multipart  Type = "multipart"
)

// Pair is a single decoded form field. Order and duplicates are preserved.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ParseFormType maps a selector string to a Type.
func ParseFormType(s string) (Type, error) {
	switch Type(s) {
	case URLEncoded, Multipart:
		return Type(s), nil
	default:
		return "", ErrUnsupportedFormType
	}
}

// ParseFormData parses formStr with the encoding named by formType.
func ParseFormData(formStr, formType string) ([]Pair, error) {
	t, err := ParseFormType(formType)
	if err != nil {
		return nil, err
	}
	return Parse(formStr, t)
}

// Parse parses raw with the given encoding.
func Parse(raw string, t Type) ([]Pair, error) {
	switch t {
	case URLEncoded:
		return ParseURLEncoded(raw), nil
	case Multipart:
		return ParseMultipart(raw), nil
	default:
		return nil, ErrUnsupportedFormType
	}
}

// ParseURLEncoded splits raw on '&', then each pair on the first '='.
// Pairs without '=' are dropped.
func ParseURLEncoded(raw string) []Pair {
	pairs := make([]Pair, 0)
	for _, part := range strings.Split(raw, "&") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		pairs = append(pairs, Pair{Key: decode(key), Value: decode(value)})
	}
	return pairs
}

// ParseMultipart reads one "key=value" per line, trimming whitespace around
// both halves. Lines without '=' are dropped.
func ParseMultipart(raw string) []Pair {
	pairs := make([]Pair, 0)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		pairs = append(pairs, Pair{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	return pairs
}

// Encode renders pairs as an application/x-www-form-urlencoded body, keeping
// their order.
func Encode(pairs []Pair) string {
	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

// decode percent-decodes s. '+' stays literal and a '%' not followed by two
// hex digits is kept as is. A result that is not valid UTF-8 becomes empty.
func decode(s string) string {
	if strings.IndexByte(s, '%') < 0 {
		return s
	}
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			buf = append(buf, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
			continue
		}
		buf = append(buf, s[i])
	}
	if !utf8.Valid(buf) {
		return ""
	}
	return string(buf)
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	default:
		return c - '0'
	}
}
