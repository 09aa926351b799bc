// Package curl converts curl command lines into hitpost requests.
package curl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitpost/packages/collection"
	"github.com/abdul-hamid-achik/hitpost/packages/form"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

// Converter converts curl commands to hitpost requests.
type Converter struct {
	timeout uint64
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithTimeout sets the timeout, in milliseconds, of converted requests.
func WithTimeout(ms uint64) Option {
	return func(c *Converter) {
		c.timeout = ms
	}
}

// NewConverter creates a new curl converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParsedCurl represents a parsed curl command.
type ParsedCurl struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            string
	BodyType        http.BodyType
	FormSubtype     string
	BasicAuth       string
	Insecure        bool
	FollowRedirects bool
	Name            string

	data       []string
	urlencoded []form.Pair
	multipart  []string
	methodSet  bool
}

// ConvertCommand converts a single curl command into a saved request.
func (c *Converter) ConvertCommand(curlCmd string) (*collection.Item, error) {
	parsed, err := c.Parse(curlCmd)
	if err != nil {
		return nil, err
	}
	return c.ToItem(parsed), nil
}

// ConvertFile converts a file of curl commands, one per line with
// backslash continuations, into saved requests.
func (c *Converter) ConvertFile(path string) ([]*collection.Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return c.ConvertReader(file)
}

// ConvertReader is ConvertFile over an arbitrary reader.
func (c *Converter) ConvertReader(r io.Reader) ([]*collection.Item, error) {
	var commands []string
	var currentCmd strings.Builder
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasSuffix(line, "\\") {
			currentCmd.WriteString(strings.TrimSuffix(line, "\\"))
			currentCmd.WriteString(" ")
			continue
		}

		currentCmd.WriteString(line)
		commands = append(commands, currentCmd.String())
		currentCmd.Reset()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if currentCmd.Len() > 0 {
		commands = append(commands, currentCmd.String())
	}

	items := make([]*collection.Item, 0, len(commands))
	for i, cmd := range commands {
		item, err := c.ConvertCommand(cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to convert command %d: %w", i+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Parse parses a curl command string into a ParsedCurl struct.
func (c *Converter) Parse(curlCmd string) (*ParsedCurl, error) {
	parsed := &ParsedCurl{
		Method:   "GET",
		Headers:  make(map[string]string),
		BodyType: http.BodyNone,
	}

	curlCmd = strings.TrimSpace(curlCmd)
	if curlCmd == "curl" {
		return nil, fmt.Errorf("no URL specified")
	}
	curlCmd = strings.TrimPrefix(curlCmd, "curl ")

	tokens := tokenize(curlCmd)

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		value := func() (string, error) {
			if i+1 >= len(tokens) {
				return "", fmt.Errorf("missing value for %s", token)
			}
			i++
			return tokens[i], nil
		}

		switch token {
		case "-X", "--request":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.Method = strings.ToUpper(v)
			parsed.methodSet = true

		case "-H", "--header":
			v, err := value()
			if err != nil {
				return nil, err
			}
			if key, val, ok := strings.Cut(v, ":"); ok {
				parsed.Headers[strings.TrimSpace(key)] = strings.TrimSpace(val)
			}

		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.data = append(parsed.data, v)

		case "--json":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.data = append(parsed.data, v)
			setDefaultHeader(parsed.Headers, "Content-Type", "application/json")
			setDefaultHeader(parsed.Headers, "Accept", "application/json")

		case "--data-urlencode":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.urlencoded = append(parsed.urlencoded, urlencodedPair(v))

		case "-F", "--form", "--form-string":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.multipart = append(parsed.multipart, v)

		case "-u", "--user":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.BasicAuth = v

		case "-A", "--user-agent":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.Headers["User-Agent"] = v

		case "-e", "--referer":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.Headers["Referer"] = v

		case "-b", "--cookie":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.Headers["Cookie"] = v

		case "--url":
			v, err := value()
			if err != nil {
				return nil, err
			}
			parsed.URL = v

		case "-I", "--head":
			parsed.Method = "HEAD"
			parsed.methodSet = true

		case "-k", "--insecure":
			parsed.Insecure = true

		case "-L", "--location":
			parsed.FollowRedirects = true

		default:
			if strings.HasPrefix(token, "-") {
				// Skip unknown flags with potential values
				if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
					i++
				}
				continue
			}
			if parsed.URL == "" && isURL(token) {
				parsed.URL = token
			}
		}
	}

	if parsed.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}

	parsed.buildBody()
	parsed.Name = generateName(parsed.URL, parsed.Method)

	return parsed, nil
}

// buildBody picks the body kind from the data flags seen. Multipart wins
// over url-encoded pairs, which win over raw data.
func (p *ParsedCurl) buildBody() {
	switch {
	case len(p.multipart) > 0:
		p.BodyType = http.BodyForm
		p.FormSubtype = string(form.Multipart)
		p.Body = strings.Join(p.multipart, "\n")
	case len(p.urlencoded) > 0:
		p.BodyType = http.BodyForm
		p.FormSubtype = string(form.URLEncoded)
		pairs := p.urlencoded
		for _, d := range p.data {
			pairs = append(pairs, urlencodedPair(d))
		}
		p.Body = joinPairs(pairs)
	case len(p.data) > 0:
		p.BodyType = http.BodyText
		p.Body = strings.Join(p.data, "&")
		setDefaultHeader(p.Headers, "Content-Type", "application/x-www-form-urlencoded")
	default:
		return
	}

	if !p.methodSet {
		p.Method = "POST"
	}
}

// TextSubtype guesses the editor subtype from the Content-Type header.
func (p *ParsedCurl) TextSubtype() string {
	if p.BodyType != http.BodyText {
		return ""
	}
	for k, v := range p.Headers {
		if !strings.EqualFold(k, "Content-Type") {
			continue
		}
		switch v = strings.ToLower(v); {
		case strings.Contains(v, "json"):
			return "json"
		case strings.Contains(v, "xml"):
			return "xml"
		case strings.Contains(v, "yaml"):
			return "yaml"
		}
	}
	return "raw"
}

// ToWire converts a ParsedCurl into a wire request.
func (c *Converter) ToWire(parsed *ParsedCurl) http.WireRequest {
	return c.ToItem(parsed).Wire()
}

// ToItem converts a ParsedCurl into a saved request. -u becomes basic auth.
func (c *Converter) ToItem(parsed *ParsedCurl) *collection.Item {
	item := &collection.Item{
		Name:        parsed.Name,
		Method:      parsed.Method,
		URL:         parsed.URL,
		Body:        parsed.Body,
		BodyType:    string(parsed.BodyType),
		TextSubtype: parsed.TextSubtype(),
		FormSubtype: parsed.FormSubtype,
		Timeout:     c.timeout,
	}

	for _, key := range sortedKeys(parsed.Headers) {
		item.Headers = append(item.Headers, collection.Header{Key: key, Value: parsed.Headers[key], Enabled: true})
	}

	if parsed.BasicAuth != "" {
		user, pass, _ := strings.Cut(parsed.BasicAuth, ":")
		item.Auth = &http.Auth{Type: http.AuthBasic, Username: user, Password: pass}
	}
	return item
}

// tokenize splits a curl command into tokens, respecting quotes.
func tokenize(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inSingleQuote {
				current.WriteRune(r)
			} else {
				escaped = true
			}
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t', '\n':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// isURL checks if a string looks like a URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "{{")
}

var urlPattern = regexp.MustCompile(`https?://[^/]+(/[^?#]*)?`)

// generateName generates a request name from the URL and method.
func generateName(url, method string) string {
	path := "/"
	if matches := urlPattern.FindStringSubmatch(url); len(matches) > 1 && matches[1] != "" {
		path = matches[1]
	}

	path = strings.Trim(path, "/")
	if path == "" {
		path = "root"
	}
	path = strings.NewReplacer("/", "_", "-", "_").Replace(path)

	return strings.ToLower(method) + "_" + path
}
