// Package insomnia converts Insomnia v4 exports into hitpost collections.
package insomnia

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/hitpost/packages/collection"
	"github.com/abdul-hamid-achik/hitpost/packages/core/env"
	"github.com/abdul-hamid-achik/hitpost/packages/form"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

// Converter converts Insomnia exports to hitpost collections.
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

// NewConverter creates a new Insomnia converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Export represents an Insomnia export file.
type Export struct {
	Type         string     `json:"_type"`
	ExportFormat int        `json:"__export_format"`
	Resources    []Resource `json:"resources"`
}

// Resource represents an Insomnia resource (request, folder, environment, etc).
type Resource struct {
	ID             string         `json:"_id"`
	Type           string         `json:"_type"`
	ParentID       string         `json:"parentId"`
	Name           string         `json:"name"`
	Method         string         `json:"method,omitempty"`
	URL            string         `json:"url,omitempty"`
	Headers        []Parameter    `json:"headers,omitempty"`
	Body           *Body          `json:"body,omitempty"`
	Parameters     []Parameter    `json:"parameters,omitempty"`
	Authentication *Auth          `json:"authentication,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

// Parameter is a name/value pair used for headers, query and form params.
type Parameter struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Body represents an Insomnia request body.
type Body struct {
	MimeType string      `json:"mimeType,omitempty"`
	Text     string      `json:"text,omitempty"`
	Params   []Parameter `json:"params,omitempty"`
}

// Auth represents Insomnia authentication.
type Auth struct {
	Type           string `json:"type"`
	Disabled       bool   `json:"disabled,omitempty"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
	Token          string `json:"token,omitempty"`
	Prefix         string `json:"prefix,omitempty"`
	Key            string `json:"key,omitempty"`
	Value          string `json:"value,omitempty"`
	AddTo          string `json:"addTo,omitempty"`
	AccessTokenURL string `json:"accessTokenUrl,omitempty"`
	ClientID       string `json:"clientId,omitempty"`
	ClientSecret   string `json:"clientSecret,omitempty"`
	Scope          string `json:"scope,omitempty"`
}

// ConvertFile converts an Insomnia export file.
func (c *Converter) ConvertFile(path string) (*collection.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return c.Convert(data)
}

// Convert converts Insomnia export JSON into a collection. Nested request
// groups become folders named by their slash-joined path. The base
// environment becomes the globals; its sub-environments become environments.
func (c *Converter) Convert(data []byte) (*collection.Collection, error) {
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse Insomnia export: %w", err)
	}
	if export.Type != "" && export.Type != "export" {
		return nil, fmt.Errorf("not an Insomnia export: _type %q", export.Type)
	}

	folders := make(map[string]Resource)
	envs := make(map[string]Resource)
	var workspace string
	for _, res := range export.Resources {
		switch res.Type {
		case "request_group":
			folders[res.ID] = res
		case "environment":
			envs[res.ID] = res
		case "workspace":
			if workspace == "" {
				workspace = res.Name
			}
		}
	}

	coll := &collection.Collection{Name: workspace}
	c.convertEnvironments(coll, envs)

	for _, res := range export.Resources {
		if res.Type != "request" {
			continue
		}
		coll.Add(c.convertRequest(res), folderPath(res.ParentID, folders))
	}
	return coll, nil
}

func (c *Converter) convertEnvironments(coll *collection.Collection, envs map[string]Resource) {
	ids := make([]string, 0, len(envs))
	for id := range envs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		res := envs[id]
		if _, nested := envs[res.ParentID]; !nested {
			coll.Globals = append(coll.Globals, variables(res.Data)...)
			continue
		}
		coll.Environments = append(coll.Environments, env.Environment{
			ID:        collection.GenerateID("env"),
			Name:      res.Name,
			Variables: variables(res.Data),
		})
	}
}

func variables(data map[string]any) []env.Variable {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vars := make([]env.Variable, 0, len(keys))
	for _, k := range keys {
		var value string
		switch v := data[k].(type) {
		case string:
			value = v
		case nil:
			continue
		default:
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			value = string(b)
		}
		vars = append(vars, env.Variable{Key: k, Value: convertVariable(value), Enabled: true})
	}
	return vars
}

func (c *Converter) convertRequest(res Resource) collection.Item {
	method := strings.ToUpper(res.Method)
	if method == "" {
		method = "GET"
	}

	item := collection.Item{
		Name:    res.Name,
		Method:  method,
		URL:     convertVariable(res.URL),
		Timeout: c.timeout,
	}

	for _, h := range res.Headers {
		if strings.TrimSpace(h.Name) == "" {
			continue
		}
		item.Headers = append(item.Headers, collection.Header{
			Key:     h.Name,
			Value:   convertVariable(h.Value),
			Enabled: !h.Disabled,
		})
	}
	for _, p := range res.Parameters {
		item.Params = append(item.Params, http.Param{
			Key:     p.Name,
			Value:   convertVariable(p.Value),
			Enabled: !p.Disabled,
		})
	}

	convertBody(&item, res.Body)
	item.Auth = convertAuth(res.Authentication)
	return item
}

func convertBody(item *collection.Item, body *Body) {
	if body == nil {
		return
	}

	switch mime := strings.ToLower(body.MimeType); {
	case mime == "application/x-www-form-urlencoded":
		item.BodyType = string(http.BodyForm)
		item.FormSubtype = string(form.URLEncoded)
		parts := make([]string, 0, len(body.Params))
		for _, p := range enabledPairs(body.Params) {
			parts = append(parts, formEscaper.Replace(p.Key)+"="+formEscaper.Replace(p.Value))
		}
		item.Body = strings.Join(parts, "&")
	case mime == "multipart/form-data":
		item.BodyType = string(http.BodyForm)
		item.FormSubtype = string(form.Multipart)
		lines := make([]string, 0, len(body.Params))
		for _, p := range enabledPairs(body.Params) {
			lines = append(lines, p.Key+"="+p.Value)
		}
		item.Body = strings.Join(lines, "\n")
	case body.Text != "":
		item.BodyType = string(http.BodyText)
		item.Body = convertVariable(body.Text)
		item.TextSubtype = textSubtype(mime)
	}
}

func enabledPairs(params []Parameter) []form.Pair {
	pairs := make([]form.Pair, 0, len(params))
	for _, p := range params {
		if p.Disabled {
			continue
		}
		pairs = append(pairs, form.Pair{Key: p.Name, Value: convertVariable(p.Value)})
	}
	return pairs
}

func textSubtype(mime string) string {
	switch {
	case strings.Contains(mime, "json"):
		return "json"
	case strings.Contains(mime, "xml"):
		return "xml"
	case strings.Contains(mime, "yaml"):
		return "yaml"
	case strings.Contains(mime, "html"):
		return "html"
	default:
		return "raw"
	}
}

func convertAuth(auth *Auth) *http.Auth {
	if auth == nil || auth.Disabled {
		return nil
	}

	switch auth.Type {
	case "basic":
		if auth.Username == "" {
			return nil
		}
		return &http.Auth{
			Type:     http.AuthBasic,
			Username: convertVariable(auth.Username),
			Password: convertVariable(auth.Password),
		}
	case "bearer":
		if auth.Token == "" {
			return nil
		}
		return &http.Auth{
			Type:      http.AuthBearer,
			Token:     convertVariable(auth.Token),
			TokenType: auth.Prefix,
		}
	case "apikey":
		location := "header"
		if auth.AddTo == "queryParams" {
			location = "query"
		}
		return &http.Auth{
			Type:           http.AuthAPIKey,
			APIKeyName:     convertVariable(auth.Key),
			APIKey:         convertVariable(auth.Value),
			APIKeyLocation: location,
		}
	case "oauth2":
		return &http.Auth{
			Type:         http.AuthOAuth2,
			TokenURL:     convertVariable(auth.AccessTokenURL),
			ClientID:     convertVariable(auth.ClientID),
			ClientSecret: convertVariable(auth.ClientSecret),
			Scope:        auth.Scope,
		}
	default:
		return nil
	}
}

func folderPath(parentID string, folders map[string]Resource) string {
	var path []string
	seen := make(map[string]bool)
	for id := parentID; !seen[id]; {
		folder, ok := folders[id]
		if !ok {
			break
		}
		seen[id] = true
		path = append([]string{folder.Name}, path...)
		id = folder.ParentID
	}
	return strings.Join(path, "/")
}

// formEscaper escapes only the url-encoded delimiters so that placeholders
// survive until variables are resolved.
var formEscaper = strings.NewReplacer("%", "%25", "&", "%26", "=", "%3D")

var (
	underscoreVar = regexp.MustCompile(`\{\{\s*_\.([\w.-]+)\s*\}\}`)
	spacedVar     = regexp.MustCompile(`\{\{\s*([\w.-]+)\s*\}\}`)
)

// convertVariable rewrites Insomnia's {{ _.name }} and {{ name }} forms to
// {{name}}.
func convertVariable(s string) string {
	s = underscoreVar.ReplaceAllString(s, "{{$1}}")
	return spacedVar.ReplaceAllString(s, "{{$1}}")
}
