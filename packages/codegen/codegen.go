package codegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

// Template is a named snippet generator.
type Template struct {
	ID       string
	Name     string
	Language string
	// NoURL is emitted instead of the snippet when the URL is blank.
	NoURL string
	tmpl  *template.Template
}

// Header is one header line of a snippet.
type Header struct {
	Key   string
	Value string
}

// snippet is the data handed to templates.
type snippet struct {
	Method  string
	URL     string
	Headers []Header
	Body    string
	HasBody bool
}

var funcs = template.FuncMap{
	"shell":    escapeShell,
	"json":     escapeJSON,
	"lower":    strings.ToLower,
	"pyDict":   pythonDict,
	"backtick": goRawString,
}

var templates = []*Template{
	{
		ID: "curl", Name: "Shell - cURL", Language: "shell",
		NoURL: `echo "NO URL AVAILABLE"`,
		tmpl: template.Must(template.New("curl").Funcs(funcs).Parse(
			`curl --request {{.Method}} \
  --url '{{.URL}}'
{{- range .Headers}} \
  --header '{{.Key}}: {{shell .Value}}'
{{- end}}
{{- if .HasBody}} \
  --data '{{shell .Body}}'
{{- end}}`)),
	},
	{
		ID: "go", Name: "Go", Language: "go",
		NoURL: `fmt.Println("NO URL AVAILABLE")`,
		tmpl: template.Must(template.New("go").Funcs(funcs).Parse(
			`package main

import (
	"fmt"
	"net/http"
{{- if .HasBody}}
	"strings"
{{- end}}
)

func main() {
{{- if .HasBody}}
	payload := strings.NewReader({{backtick .Body}})
	req, _ := http.NewRequest("{{.Method}}", "{{json .URL}}", payload)
{{- else}}
	req, _ := http.NewRequest("{{.Method}}", "{{json .URL}}", nil)
{{- end}}
{{- range .Headers}}
	req.Header.Add("{{json .Key}}", "{{json .Value}}")
{{- end}}

	res, _ := http.DefaultClient.Do(req)
	defer res.Body.Close()

	fmt.Println("Status:", res.Status)
}`)),
	},
	{
		ID: "python", Name: "Python - Requests", Language: "python",
		NoURL: `print("NO URL AVAILABLE")`,
		tmpl: template.Must(template.New("python").Funcs(funcs).Parse(
			`import requests

url = "{{json .URL}}"
{{- if .Headers}}
headers = {{pyDict .Headers}}
{{- end}}
{{- if .HasBody}}
data = """{{.Body}}"""
{{- end}}

response = requests.{{lower .Method}}(url{{if .Headers}}, headers=headers{{end}}{{if .HasBody}}, data=data{{end}})

print("Status Code:", response.status_code)
print("Response:", response.text)`)),
	},
}

// Templates returns the available templates.
func Templates() []*Template {
	return templates
}

// IDs returns the template ids.
func IDs() []string {
	ids := make([]string, len(templates))
	for i, t := range templates {
		ids[i] = t.ID
	}
	return ids
}

// Lookup returns the template with the given id.
func Lookup(id string) (*Template, bool) {
	for _, t := range templates {
		if strings.EqualFold(t.ID, id) {
			return t, true
		}
	}
	return nil, false
}

// Generate renders the request with the template named id.
func Generate(id string, req http.WireRequest) (string, error) {
	t, ok := Lookup(id)
	if !ok {
		return "", fmt.Errorf("unknown template %q (available: %s)", id, strings.Join(IDs(), ", "))
	}
	return t.Generate(req)
}

// Generate renders req.
func (t *Template) Generate(req http.WireRequest) (string, error) {
	if strings.TrimSpace(req.URL) == "" {
		return t.NoURL, nil
	}

	data := snippet{
		Method:  req.Method,
		URL:     req.URL,
		Headers: BuildHeaders(req),
	}
	if req.Body != nil && *req.Body != "" && bodyType(req) != http.BodyNone {
		data.Body = *req.Body
		data.HasBody = true
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s snippet: %w", t.ID, err)
	}
	return buf.String(), nil
}

// BuildHeaders returns the enabled headers sorted by key, adding a
// Content-Type derived from the body type when none is set.
func BuildHeaders(req http.WireRequest) []Header {
	headers := make([]Header, 0, len(req.Headers)+1)
	hasContentType := false
	for k, v := range req.Headers {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		if strings.EqualFold(k, "Content-Type") {
			hasContentType = true
		}
		headers = append(headers, Header{Key: k, Value: v})
	}

	if !hasContentType && req.Body != nil && *req.Body != "" {
		if ct := impliedContentType(req); ct != "" {
			headers = append(headers, Header{Key: "Content-Type", Value: ct})
		}
	}

	sort.Slice(headers, func(i, j int) bool { return headers[i].Key < headers[j].Key })
	return headers
}

func impliedContentType(req http.WireRequest) string {
	switch bodyType(req) {
	case http.BodyText:
		switch deref(req.TextSubtype) {
		case "json":
			return "application/json"
		case "xml":
			return "application/xml"
		default:
			return "text/plain"
		}
	case http.BodyForm:
		if deref(req.FormSubtype) == http.FormURLEncoded {
			return "application/x-www-form-urlencoded"
		}
		return "multipart/form-data"
	}
	return ""
}

func bodyType(req http.WireRequest) http.BodyType {
	if req.BodyType == nil {
		return http.BodyNone
	}
	return http.BodyType(*req.BodyType)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func escapeShell(s string) string {
	return strings.ReplaceAll(s, "'", `'"'"'`)
}

// escapeJSON returns s as the inside of a JSON string literal.
func escapeJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	out := strings.TrimSuffix(buf.String(), "\n")
	return out[1 : len(out)-1]
}

// goRawString quotes s as a Go raw string literal, splicing in any backticks.
func goRawString(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "` + \"`\" + `") + "`"
}

func pythonDict(headers []Header) string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, h := range headers {
		fmt.Fprintf(&b, "  \"%s\": \"%s\"", escapeJSON(h.Key), escapeJSON(h.Value))
		if i < len(headers)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}
