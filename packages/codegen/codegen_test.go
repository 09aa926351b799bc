package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

func strPtr(s string) *string { return &s }

func jsonPost() http.WireRequest {
	return http.WireRequest{
		Method:      "POST",
		URL:         "https://api.test/items",
		Headers:     map[string]string{"X-Token": "it's", "X-Empty": " "},
		Body:        strPtr(`{"name":"a"}`),
		BodyType:    strPtr("text"),
		TextSubtype: strPtr("json"),
	}
}

func TestCurl(t *testing.T) {
	got, err := Generate("curl", jsonPost())
	require.NoError(t, err)
	assert.Equal(t, `curl --request POST \
  --url 'https://api.test/items' \
  --header 'Content-Type: application/json' \
  --header 'X-Token: it'"'"'s' \
  --data '{"name":"a"}'`, got)
}

func TestCurl_NoBody(t *testing.T) {
	got, err := Generate("curl", http.WireRequest{Method: "GET", URL: "http://x"})
	require.NoError(t, err)
	assert.Equal(t, "curl --request GET \\\n  --url 'http://x'", got)
}

func TestGo(t *testing.T) {
	got, err := Generate("go", jsonPost())
	require.NoError(t, err)
	assert.Contains(t, got, "payload := strings.NewReader(`{\"name\":\"a\"}`)")
	assert.Contains(t, got, `req, _ := http.NewRequest("POST", "https://api.test/items", payload)`)
	assert.Contains(t, got, `req.Header.Add("Content-Type", "application/json")`)
	assert.Contains(t, got, `"strings"`)

	got, err = Generate("go", http.WireRequest{Method: "GET", URL: "http://x"})
	require.NoError(t, err)
	assert.Contains(t, got, `req, _ := http.NewRequest("GET", "http://x", nil)`)
	assert.NotContains(t, got, `"strings"`)
}

func TestPython(t *testing.T) {
	got, err := Generate("python", jsonPost())
	require.NoError(t, err)
	assert.Contains(t, got, "headers = {\n  \"Content-Type\": \"application/json\",\n  \"X-Token\": \"it's\"\n}")
	assert.Contains(t, got, `data = """{"name":"a"}"""`)
	assert.Contains(t, got, "response = requests.post(url, headers=headers, data=data)")
}

func TestNoURL(t *testing.T) {
	for id, want := range map[string]string{
		"curl":   `echo "NO URL AVAILABLE"`,
		"go":     `fmt.Println("NO URL AVAILABLE")`,
		"python": `print("NO URL AVAILABLE")`,
	} {
		got, err := Generate(id, http.WireRequest{Method: "GET", URL: "  "})
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}
}

func TestUnknownTemplate(t *testing.T) {
	_, err := Generate("cobol", jsonPost())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "curl, go, python")
}

func TestBuildHeaders_ImpliedContentType(t *testing.T) {
	tests := []struct {
		name     string
		bodyType string
		text     string
		form     string
		want     string
	}{
		{"xml", "text", "xml", "", "application/xml"},
		{"raw text", "text", "raw", "", "text/plain"},
		{"urlencoded", "form", "", "urlencoded", "application/x-www-form-urlencoded"},
		{"multipart", "form", "", "multipart", "multipart/form-data"},
		{"graphql", "graphql", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := http.WireRequest{Body: strPtr("x"), BodyType: strPtr(tt.bodyType)}
			if tt.text != "" {
				req.TextSubtype = strPtr(tt.text)
			}
			if tt.form != "" {
				req.FormSubtype = strPtr(tt.form)
			}
			headers := BuildHeaders(req)
			if tt.want == "" {
				assert.Empty(t, headers)
				return
			}
			assert.Equal(t, []Header{{Key: "Content-Type", Value: tt.want}}, headers)
		})
	}
}

func TestBuildHeaders_KeepsExplicitContentType(t *testing.T) {
	req := jsonPost()
	req.Headers = map[string]string{"content-type": "application/vnd.api+json"}
	assert.Equal(t, []Header{{Key: "content-type", Value: "application/vnd.api+json"}}, BuildHeaders(req))
}
