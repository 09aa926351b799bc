package curl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitpost/packages/form"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

func TestParse_SimpleGet(t *testing.T) {
	parsed, err := NewConverter().Parse(`curl https://api.example.com/users`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.Method != "GET" {
		t.Errorf("expected method GET, got %s", parsed.Method)
	}
	if parsed.URL != "https://api.example.com/users" {
		t.Errorf("expected URL https://api.example.com/users, got %s", parsed.URL)
	}
	if parsed.BodyType != http.BodyNone {
		t.Errorf("expected no body, got %s", parsed.BodyType)
	}
}

func TestParse_PostWithJSON(t *testing.T) {
	parsed, err := NewConverter().Parse(`curl -X PUT https://api.example.com/users -H 'Content-Type: application/json' -d '{"name":"John"}'`)
	require.NoError(t, err)

	assert.Equal(t, "PUT", parsed.Method)
	assert.Equal(t, http.BodyText, parsed.BodyType)
	assert.Equal(t, `{"name":"John"}`, parsed.Body)
	assert.Equal(t, "json", parsed.TextSubtype())
}

func TestParse_ImplicitPostAndDefaultContentType(t *testing.T) {
	parsed, err := NewConverter().Parse(`curl -d "name=John" -d age=3 https://api.example.com/users`)
	require.NoError(t, err)

	assert.Equal(t, "POST", parsed.Method)
	assert.Equal(t, "name=John&age=3", parsed.Body)
	assert.Equal(t, "application/x-www-form-urlencoded", parsed.Headers["Content-Type"])
	assert.Equal(t, "raw", parsed.TextSubtype())
}

func TestParse_JSONFlag(t *testing.T) {
	parsed, err := NewConverter().Parse(`curl --json '{"a":1}' https://api.test`)
	require.NoError(t, err)
	assert.Equal(t, "POST", parsed.Method)
	assert.Equal(t, "application/json", parsed.Headers["Content-Type"])
	assert.Equal(t, "application/json", parsed.Headers["Accept"])
}

func TestParse_DataURLEncode(t *testing.T) {
	parsed, err := NewConverter().Parse(`curl --data-urlencode "q=hello world&more" --data-urlencode "lang=en" https://search.test`)
	require.NoError(t, err)

	assert.Equal(t, http.BodyForm, parsed.BodyType)
	assert.Equal(t, "urlencoded", parsed.FormSubtype)

	pairs := form.ParseURLEncoded(parsed.Body)
	assert.Equal(t, []form.Pair{{Key: "q", Value: "hello world&more"}, {Key: "lang", Value: "en"}}, pairs)
}

func TestParse_Multipart(t *testing.T) {
	parsed, err := NewConverter().Parse(`curl -F name=John -F "file=@photo.png" https://upload.test`)
	require.NoError(t, err)

	assert.Equal(t, "POST", parsed.Method)
	assert.Equal(t, http.BodyForm, parsed.BodyType)
	assert.Equal(t, "multipart", parsed.FormSubtype)
	assert.Equal(t, []form.Pair{{Key: "name", Value: "John"}, {Key: "file", Value: "@photo.png"}}, form.ParseMultipart(parsed.Body))
}

func TestParse_Flags(t *testing.T) {
	parsed, err := NewConverter().Parse(`curl -k -L -A agent/1 -e https://ref.test -b "a=1" -u admin:pw --url https://api.test/x`)
	require.NoError(t, err)

	assert.True(t, parsed.Insecure)
	assert.True(t, parsed.FollowRedirects)
	assert.Equal(t, "agent/1", parsed.Headers["User-Agent"])
	assert.Equal(t, "https://ref.test", parsed.Headers["Referer"])
	assert.Equal(t, "a=1", parsed.Headers["Cookie"])
	assert.Equal(t, "admin:pw", parsed.BasicAuth)
	assert.Equal(t, "https://api.test/x", parsed.URL)
}

func TestParse_Head(t *testing.T) {
	parsed, err := NewConverter().Parse(`curl -I https://api.test`)
	require.NoError(t, err)
	assert.Equal(t, "HEAD", parsed.Method)
}

func TestParse_Errors(t *testing.T) {
	for _, cmd := range []string{"curl", "curl -X", "curl -H 'A: b'"} {
		_, err := NewConverter().Parse(cmd)
		assert.Error(t, err, cmd)
	}
}

func TestToItem(t *testing.T) {
	c := NewConverter(WithTimeout(5000))
	item, err := c.ConvertCommand(`curl -u admin:secret -H "X-B: 2" -H "X-A: 1" https://api.example.com/admin-users`)
	require.NoError(t, err)

	assert.Equal(t, "get_admin_users", item.Name)
	assert.Equal(t, uint64(5000), item.Timeout)
	require.Len(t, item.Headers, 2)
	assert.Equal(t, "X-A", item.Headers[0].Key)
	require.NotNil(t, item.Auth)
	assert.Equal(t, http.AuthBasic, item.Auth.Type)
	assert.Equal(t, "admin", item.Auth.Username)
	assert.Equal(t, "secret", item.Auth.Password)
}

func TestToWire(t *testing.T) {
	c := NewConverter()
	parsed, err := c.Parse(`curl -X POST https://api.test -H 'Content-Type: text/xml' -d '<a/>'`)
	require.NoError(t, err)

	w := c.ToWire(parsed)
	require.NotNil(t, w.Body)
	assert.Equal(t, "<a/>", *w.Body)
	require.NotNil(t, w.TextSubtype)
	assert.Equal(t, "xml", *w.TextSubtype)
	assert.Equal(t, http.TextBody{Kind: http.BodyText, Content: "<a/>"}, w.Request().Body)
}

func TestConvertFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmds.sh")
	content := "# exported\ncurl https://a.test/one\n\ncurl -X DELETE \\\n  https://a.test/two\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	items, err := NewConverter().ConvertFile(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "get_one", items[0].Name)
	assert.Equal(t, "DELETE", items[1].Method)
}

func TestConvertReader(t *testing.T) {
	items, err := NewConverter(WithTimeout(5000)).ConvertReader(strings.NewReader("curl -d 'a=1' https://a.test/form\n"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "POST", items[0].Method)
	assert.Equal(t, uint64(5000), items[0].Timeout)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{`-H "A: b c"`, []string{"-H", "A: b c"}},
		{`-d '{"k":"v"}'`, []string{"-d", `{"k":"v"}`}},
		{`a\ b`, []string{"a b"}},
		{`'x\y'`, []string{`x\y`}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tokenize(tt.input), tt.input)
	}
}

func TestGenerateName(t *testing.T) {
	assert.Equal(t, "get_root", generateName("https://api.test", "GET"))
	assert.Equal(t, "post_v1_user_items", generateName("https://api.test/v1/user-items?x=1", "POST"))
}
