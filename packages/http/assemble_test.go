package http

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *http.Request) string {
	t.Helper()
	if r.Body == nil {
		return ""
	}
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	return string(data)
}

func TestResolveMethod(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"get", "GET", false},
		{"Post", "POST", false},
		{"options", "OPTIONS", false},
		{"head", "HEAD", false},
		{"propfind", "PROPFIND", false},
		{"X-CUSTOM", "X-CUSTOM", false},
		{"bad method", "", true},
		{"", "", true},
		{"GET\r\n", "", true},
		{"(get)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			method, err := ResolveMethod(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				var e *Error
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "Invalid HTTP method: "+tt.input, e.Message)
				assert.Nil(t, e.Status)
				assert.Equal(t, KindMethod, e.Kind())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, method)
		})
	}
}

func TestAssemble_NoBody(t *testing.T) {
	req := NewRequest("get", "http://example.com/items")
	req.SetHeader("X-Trace", "abc")

	httpReq, err := Assemble(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "GET", httpReq.Method)
	assert.Equal(t, "abc", httpReq.Header.Get("X-Trace"))
	assert.Equal(t, "", readAll(t, httpReq))
	assert.Empty(t, httpReq.Header.Get("Content-Type"))
}

func TestAssemble_TextAndGraphQLVerbatim(t *testing.T) {
	for _, kind := range []BodyType{BodyText, BodyGraphQL, BodyType("xml")} {
		t.Run(string(kind), func(t *testing.T) {
			req := NewRequest("POST", "http://example.com").
				SetBody(TextBody{Kind: kind, Content: `{"query":"{ me { id } }"}`})

			httpReq, err := Assemble(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, `{"query":"{ me { id } }"}`, readAll(t, httpReq))
			assert.Empty(t, httpReq.Header.Get("Content-Type"), "text bodies get no inferred content type")
		})
	}
}

func TestAssemble_FormURLEncoded(t *testing.T) {
	req := NewRequest("POST", "http://example.com").
		SetBody(FormBody{Subtype: FormURLEncoded, Content: "a%20b=c%2Fd&junk&x=1"})

	httpReq, err := Assemble(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", httpReq.Header.Get("Content-Type"))
	assert.Equal(t, "a+b=c%2Fd&x=1", readAll(t, httpReq))
}

func TestAssemble_FormURLEncodedReplacesCallerContentType(t *testing.T) {
	req := NewRequest("POST", "http://example.com").
		SetHeader("content-type", "text/plain").
		SetBody(FormBody{Subtype: FormURLEncoded, Content: "a=1"})

	httpReq, err := Assemble(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"application/x-www-form-urlencoded"}, httpReq.Header.Values("Content-Type"))
}

func TestAssemble_HostHeader(t *testing.T) {
	req := NewRequest("GET", "http://127.0.0.1:8080/").
		SetHeader("Host", "api.example.test").
		SetHeader("X-Trace", "1")

	httpReq, err := Assemble(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "api.example.test", httpReq.Host)
	assert.Empty(t, httpReq.Header.Values("Host"))
	assert.Equal(t, "1", httpReq.Header.Get("X-Trace"))
}

func TestAssemble_FormMultipart(t *testing.T) {
	req := NewRequest("POST", "http://example.com").
		SetBody(FormBody{Subtype: FormMultipart, Content: " name = Ada \nbroken line\nrole=admin"})

	httpReq, err := Assemble(context.Background(), req)
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(httpReq.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	require.NotEmpty(t, params["boundary"])

	reader := multipart.NewReader(httpReq.Body, params["boundary"])
	form, err := reader.ReadForm(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada"}, form.Value["name"])
	assert.Equal(t, []string{"admin"}, form.Value["role"])
	assert.Len(t, form.Value, 2)
}

func TestAssemble_FormUnknownSubtypeVerbatim(t *testing.T) {
	req := NewRequest("POST", "http://example.com").
		SetBody(FormBody{Subtype: "json", Content: "a=1&b"})

	httpReq, err := Assemble(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "a=1&b", readAll(t, httpReq))
	assert.Empty(t, httpReq.Header.Get("Content-Type"))
}

func TestAssemble_BinarySniffsContentType(t *testing.T) {
	// 89 50 4E 47 0D 0A
	req := NewRequest("PUT", "http://example.com/upload").
		SetBody(BinaryBody{Data: "iVBORw0K"})

	httpReq, err := Assemble(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "image/png", httpReq.Header.Get("Content-Type"))
	assert.Equal(t, "\x89PNG\r\n", readAll(t, httpReq))
}

func TestAssemble_BinaryKeepsExplicitContentType(t *testing.T) {
	req := NewRequest("PUT", "http://example.com/upload").
		SetHeader("CONTENT-TYPE", "application/x-custom").
		SetBody(BinaryBody{Data: "aGVsbG8gd29ybGQK"})

	httpReq, err := Assemble(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"application/x-custom"}, httpReq.Header.Values("Content-Type"))
	assert.Equal(t, "hello world\n", readAll(t, httpReq))
}

func TestAssemble_InvalidBase64(t *testing.T) {
	req := NewRequest("POST", "http://example.com").
		SetBody(BinaryBody{Data: "not base64!!"})

	_, err := Assemble(context.Background(), req)
	require.Error(t, err)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Contains(t, e.Message, "Invalid base64 binary data")
	assert.False(t, e.HasStatus())
	assert.Equal(t, KindBinaryData, e.Kind())
}

func TestAssemble_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "example.com/path", "ftp://example.com", "http://"} {
		_, err := Assemble(context.Background(), NewRequest("GET", u))
		require.Error(t, err, u)
		assert.True(t, IsTransportError(err), u)
		assert.Contains(t, err.Error(), "Request failed:")
	}
}

func TestAssemble_MethodCheckedBeforeBody(t *testing.T) {
	req := NewRequest("not valid", "http://example.com").
		SetBody(BinaryBody{Data: "%%%"})

	_, err := Assemble(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, "Invalid HTTP method: not valid", err.Error())
}
