package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func newResponse(status int, header http.Header, body string) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNormalize_PrettyJSON(t *testing.T) {
	resp, err := Normalize(time.Now(), newResponse(200, nil, `{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, resp.Body)
	assert.Equal(t, "{\n  \"a\": 1\n}", resp.BodyPretty)
}

func TestNormalize_NotJSON(t *testing.T) {
	resp, err := Normalize(time.Now(), newResponse(200, nil, "not json"))
	require.NoError(t, err)
	assert.Equal(t, "not json", resp.Body)
	assert.Equal(t, resp.Body, resp.BodyPretty)
}

func TestPrettyBody(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"sorted keys", `{"b":1,"a":{"d":[1,2],"c":null}}`, "{\n  \"a\": {\n    \"c\": null,\n    \"d\": [\n      1,\n      2\n    ]\n  },\n  \"b\": 1\n}"},
		{"array", `[true,"x"]`, "[\n  true,\n  \"x\"\n]"},
		{"empty object", `{}`, "{}"},
		{"scalar", `42`, "42"},
		{"truncated", `{"a":`, `{"a":`},
		{"trailing garbage", `{"a":1} x`, `{"a":1} x`},
		{"html", "<html></html>", "<html></html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PrettyBody(tt.input))
		})
	}
}

func TestNormalize_StatusText(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{200, "OK"},
		{404, "Not Found"},
		{418, "I'm a teapot"},
		{599, "Unknown"},
		{999, "Unknown"},
	}

	for _, tt := range tests {
		resp, err := Normalize(time.Now(), newResponse(tt.status, nil, ""))
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.Status)
		assert.Equal(t, tt.expected, resp.StatusText)
	}
}

func TestNormalize_Headers(t *testing.T) {
	header := http.Header{
		"Content-Type": {"text/plain"},
		"Set-Cookie":   {"a=1", "b=2"},
		"X-Binary":     {"caf\xe9"},
		"X-Mixed":      {"good", "bad\x01"},
		"X-Tab":        {"a\tb"},
	}

	resp, err := Normalize(time.Now(), newResponse(200, header, ""))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"content-type": "text/plain",
		"set-cookie":   "b=2",
		"x-mixed":      "good",
		"x-tab":        "a\tb",
	}, resp.Headers)
	assert.Equal(t, "text/plain", resp.Header("Content-Type"))
}

func TestNormalize_BodyReadFailure(t *testing.T) {
	raw := &http.Response{
		StatusCode: 200,
		Header:     http.Header{},
		Body:       io.NopCloser(failingReader{}),
	}

	resp, err := Normalize(time.Now(), raw)
	assert.Nil(t, resp)
	require.Error(t, err)

	var e *Error
	require.ErrorAs(t, err, &e)
	require.NotNil(t, e.Status)
	assert.Equal(t, 200, *e.Status)
	assert.Equal(t, KindBodyRead, e.Kind())
}

func TestNormalize_ResponseTime(t *testing.T) {
	start := time.Now().Add(-150 * time.Millisecond)
	resp, err := Normalize(start, newResponse(200, nil, ""))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, resp.ResponseTime, int64(150))
	assert.Equal(t, time.Duration(resp.ResponseTime)*time.Millisecond, resp.Duration())

	future, err := Normalize(time.Now().Add(time.Hour), newResponse(200, nil, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(0), future.ResponseTime)
}

func TestNormalize_Charset(t *testing.T) {
	header := http.Header{"Content-Type": {"text/plain; charset=ISO-8859-1"}}
	resp, err := Normalize(time.Now(), newResponse(200, header, "caf\xe9"))
	require.NoError(t, err)
	assert.Equal(t, "café", resp.Body)
}

func TestNormalize_InvalidUTF8Replaced(t *testing.T) {
	resp, err := Normalize(time.Now(), newResponse(200, nil, "ok\xff"))
	require.NoError(t, err)
	assert.Equal(t, "ok�", resp.Body)
}

func TestResponse_StatusClasses(t *testing.T) {
	assert.True(t, (&Response{Status: 204}).IsSuccess())
	assert.True(t, (&Response{Status: 301}).IsRedirect())
	assert.True(t, (&Response{Status: 404}).IsClientError())
	assert.True(t, (&Response{Status: 503}).IsServerError())
	assert.False(t, (&Response{Status: 503}).IsSuccess())
}
