package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

func response(body string) *http.Response {
	return &http.Response{
		Status:       200,
		StatusText:   "OK",
		Headers:      map[string]string{"x-request-id": "abc"},
		Body:         body,
		ResponseTime: 42,
	}
}

func TestQuery(t *testing.T) {
	resp := response(`{"user":{"name":"Ada","age":36},"items":[{"id":1,"ok":true},{"id":2,"ok":false}]}`)

	tests := []struct {
		expr string
		want string
	}{
		{"user.name", "Ada"},
		{"body.user.age", "36"},
		{"user", `{"name":"Ada","age":36}`},
		{"items.#", "2"},
		{"items.#(ok==false).id", "2"},
		{"status", "200"},
		{"status_text", "OK"},
		{"response_time", "42"},
		{"header X-Request-Id", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Query(resp, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuery_Errors(t *testing.T) {
	_, err := Query(response(`{"a":1}`), "b")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = Query(response("not json"), "a")
	assert.ErrorIs(t, err, ErrNotJSON)

	_, err = Query(response(`{}`), "header missing")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestQueryAll(t *testing.T) {
	got, err := QueryAll(response(`{"a":1,"b":"x"}`), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "x"}, got)

	_, err = QueryAll(response(`{"a":1}`), []string{"a", "zz"})
	assert.Error(t, err)
}
