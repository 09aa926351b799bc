package insomnia

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitpost/packages/collection"
	"github.com/abdul-hamid-achik/hitpost/packages/core/env"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

func convert(t *testing.T, export string) *collection.Collection {
	t.Helper()
	coll, err := NewConverter().Convert([]byte(export))
	require.NoError(t, err)
	return coll
}

func TestConvert_SimpleRequest(t *testing.T) {
	coll := convert(t, `{
		"_type": "export",
		"__export_format": 4,
		"resources": [
			{"_id": "wrk_1", "_type": "workspace", "name": "My API"},
			{
				"_id": "req_1",
				"_type": "request",
				"parentId": "wrk_1",
				"name": "Get Users",
				"method": "get",
				"url": "https://api.example.com/users"
			}
		]
	}`)

	assert.Equal(t, "My API", coll.Name)
	require.Len(t, coll.Requests, 1)
	req := coll.Requests[0]
	assert.Equal(t, "Get Users", req.Name)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "https://api.example.com/users", req.URL)
	assert.NotEmpty(t, req.ID)
	assert.Empty(t, coll.Folders)
}

func TestConvert_RequestWithHeadersAndJSONBody(t *testing.T) {
	coll := convert(t, `{
		"_type": "export",
		"resources": [
			{
				"_id": "req_1",
				"_type": "request",
				"parentId": "wrk_1",
				"name": "Create User",
				"method": "POST",
				"url": "https://api.example.com/users",
				"headers": [
					{"name": "Content-Type", "value": "application/json"},
					{"name": "X-Debug", "value": "1", "disabled": true}
				],
				"body": {"mimeType": "application/json", "text": "{\"name\": \"{{ _.user }}\"}"}
			}
		]
	}`)

	require.Len(t, coll.Requests, 1)
	req := coll.Requests[0]
	assert.Equal(t, []collection.Header{
		{Key: "Content-Type", Value: "application/json", Enabled: true},
		{Key: "X-Debug", Value: "1", Enabled: false},
	}, req.Headers)
	assert.Equal(t, string(http.BodyText), req.BodyType)
	assert.Equal(t, "json", req.TextSubtype)
	assert.Equal(t, `{"name": "{{user}}"}`, req.Body)
}

func TestConvert_FormBodies(t *testing.T) {
	coll := convert(t, `{
		"_type": "export",
		"resources": [
			{
				"_id": "req_1", "_type": "request", "parentId": "wrk_1",
				"name": "Login", "method": "POST", "url": "https://a.test/login",
				"body": {
					"mimeType": "application/x-www-form-urlencoded",
					"params": [
						{"name": "user", "value": "jane doe"},
						{"name": "skip", "value": "x", "disabled": true},
						{"name": "pass", "value": "{{ password }}"}
					]
				}
			},
			{
				"_id": "req_2", "_type": "request", "parentId": "wrk_1",
				"name": "Upload", "method": "POST", "url": "https://a.test/upload",
				"body": {
					"mimeType": "multipart/form-data",
					"params": [{"name": "title", "value": "Report"}, {"name": "kind", "value": "pdf"}]
				}
			}
		]
	}`)

	require.Len(t, coll.Requests, 2)
	login := coll.Requests[0]
	assert.Equal(t, string(http.BodyForm), login.BodyType)
	assert.Equal(t, "urlencoded", login.FormSubtype)
	assert.Equal(t, "user=jane doe&pass={{password}}", login.Body)

	upload := coll.Requests[1]
	assert.Equal(t, "multipart", upload.FormSubtype)
	assert.Equal(t, "title=Report\nkind=pdf", upload.Body)
}

func TestConvert_Auth(t *testing.T) {
	coll := convert(t, `{
		"_type": "export",
		"resources": [
			{"_id": "r1", "_type": "request", "name": "basic", "url": "https://a.test",
			 "authentication": {"type": "basic", "username": "admin", "password": "{{ _.pw }}"}},
			{"_id": "r2", "_type": "request", "name": "bearer", "url": "https://a.test",
			 "authentication": {"type": "bearer", "token": "abc", "prefix": "Token"}},
			{"_id": "r3", "_type": "request", "name": "apikey", "url": "https://a.test",
			 "authentication": {"type": "apikey", "key": "api_key", "value": "k", "addTo": "queryParams"}},
			{"_id": "r4", "_type": "request", "name": "oauth2", "url": "https://a.test",
			 "authentication": {"type": "oauth2", "accessTokenUrl": "https://auth.test/token", "clientId": "id", "clientSecret": "s", "scope": "read"}},
			{"_id": "r5", "_type": "request", "name": "disabled", "url": "https://a.test",
			 "authentication": {"type": "bearer", "token": "abc", "disabled": true}}
		]
	}`)

	require.Len(t, coll.Requests, 5)
	assert.Equal(t, &http.Auth{Type: http.AuthBasic, Username: "admin", Password: "{{pw}}"}, coll.Requests[0].Auth)
	assert.Equal(t, &http.Auth{Type: http.AuthBearer, Token: "abc", TokenType: "Token"}, coll.Requests[1].Auth)
	assert.Equal(t, &http.Auth{Type: http.AuthAPIKey, APIKeyName: "api_key", APIKey: "k", APIKeyLocation: "query"}, coll.Requests[2].Auth)
	assert.Equal(t, &http.Auth{
		Type:         http.AuthOAuth2,
		TokenURL:     "https://auth.test/token",
		ClientID:     "id",
		ClientSecret: "s",
		Scope:        "read",
	}, coll.Requests[3].Auth)
	assert.Nil(t, coll.Requests[4].Auth)
}

func TestConvert_QueryParams(t *testing.T) {
	coll := convert(t, `{
		"_type": "export",
		"resources": [
			{
				"_id": "req_1", "_type": "request", "parentId": "wrk_1",
				"name": "Search", "method": "GET", "url": "{{ base_url }}/search",
				"parameters": [
					{"name": "q", "value": "test"},
					{"name": "page", "value": "2", "disabled": true}
				]
			}
		]
	}`)

	req := coll.Requests[0]
	assert.Equal(t, "{{base_url}}/search", req.URL)
	assert.Equal(t, []http.Param{
		{Key: "q", Value: "test", Enabled: true},
		{Key: "page", Value: "2", Enabled: false},
	}, req.Params)
}

func TestConvert_NestedFolders(t *testing.T) {
	coll := convert(t, `{
		"_type": "export",
		"resources": [
			{"_id": "fld_1", "_type": "request_group", "parentId": "wrk_1", "name": "Users"},
			{"_id": "fld_2", "_type": "request_group", "parentId": "fld_1", "name": "Admin"},
			{"_id": "req_1", "_type": "request", "parentId": "fld_2", "name": "Ban", "method": "POST", "url": "https://a.test/ban"},
			{"_id": "req_2", "_type": "request", "parentId": "fld_1", "name": "List", "url": "https://a.test/users"}
		]
	}`)

	require.Len(t, coll.Requests, 2)
	assert.Equal(t, "Users/Admin", coll.FolderOf(coll.Requests[0].ID))
	assert.Equal(t, "Users", coll.FolderOf(coll.Requests[1].ID))
}

func TestConvert_Environments(t *testing.T) {
	coll := convert(t, `{
		"_type": "export",
		"resources": [
			{"_id": "env_base", "_type": "environment", "parentId": "wrk_1", "name": "Base",
			 "data": {"base_url": "https://api.test", "retries": 3}},
			{"_id": "env_dev", "_type": "environment", "parentId": "env_base", "name": "Dev",
			 "data": {"base_url": "http://localhost:8080", "token": "{{ _.secret }}"}}
		]
	}`)

	assert.Equal(t, "https://api.test", lookup(coll.Globals, "base_url"))
	assert.Equal(t, "3", lookup(coll.Globals, "retries"))
	require.Len(t, coll.Environments, 1)
	dev := coll.Environments[0]
	assert.Equal(t, "Dev", dev.Name)
	assert.Equal(t, "http://localhost:8080", lookup(dev.Variables, "base_url"))
	assert.Equal(t, "{{secret}}", lookup(dev.Variables, "token"))
}

func TestConvert_Errors(t *testing.T) {
	_, err := NewConverter().Convert([]byte(`not json`))
	assert.Error(t, err)

	_, err = NewConverter().Convert([]byte(`{"_type": "collection"}`))
	assert.Error(t, err)
}

func TestConvertFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insomnia.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"_type":"export","resources":[{"_id":"r","_type":"request","name":"Ping","url":"https://a.test/ping"}]}`), 0644))

	coll, err := NewConverter(WithTimeout(2500)).ConvertFile(path)
	require.NoError(t, err)
	require.Len(t, coll.Requests, 1)
	assert.Equal(t, uint64(2500), coll.Requests[0].Timeout)

	_, err = NewConverter().ConvertFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestConvertVariable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"{{ _.baseUrl }}/users", "{{baseUrl}}/users"},
		{"{{baseUrl}}", "{{baseUrl}}"},
		{"{{  token  }}", "{{token}}"},
		{"Bearer {{ _.auth.token }}", "Bearer {{auth.token}}"},
		{"no vars", "no vars"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, convertVariable(tt.input), tt.input)
	}
}

func lookup(vars []env.Variable, key string) string {
	for _, v := range vars {
		if v.Key == key {
			return v.Value
		}
	}
	return ""
}
