package oauth2

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_ClientCredentials(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "read write", r.PostForm.Get("scope"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	p := NewProvider(&Config{
		TokenURL:     server.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		Scopes:       []string{"read", "write"},
		GrantType:    ClientCredentials,
	}, WithCache(NewTokenCache()))

	token, err := p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token.AccessToken)
	assert.False(t, token.IsExpired())

	_, err = p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second call should hit the cache")
}

func TestProvider_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"bad secret"}`))
	}))
	defer server.Close()

	p := NewProvider(&Config{TokenURL: server.URL, ClientID: "id"}, WithCache(NewTokenCache()))
	_, err := p.GetToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_client - bad secret")
}

func TestToken_IsExpired(t *testing.T) {
	assert.False(t, (&Token{}).IsExpired())
	assert.True(t, (&Token{ExpiresAt: time.Now().Add(10 * time.Second)}).IsExpired())
	assert.False(t, (&Token{ExpiresAt: time.Now().Add(time.Hour)}).IsExpired())
}
