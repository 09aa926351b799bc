package http

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitpost/packages/auth/oauth2"
)

// AuthType selects how credentials become headers.
type AuthType string

const (
	AuthNone    AuthType = "none"
	AuthInherit AuthType = "inherit"
	AuthBasic   AuthType = "basic"
	AuthBearer  AuthType = "bearer"
	AuthAPIKey  AuthType = "apikey"
	AuthOAuth2  AuthType = "oauth2"
	AuthCustom  AuthType = "custom"
)

// Auth holds the credentials of a saved request. Only the fields relevant to
// Type are read.
type Auth struct {
	Type           AuthType `json:"type" yaml:"type"`
	Username       string   `json:"username,omitempty" yaml:"username,omitempty"`
	Password       string   `json:"password,omitempty" yaml:"password,omitempty"`
	Token          string   `json:"token,omitempty" yaml:"token,omitempty"`
	TokenType      string   `json:"tokenType,omitempty" yaml:"tokenType,omitempty"`
	APIKey         string   `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	APIKeyName     string   `json:"apiKeyName,omitempty" yaml:"apiKeyName,omitempty"`
	APIKeyLocation string   `json:"apiKeyLocation,omitempty" yaml:"apiKeyLocation,omitempty"`
	AccessToken    string   `json:"accessToken,omitempty" yaml:"accessToken,omitempty"`
	TokenURL       string   `json:"tokenUrl,omitempty" yaml:"tokenUrl,omitempty"`
	ClientID       string   `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	ClientSecret   string   `json:"clientSecret,omitempty" yaml:"clientSecret,omitempty"`
	Scope          string   `json:"scope,omitempty" yaml:"scope,omitempty"`
	CustomKey      string   `json:"customKey,omitempty" yaml:"customKey,omitempty"`
	CustomValue    string   `json:"customValue,omitempty" yaml:"customValue,omitempty"`
}

// Resolve applies the resolver to every credential field.
func (a *Auth) Resolve(resolve func(string) string) *Auth {
	if a == nil {
		return nil
	}
	out := *a
	for _, f := range []*string{
		&out.Username, &out.Password, &out.Token, &out.TokenType, &out.APIKey,
		&out.APIKeyName, &out.AccessToken, &out.TokenURL, &out.ClientID,
		&out.ClientSecret, &out.Scope, &out.CustomKey, &out.CustomValue,
	} {
		*f = resolve(*f)
	}
	return &out
}

// TokenFetcher obtains an OAuth2 access token.
type TokenFetcher func(ctx context.Context, cfg *oauth2.Config) (string, error)

// FetchOAuth2Token is the default TokenFetcher.
func FetchOAuth2Token(ctx context.Context, cfg *oauth2.Config) (string, error) {
	token, err := oauth2.NewProvider(cfg).GetToken(ctx)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// ApplyAuth writes the auth header (or query param, for a query api key)
// onto req and returns the params to append to the URL. Existing
// authorization-like headers are replaced only when a new one is produced.
func ApplyAuth(ctx context.Context, req *Request, auth *Auth, params []Param, fetch TokenFetcher) ([]Param, error) {
	if auth == nil {
		return params, nil
	}

	var key, value string
	switch auth.Type {
	case AuthBasic:
		if auth.Username != "" && auth.Password != "" {
			key = "Authorization"
			value = "Basic " + base64.StdEncoding.EncodeToString([]byte(auth.Username+":"+auth.Password))
		}
	case AuthBearer:
		if auth.Token != "" {
			key = "Authorization"
			value = tokenType(auth) + " " + auth.Token
		}
	case AuthAPIKey:
		if auth.APIKey != "" && auth.APIKeyName != "" {
			if strings.EqualFold(auth.APIKeyLocation, "query") {
				return append(params, Param{Key: auth.APIKeyName, Value: auth.APIKey, Enabled: true}), nil
			}
			key = auth.APIKeyName
			value = auth.APIKey
		}
	case AuthOAuth2:
		accessToken := auth.AccessToken
		if accessToken == "" && auth.TokenURL != "" {
			if fetch == nil {
				fetch = FetchOAuth2Token
			}
			var err error
			accessToken, err = fetch(ctx, &oauth2.Config{
				TokenURL:     auth.TokenURL,
				ClientID:     auth.ClientID,
				ClientSecret: auth.ClientSecret,
				Scopes:       strings.Fields(auth.Scope),
				GrantType:    oauth2.ClientCredentials,
			})
			if err != nil {
				return params, fmt.Errorf("failed to get OAuth2 token: %w", err)
			}
		}
		if accessToken != "" {
			key = "Authorization"
			value = tokenType(auth) + " " + accessToken
		}
	case AuthCustom:
		if auth.CustomKey != "" && auth.CustomValue != "" {
			key = auth.CustomKey
			value = auth.CustomValue
		}
	}

	if key == "" || value == "" {
		return params, nil
	}

	for k := range req.Headers {
		if strings.EqualFold(k, "authorization") || strings.EqualFold(k, "x-api-key") || strings.EqualFold(k, key) {
			delete(req.Headers, k)
		}
	}
	req.SetHeader(key, value)
	return params, nil
}

func tokenType(auth *Auth) string {
	if auth.TokenType == "" {
		return "Bearer"
	}
	return auth.TokenType
}
