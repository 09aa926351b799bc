package collection

import (
	"context"

	"github.com/abdul-hamid-achik/hitpost/packages/core/env"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

// ResolveOptions tune Resolve.
type ResolveOptions struct {
	// Environment overrides the active environment.
	Environment string
	// Variables are layered over the environment, e.g. from a .env file.
	Variables map[string]string
	// Warn receives unresolved placeholder warnings.
	Warn env.WarnFunc
	// FetchToken obtains OAuth2 tokens; nil uses http.FetchOAuth2Token.
	FetchToken http.TokenFetcher
}

// Resolve turns a saved request into a sendable one. Variables are
// substituted in the URL, header keys and values, params, body and
// credentials; auth is then applied and params appended to the URL.
func (c *Collection) Resolve(ctx context.Context, item *Item, opts ResolveOptions) (*http.WireRequest, error) {
	resolver, err := c.Resolver(opts.Environment)
	if err != nil {
		return nil, err
	}
	resolver.SetVariables(opts.Variables)
	if opts.Warn != nil {
		resolver.SetWarnFunc(opts.Warn)
	}

	w := item.Wire()
	w.URL = resolver.Resolve(w.URL)

	headers := make(map[string]string, len(w.Headers))
	for k, v := range w.Headers {
		headers[resolver.Resolve(k)] = resolver.Resolve(v)
	}
	w.Headers = headers

	if w.Body != nil {
		body := resolver.Resolve(*w.Body)
		w.Body = &body
	}

	params := make([]http.Param, 0, len(item.Params))
	for _, p := range item.Params {
		params = append(params, http.Param{
			Key:     resolver.Resolve(p.Key),
			Value:   resolver.Resolve(p.Value),
			Enabled: p.Enabled,
		})
	}

	req := &http.Request{Headers: w.Headers}
	params, err = http.ApplyAuth(ctx, req, item.Auth.Resolve(resolver.Resolve), params, opts.FetchToken)
	if err != nil {
		return nil, err
	}
	w.Headers = req.Headers
	w.URL = http.BuildURL(w.URL, params)

	return &w, nil
}
