package cmd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitpost/packages/collection"
	"github.com/abdul-hamid-achik/hitpost/packages/core/env"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

// adhocRequestID files history for requests not taken from a collection.
const adhocRequestID = "adhoc"

// requestFlags describe a request on the command line. They build an ad hoc
// request when the target is a URL and override a saved one otherwise.
type requestFlags struct {
	method      string
	headers     []string
	params      []string
	vars        []string
	data        string
	bodyType    string
	textSubtype string
	formSubtype string
	binaryFile  string
	user        string
	bearer      string
	timeout     uint64
	envName     string
	envFile     string
	collection  string
	proxy       string
	insecure    bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.method, "method", "X", "", "HTTP method (default GET, or POST with a body)")
	flags.StringArrayVarP(&f.headers, "header", "H", nil, "Header as 'Name: value' (repeatable)")
	flags.StringArrayVar(&f.params, "param", nil, "Query parameter as key=value (repeatable)")
	flags.StringArrayVar(&f.vars, "var", nil, "Variable as key=value for {{key}} placeholders (repeatable)")
	flags.StringVarP(&f.data, "data", "d", "", "Request body; @file reads a file and @- reads stdin")
	flags.StringVar(&f.bodyType, "body-type", "", "Body type: none, text, graphql, form, binary")
	flags.StringVar(&f.textSubtype, "text-subtype", "", "Text body flavor used by code generation: json, xml, yaml, raw")
	flags.StringVar(&f.formSubtype, "form-subtype", "", "Form encoding: urlencoded or multipart")
	flags.StringVar(&f.binaryFile, "binary-file", "", "Send the file contents as a binary body")
	flags.StringVarP(&f.user, "user", "u", "", "Basic auth credentials as user:password")
	flags.StringVar(&f.bearer, "bearer", "", "Bearer token")
	flags.Uint64Var(&f.timeout, "timeout", uint64(getEnvInt("HITPOST_TIMEOUT", 0)), "Timeout in milliseconds, 0 uses the config value (env: HITPOST_TIMEOUT)")
	flags.StringVarP(&f.envName, "env", "e", getEnvString("HITPOST_ENV", ""), "Collection environment (env: HITPOST_ENV)")
	flags.StringVar(&f.envFile, "env-file", getEnvString("HITPOST_ENV_FILE", ""), "Path to .env file for variable interpolation (env: HITPOST_ENV_FILE)")
	flags.StringVarP(&f.collection, "collection", "c", getEnvString("HITPOST_COLLECTION", ""), "Collection file (env: HITPOST_COLLECTION)")
	flags.StringVar(&f.proxy, "proxy", getEnvString("HITPOST_PROXY", ""), "Proxy URL for HTTP requests (env: HITPOST_PROXY)")
	flags.BoolVarP(&f.insecure, "insecure", "k", getEnvBool("HITPOST_INSECURE", false), "Disable SSL certificate validation (env: HITPOST_INSECURE)")
}

// collectionPath picks the flag, then the config, then the default name.
func (f *requestFlags) collectionPath() string {
	return collectionPath(f.collection)
}

// collectionPath picks the flag value, then the config file setting, then
// the default file name.
func collectionPath(flag string) string {
	switch {
	case flag != "":
		return flag
	case settings.Collection != "":
		return settings.Collection
	default:
		return collection.DefaultFilename
	}
}

func (f *requestFlags) environment() string {
	if f.envName != "" {
		return f.envName
	}
	return settings.DefaultEnvironment
}

// variables gathers the .env file and --var values, --var winning.
func (f *requestFlags) variables() (map[string]string, error) {
	vars := make(map[string]string)
	if f.envFile != "" {
		loaded, err := env.LoadDotEnv(f.envFile)
		if err != nil {
			return nil, withExit(ExitConfigError, err)
		}
		for k, v := range loaded {
			vars[k] = v
		}
	}
	for _, kv := range f.vars {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, withExit(ExitUsageError, fmt.Errorf("invalid --var %q (want key=value)", kv))
		}
		vars[strings.TrimSpace(key)] = value
	}
	return vars, nil
}

func warnUnresolved(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...))
}

func isURLTarget(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.Contains(target, "{{")
}

// build resolves target into a sendable wire request and the id history
// files it under.
func (f *requestFlags) build(ctx context.Context, target string) (*http.WireRequest, string, error) {
	vars, err := f.variables()
	if err != nil {
		return nil, "", err
	}

	if isURLTarget(target) {
		w, err := f.adhoc(ctx, target, vars)
		if err != nil {
			return nil, "", err
		}
		return w, adhocRequestID, nil
	}

	coll, err := collection.Load(f.collectionPath())
	if err != nil {
		return nil, "", withExit(ExitParseError, err)
	}
	item, err := coll.Find(target)
	if err != nil {
		return nil, "", withExit(ExitUsageError, err)
	}

	w, err := coll.Resolve(ctx, item, collection.ResolveOptions{
		Environment: f.environment(),
		Variables:   vars,
		Warn:        warnUnresolved,
	})
	if err != nil {
		return nil, "", withExit(ExitConfigError, err)
	}
	resolver, err := f.resolver(coll, vars)
	if err != nil {
		return nil, "", err
	}
	if err := f.override(ctx, w, resolver); err != nil {
		return nil, "", err
	}
	return w, item.ID, nil
}

// resolver builds the placeholder resolver from the collection, when there
// is one, layered with vars.
func (f *requestFlags) resolver(coll *collection.Collection, vars map[string]string) (*env.Resolver, error) {
	resolver := env.NewResolver()
	if coll != nil {
		var err error
		resolver, err = coll.Resolver(f.environment())
		if err != nil {
			return nil, withExit(ExitConfigError, err)
		}
	}
	resolver.SetVariables(vars)
	resolver.SetWarnFunc(warnUnresolved)
	return resolver, nil
}

// adhoc builds a request from flags alone. Placeholders resolve against the
// collection's globals and environment when a collection file exists.
func (f *requestFlags) adhoc(ctx context.Context, target string, vars map[string]string) (*http.WireRequest, error) {
	coll, err := collection.Load(f.collectionPath())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, withExit(ExitParseError, err)
		}
		coll = nil
	}
	resolver, err := f.resolver(coll, vars)
	if err != nil {
		return nil, err
	}

	w := &http.WireRequest{
		Method:  "GET",
		URL:     resolver.Resolve(target),
		Headers: map[string]string{},
	}
	if f.data != "" || f.binaryFile != "" {
		w.Method = "POST"
	}
	if err := f.override(ctx, w, resolver); err != nil {
		return nil, err
	}
	return w, nil
}

// override applies the request flags on top of w.
func (f *requestFlags) override(ctx context.Context, w *http.WireRequest, resolver *env.Resolver) error {
	if f.method != "" {
		w.Method = f.method
	}
	if w.Headers == nil {
		w.Headers = map[string]string{}
	}
	for _, h := range f.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return withExit(ExitUsageError, fmt.Errorf("invalid header %q (want 'Name: value')", h))
		}
		w.Headers[resolver.Resolve(strings.TrimSpace(name))] = resolver.Resolve(strings.TrimSpace(value))
	}

	if f.data != "" {
		body, err := readData(f.data)
		if err != nil {
			return withExit(ExitUsageError, err)
		}
		body = resolver.Resolve(body)
		w.Body = &body
		if f.bodyType == "" && (w.BodyType == nil || *w.BodyType == string(http.BodyNone)) {
			w.BodyType = strPtr(string(http.BodyText))
		}
	}
	if f.binaryFile != "" {
		raw, err := os.ReadFile(f.binaryFile)
		if err != nil {
			return withExit(ExitUsageError, fmt.Errorf("reading binary file: %w", err))
		}
		w.BinaryData = strPtr(base64.StdEncoding.EncodeToString(raw))
		if f.bodyType == "" {
			w.BodyType = strPtr(string(http.BodyBinary))
		}
	}
	if f.bodyType != "" {
		w.BodyType = strPtr(f.bodyType)
	}
	if f.textSubtype != "" {
		w.TextSubtype = strPtr(f.textSubtype)
	}
	if f.formSubtype != "" {
		w.FormSubtype = strPtr(f.formSubtype)
	}

	if f.timeout > 0 {
		timeout := f.timeout
		w.Timeout = &timeout
	} else if w.Timeout == nil && settings.Timeout > 0 {
		timeout := uint64(settings.Timeout)
		w.Timeout = &timeout
	}

	var auth *http.Auth
	switch {
	case f.user != "":
		user, pass, _ := strings.Cut(f.user, ":")
		auth = &http.Auth{Type: http.AuthBasic, Username: user, Password: pass}
	case f.bearer != "":
		auth = &http.Auth{Type: http.AuthBearer, Token: f.bearer}
	}

	params := make([]http.Param, 0, len(f.params))
	for _, p := range f.params {
		key, value, _ := strings.Cut(p, "=")
		params = append(params, http.Param{Key: resolver.Resolve(key), Value: resolver.Resolve(value), Enabled: true})
	}

	req := &http.Request{Headers: w.Headers}
	params, err := http.ApplyAuth(ctx, req, auth.Resolve(resolver.Resolve), params, nil)
	if err != nil {
		return withExit(ExitConfigError, err)
	}
	w.Headers = req.Headers
	w.URL = http.BuildURL(w.URL, params)
	return nil
}

// readData expands @file and @- references.
func readData(data string) (string, error) {
	switch {
	case data == "@-":
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return "", fmt.Errorf("reading body file: %w", err)
		}
		return string(b), nil
	default:
		return data, nil
	}
}

// newClient builds a client from the config file and request flags.
func (f *requestFlags) newClient() *http.Client {
	proxy := settings.Proxy
	if f.proxy != "" {
		proxy = f.proxy
	}
	validateSSL := settings.GetValidateSSL()
	if f.insecure {
		validateSSL = false
	}

	opts := []http.ClientOption{
		http.WithFollowRedirects(settings.GetFollowRedirects()),
		http.WithValidateSSL(validateSSL),
		http.WithProxy(proxy),
		http.WithDefaultHeaders(settings.Headers),
		http.WithLogger(slog.Default()),
	}
	if settings.MaxRedirects > 0 {
		opts = append(opts, http.WithMaxRedirects(settings.MaxRedirects))
	}
	return http.NewClient(opts...)
}

func strPtr(s string) *string {
	return &s
}
