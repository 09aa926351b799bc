package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abdul-hamid-achik/hitpost/packages/form"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

const (
	CommandMakeHTTPRequest = "make_http_request"
	CommandParseFormData   = "parse_form_data"
)

// ErrUnknownCommand is returned by Invoke for a name it does not serve.
var ErrUnknownCommand = errors.New("unknown command")

// ArgumentError reports command arguments that could not be decoded.
type ArgumentError struct {
	Command string
	Err     error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Command, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// CommandError is a failure produced by the command itself. Value is what
// the host receives: an *http.Error for make_http_request and the message
// string for parse_form_data.
type CommandError struct {
	Value any
	Err   error
}

func (e *CommandError) Error() string {
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

type MakeHTTPRequestArgs struct {
	Request http.WireRequest `json:"request"`
}

type ParseFormDataArgs struct {
	FormStr  string `json:"formStr"`
	FormType string `json:"formType"`
}

// Commands dispatches named commands.
type Commands struct {
	client *http.Client
	logger *slog.Logger
}

type CommandsOption func(*Commands)

// WithClient sets the client used by make_http_request.
func WithClient(client *http.Client) CommandsOption {
	return func(c *Commands) {
		c.client = client
	}
}

func WithLogger(logger *slog.Logger) CommandsOption {
	return func(c *Commands) {
		c.logger = logger
	}
}

func NewCommands(opts ...CommandsOption) *Commands {
	c := &Commands{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = http.NewClient(http.WithLogger(c.logger))
	}
	return c
}

// Names lists the served commands.
func (c *Commands) Names() []string {
	return []string{CommandMakeHTTPRequest, CommandParseFormData}
}

// Invoke runs the named command with JSON encoded args. Empty args decode as
// an empty object.
func (c *Commands) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case CommandMakeHTTPRequest:
		var a MakeHTTPRequestArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, &ArgumentError{Command: name, Err: err}
		}
		return c.MakeHTTPRequest(ctx, a.Request)

	case CommandParseFormData:
		var a ParseFormDataArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, &ArgumentError{Command: name, Err: err}
		}
		return c.ParseFormData(a.FormStr, a.FormType)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
}

// MakeHTTPRequest executes w. A failure is a *CommandError wrapping the
// *http.Error.
func (c *Commands) MakeHTTPRequest(ctx context.Context, w http.WireRequest) (*http.Response, error) {
	resp, err := c.client.Do(ctx, w.Request())
	if err != nil {
		e := http.AsError(err)
		return nil, &CommandError{Value: e, Err: e}
	}
	return resp, nil
}

// ParseFormData returns the decoded pairs as two element arrays.
func (c *Commands) ParseFormData(formStr, formType string) ([][2]string, error) {
	pairs, err := form.ParseFormData(formStr, formType)
	if err != nil {
		return nil, &CommandError{Value: err.Error(), Err: err}
	}
	out := make([][2]string, len(pairs))
	for i, p := range pairs {
		out[i] = [2]string{p.Key, p.Value}
	}
	return out, nil
}

// Envelope is the JSON shape of one command exchange over a stream.
type Envelope struct {
	ID   string          `json:"id,omitempty"`
	Cmd  string          `json:"cmd"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Reply answers an Envelope. Exactly one of Data and Error is set.
type Reply struct {
	ID    string `json:"id,omitempty"`
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error any    `json:"error,omitempty"`
}

// Handle runs one envelope and shapes the outcome as a Reply.
func (c *Commands) Handle(ctx context.Context, env Envelope) Reply {
	data, err := c.Invoke(ctx, env.Cmd, env.Args)
	if err == nil {
		return Reply{ID: env.ID, OK: true, Data: data}
	}

	c.logger.Debug("command failed", "cmd", env.Cmd, "error", err)

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return Reply{ID: env.ID, Error: cmdErr.Value}
	}
	return Reply{ID: env.ID, Error: err.Error()}
}
