package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

// Exit codes for hitpost CLI
const (
	// ExitSuccess indicates the command succeeded and every check passed
	ExitSuccess = 0

	// ExitTestFailure indicates a failed request or a failed check
	ExitTestFailure = 1

	// ExitParseError indicates unreadable input such as a bad collection or curl command
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// errReported marks a failure whose details were already printed.
var errReported = errors.New("failure already reported")

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitSilently ends the command with code without printing anything more.
func exitSilently(code int) error {
	return &exitError{code: code, err: errReported}
}

func exitCode(err error) int {
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	if http.IsTransportError(err) {
		return ExitNetworkError
	}
	return ExitTestFailure
}

func isReported(err error) bool {
	return errors.Is(err, errReported)
}

// requestExitCode maps a failed execution to its exit code.
func requestExitCode(err error) int {
	if http.IsTransportError(err) {
		return ExitNetworkError
	}
	return ExitTestFailure
}
