package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitpost/packages/server"
)

var (
	invokeStdioFlag bool
	invokeReq       requestFlags
)

var invokeCmd = &cobra.Command{
	Use:   "invoke [command] [args-json|-]",
	Short: "Call a host command with JSON arguments",
	Long: `Call one of the host commands used by the hitpost desktop shell.

Commands:
  make_http_request  {"request": {...}}
  parse_form_data    {"formStr": "...", "formType": "urlencoded|multipart"}

With a command name, the arguments are read from the second argument or from
stdin when it is "-" or omitted, and the result is printed as JSON. A failure
prints the error value as JSON and exits non-zero.

With --stdio, newline-delimited envelopes {"id","cmd","args"} are read from
stdin and one reply {"id","ok","data","error"} is written per envelope.
Envelopes are handled concurrently, so replies may arrive out of order.

Examples:
  hitpost invoke parse_form_data '{"formStr":"a=1&b=2","formType":"urlencoded"}'
  echo '{"request":{"method":"GET","url":"https://httpbin.org/get","headers":{}}}' | hitpost invoke make_http_request
  hitpost invoke --stdio`,
	Args: func(cmd *cobra.Command, args []string) error {
		if invokeStdioFlag {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.RangeArgs(1, 2)(cmd, args)
	},
	RunE: invokeCommand,
}

func init() {
	invokeCmd.Flags().BoolVar(&invokeStdioFlag, "stdio", false, "Serve envelopes from stdin until EOF")
	invokeCmd.Flags().StringVar(&invokeReq.proxy, "proxy", getEnvString("HITPOST_PROXY", ""), "Proxy URL (env: HITPOST_PROXY)")
	invokeCmd.Flags().BoolVarP(&invokeReq.insecure, "insecure", "k", false, "Skip TLS certificate verification")
}

func invokeCommand(cmd *cobra.Command, args []string) error {
	commands := server.NewCommands(server.WithClient(invokeReq.newClient()))

	if invokeStdioFlag {
		return serveStdio(cmd, commands)
	}

	raw := "-"
	if len(args) == 2 {
		raw = args[1]
	}
	if raw == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		raw = string(data)
	}
	raw = strings.TrimSpace(raw)

	reply := commands.Handle(cmd.Context(), server.Envelope{Cmd: args[0], Args: json.RawMessage(raw)})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if reply.OK {
		return enc.Encode(reply.Data)
	}
	if err := enc.Encode(reply.Error); err != nil {
		return err
	}
	return exitSilently(invokeExitCode(reply.Error))
}

func invokeExitCode(value any) int {
	if e, ok := value.(error); ok {
		return requestExitCode(e)
	}
	return ExitTestFailure
}

func serveStdio(cmd *cobra.Command, commands *server.Commands) error {
	ctx := cmd.Context()
	dec := json.NewDecoder(cmd.InOrStdin())

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	write := func(reply server.Reply) {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(reply); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to write reply %s: %v\n", reply.ID, err)
		}
	}

	defer wg.Wait()
	for {
		var env server.Envelope
		if err := dec.Decode(&env); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// The stream cannot be resynchronized after a syntax error.
			write(server.Reply{Error: fmt.Sprintf("invalid envelope: %v", err)})
			return withExit(ExitParseError, err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			write(commands.Handle(ctx, env))
		}()
	}
}
