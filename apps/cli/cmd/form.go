package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitpost/packages/form"
	"github.com/abdul-hamid-achik/hitpost/packages/output"
)

var formOutputFlag string

var formCmd = &cobra.Command{
	Use:   "form <urlencoded|multipart> [data|-]",
	Short: "Decode form data into key/value pairs",
	Long: `Decode a url-encoded or multipart-style form string into ordered pairs.

The data is read from the argument, or from stdin when it is "-" or omitted.

Examples:
  hitpost form urlencoded 'name=John%20Doe&age=30'
  printf 'name=John\nage=30' | hitpost form multipart
  hitpost form urlencoded 'a=1&a=2' -o json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: formCommand,
}

func init() {
	formCmd.Flags().StringVarP(&formOutputFlag, "output", "o", getEnvString("HITPOST_OUTPUT", ""), "Output format: console or json (env: HITPOST_OUTPUT)")
}

func formCommand(cmd *cobra.Command, args []string) error {
	raw := "-"
	if len(args) == 2 {
		raw = args[1]
	}
	if raw == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		raw = strings.TrimRight(string(data), "\r\n")
	}

	pairs, err := form.ParseFormData(raw, args[0])
	if err != nil {
		if errors.Is(err, form.ErrUnsupportedFormType) {
			return withExit(ExitUsageError, fmt.Errorf("%w: %s", err, args[0]))
		}
		return err
	}

	switch strings.ToLower(outputFormat(formOutputFlag)) {
	case output.FormatJSON:
		tuples := make([][2]string, len(pairs))
		for i, p := range pairs {
			tuples[i] = [2]string{p.Key, p.Value}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		return enc.Encode(tuples)
	case "", output.FormatConsole:
		for _, p := range pairs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", p.Key, p.Value)
		}
		return nil
	default:
		return withExit(ExitUsageError, fmt.Errorf("unknown output format: %q (use console or json)", outputFormat(formOutputFlag)))
	}
}
