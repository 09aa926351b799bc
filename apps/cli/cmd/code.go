package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitpost/packages/codegen"
)

var (
	codeReq      requestFlags
	codeListFlag bool
)

var codeCmd = &cobra.Command{
	Use:   "code <template> <url|request>",
	Short: "Generate a code snippet for a request",
	Long: `Generate a snippet that sends the same request from another tool or language.

Examples:
  hitpost code curl https://httpbin.org/get
  hitpost code go "Create user" -e staging
  hitpost code python https://httpbin.org/post -d 'a=1' --body-type form --form-subtype urlencoded
  hitpost code --list`,
	Args: func(cmd *cobra.Command, args []string) error {
		if codeListFlag {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: codeCommand,
}

func init() {
	codeReq.register(codeCmd)
	codeCmd.Flags().BoolVar(&codeListFlag, "list", false, "List the available templates")
}

func codeCommand(cmd *cobra.Command, args []string) error {
	if codeListFlag {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, t := range codegen.Templates() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, t.Language)
		}
		return tw.Flush()
	}

	id := strings.ToLower(args[0])
	if _, ok := codegen.Lookup(id); !ok {
		return withExit(ExitUsageError, fmt.Errorf("unknown template %q (available: %s)", args[0], strings.Join(codegen.IDs(), ", ")))
	}

	w, _, err := codeReq.build(cmd.Context(), args[1])
	if err != nil {
		return err
	}

	snippet, err := codegen.Generate(id, *w)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), snippet)
	return nil
}
