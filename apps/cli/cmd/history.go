package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitpost/packages/history"
	"github.com/abdul-hamid-achik/hitpost/packages/output"
)

var (
	historyOutputFlag  string
	historyLimitFlag   int
	historyVerboseFlag bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded responses",
	Long: `Inspect responses recorded with "hitpost send --save".

Examples:
  hitpost history list
  hitpost history list request_1a2b3c4 --limit 5
  hitpost history show response_9f8e7d6
  hitpost history delete response_9f8e7d6
  hitpost history clear request_1a2b3c4`,
}

var historyListCmd = &cobra.Command{
	Use:   "list [request-id]",
	Short: "List recorded responses, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  historyListCommand,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recorded response",
	Args:  cobra.ExactArgs(1),
	RunE:  historyShowCommand,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded response",
	Args:  cobra.ExactArgs(1),
	RunE:  historyDeleteCommand,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear [request-id]",
	Short: "Delete every recorded response, or those of one request",
	Args:  cobra.MaximumNArgs(1),
	RunE:  historyClearCommand,
}

func init() {
	historyCmd.PersistentFlags().StringVarP(&historyOutputFlag, "output", "o", getEnvString("HITPOST_OUTPUT", ""), "Output format: console or json (env: HITPOST_OUTPUT)")
	historyListCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Maximum number of entries (0 for all)")
	historyShowCmd.Flags().BoolVarP(&historyVerboseFlag, "verbose", "v", false, "Print response headers")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd, historyClearCmd)
}

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	store, err := history.Open(cmd.Context(), settings.HistoryPath)
	if err != nil {
		return nil, withExit(ExitConfigError, fmt.Errorf("opening history: %w", err))
	}
	return store, nil
}

func historyFormatter(cmd *cobra.Command) (output.Formatter, error) {
	f, err := output.New(outputFormat(historyOutputFlag), output.Options{
		Writer:  cmd.OutOrStdout(),
		Verbose: historyVerboseFlag,
		NoColor: settings.GetNoColor(),
	})
	if err != nil {
		return nil, withExit(ExitUsageError, err)
	}
	return f, nil
}

func historyListCommand(cmd *cobra.Command, args []string) error {
	formatter, err := historyFormatter(cmd)
	if err != nil {
		return err
	}
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	var requestID string
	if len(args) == 1 {
		requestID = args[0]
	}
	items, err := store.List(cmd.Context(), requestID, historyLimitFlag)
	if err != nil {
		return err
	}
	formatter.FormatHistory(items)
	return formatter.Flush()
}

func historyShowCommand(cmd *cobra.Command, args []string) error {
	formatter, err := historyFormatter(cmd)
	if err != nil {
		return err
	}
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	item, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("%w: %s", err, args[0])
		}
		return err
	}

	if item.Error != nil {
		formatter.FormatError(item.Error)
	} else {
		formatter.FormatResponse(item.Response)
	}
	return formatter.Flush()
}

func historyDeleteCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("%w: %s", err, args[0])
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", args[0])
	return nil
}

func historyClearCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	var requestID string
	if len(args) == 1 {
		requestID = args[0]
	}
	n, err := store.Clear(cmd.Context(), requestID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entr%s\n", n, pluralY(n))
	return nil
}

func pluralY(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
