package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitpost/packages/assertions"
	"github.com/abdul-hamid-achik/hitpost/packages/extract"
	"github.com/abdul-hamid-achik/hitpost/packages/history"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
	"github.com/abdul-hamid-achik/hitpost/packages/output"
	"github.com/abdul-hamid-achik/hitpost/packages/snapshot"
)

// WatchDebounceDelay is the delay before re-sending after a file change
const WatchDebounceDelay = 200 * time.Millisecond

var (
	sendReq          requestFlags
	sendOutputFlag   string
	sendVerboseFlag  bool
	sendQueryFlags   []string
	sendExpectFlags  []string
	sendExpectStatus int
	sendSchemaFlag   string
	sendSaveFlag     bool
	sendWatchFlag    bool

	sendSnapshotFlag       bool
	sendUpdateSnapshotFlag bool
	sendSnapshotIgnoreFlag []string
)

var sendCmd = &cobra.Command{
	Use:   "send <url|request>",
	Short: "Send a request and print the response",
	Long: `Send an HTTP request and print the normalized response.

The target is either a URL, sent with the request flags, or the name or id of
a request saved in the collection, with the flags applied on top.

Examples:
  hitpost send https://httpbin.org/get
  hitpost send https://httpbin.org/post -d '{"a":1}' -H 'Content-Type: application/json'
  hitpost send "Get user" -e staging --expect 'body.id exists'
  hitpost send https://api.example.com/users --query 'body.0.name'
  hitpost send "Create user" --save --expect-status 201
  hitpost send "List users" --watch
  hitpost send "List users" --snapshot --snapshot-ignore id,createdAt`,
	Args: cobra.ExactArgs(1),
	RunE: sendCommand,
}

func init() {
	sendReq.register(sendCmd)
	sendCmd.Flags().StringVarP(&sendOutputFlag, "output", "o", getEnvString("HITPOST_OUTPUT", ""), "Output format: console or json (env: HITPOST_OUTPUT)")
	sendCmd.Flags().BoolVarP(&sendVerboseFlag, "verbose", "v", false, "Print response headers")
	sendCmd.Flags().StringArrayVarP(&sendQueryFlags, "query", "q", nil, "Print a value from the response instead of the response (repeatable)")
	sendCmd.Flags().StringArrayVar(&sendExpectFlags, "expect", nil, "Assertion such as 'status == 200' or 'body.id exists' (repeatable)")
	sendCmd.Flags().IntVar(&sendExpectStatus, "expect-status", 0, "Fail unless the response has this status")
	sendCmd.Flags().StringVar(&sendSchemaFlag, "schema", "", "Fail unless the body validates against this JSON schema file")
	sendCmd.Flags().BoolVar(&sendSaveFlag, "save", getEnvBool("HITPOST_SAVE", false), "Record the outcome in the response history (env: HITPOST_SAVE)")
	sendCmd.Flags().BoolVarP(&sendWatchFlag, "watch", "w", false, "Re-send whenever the collection or env file changes")
	sendCmd.Flags().BoolVar(&sendSnapshotFlag, "snapshot", false, "Compare status and body with the stored snapshot")
	sendCmd.Flags().BoolVar(&sendUpdateSnapshotFlag, "update-snapshots", false, "Create or overwrite the stored snapshot (implies --snapshot)")
	sendCmd.Flags().StringSliceVar(&sendSnapshotIgnoreFlag, "snapshot-ignore", nil, "Body paths left out of snapshots, e.g. id,meta.requestId")
}

func outputFormat(flag string) string {
	if flag != "" {
		return flag
	}
	return settings.Output
}

func sendCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	checks, err := buildChecks()
	if err != nil {
		return withExit(ExitUsageError, err)
	}
	if _, err := output.New(outputFormat(sendOutputFlag), output.Options{}); err != nil {
		return withExit(ExitUsageError, err)
	}

	err = sendOnce(ctx, cmd, args[0], checks)
	if !sendWatchFlag {
		return err
	}
	if err != nil && !isReported(err) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return watchAndResend(ctx, cmd, func() {
		if err := sendOnce(ctx, cmd, args[0], checks); err != nil && !isReported(err) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	})
}

// checkSet groups the assertions of one send. The schema check is kept apart
// because its file may live outside the working directory.
type checkSet struct {
	expect []*assertions.Assertion
	schema *assertions.Assertion
}

func (c checkSet) empty() bool {
	return len(c.expect) == 0 && c.schema == nil
}

func buildChecks() (checkSet, error) {
	var set checkSet
	expect, err := assertions.ParseAll(sendExpectFlags)
	if err != nil {
		return set, err
	}
	set.expect = expect
	if sendExpectStatus > 0 {
		set.expect = append(set.expect, &assertions.Assertion{
			Subject:  "status",
			Operator: assertions.OpEquals,
			Expected: float64(sendExpectStatus),
		})
	}
	if sendSchemaFlag != "" {
		abs, err := filepath.Abs(sendSchemaFlag)
		if err != nil {
			return set, err
		}
		set.schema = &assertions.Assertion{Subject: "body", Operator: assertions.OpSchema, Expected: abs}
	}
	return set, nil
}

func (c checkSet) evaluate(resp *http.Response) []*assertions.Result {
	cwd, _ := os.Getwd()
	results := assertions.EvaluateAll(resp, c.expect, assertions.WithBaseDir(cwd))
	if c.schema != nil {
		dir := filepath.Dir(c.schema.Expected.(string))
		results = append(results, assertions.NewEvaluator(resp, assertions.WithBaseDir(dir)).Evaluate(c.schema))
	}
	return results
}

func sendOnce(ctx context.Context, cmd *cobra.Command, target string, checks checkSet) error {
	w, requestID, err := sendReq.build(ctx, target)
	if err != nil {
		return err
	}

	formatter, err := output.New(outputFormat(sendOutputFlag), output.Options{
		Writer:  cmd.OutOrStdout(),
		Verbose: sendVerboseFlag,
		NoColor: settings.GetNoColor(),
	})
	if err != nil {
		return withExit(ExitUsageError, err)
	}

	resp, execErr := sendReq.newClient().Do(ctx, w.Request())

	if sendSaveFlag {
		if err := recordHistory(ctx, requestID, resp, execErr); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to save history: %v\n", err)
		}
	}

	if execErr != nil {
		formatter.FormatError(execErr)
		if err := formatter.Flush(); err != nil {
			return err
		}
		return exitSilently(requestExitCode(execErr))
	}

	if len(sendQueryFlags) > 0 {
		values, err := extract.QueryAll(resp, sendQueryFlags)
		if err != nil {
			return withExit(ExitTestFailure, err)
		}
		for _, v := range values {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
	} else {
		formatter.FormatResponse(resp)
	}

	var results []*assertions.Result
	if !checks.empty() {
		results = checks.evaluate(resp)
	}
	if sendSnapshotFlag || sendUpdateSnapshotFlag {
		results = append(results, compareSnapshot(requestID, w, resp).Assertion())
	}
	passed := true
	if len(results) > 0 {
		formatter.FormatAssertions(results)
		passed = assertions.AllPassed(results)
	}

	if err := formatter.Flush(); err != nil {
		return err
	}
	if !passed {
		return exitSilently(ExitTestFailure)
	}
	return nil
}

// compareSnapshot checks resp against the snapshot file kept beside the
// collection. Ad hoc requests are keyed by method and URL.
func compareSnapshot(requestID string, w *http.WireRequest, resp *http.Response) *snapshot.Result {
	key := requestID
	if key == adhocRequestID {
		key = strings.ToUpper(w.Method) + " " + w.URL
	}
	manager := snapshot.NewManager(snapshot.FilePath(sendReq.collectionPath()),
		snapshot.WithUpdate(sendUpdateSnapshotFlag),
		snapshot.WithIgnore(sendSnapshotIgnoreFlag...),
	)
	return manager.Compare(key, resp)
}

func recordHistory(ctx context.Context, requestID string, resp *http.Response, execErr error) error {
	store, err := history.Open(ctx, settings.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.Record(ctx, requestID, resp, execErr)
	return err
}

// watchAndResend calls run after each burst of writes to the collection or
// env file until ctx ends.
func watchAndResend(ctx context.Context, cmd *cobra.Command, run func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := map[string]bool{}
	for _, path := range []string{sendReq.collectionPath(), sendReq.envFile, configFlag} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		watched[abs] = true
		// Editors often replace files, so watch the directory.
		dir := filepath.Dir(abs)
		if err := watcher.Add(dir); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to watch %s: %v\n", dir, err)
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (press Ctrl+C to stop)\n")

	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if abs, _ := filepath.Abs(event.Name); !watched[abs] {
				continue
			}

			mu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintf(cmd.ErrOrStderr(), "\nFile changed: %s\nRe-sending...\n\n", name)
				run()
				fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (press Ctrl+C to stop)\n")
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watcher error: %v\n", err)
		}
	}
}
