package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitpost/packages/core/config"
	"github.com/abdul-hamid-achik/hitpost/packages/log"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag    string
	logLevelFlag  string
	logFormatFlag string
	noColorFlag   bool
)

// settings is the loaded config file merged over the defaults. It is
// populated before any command runs.
var settings = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "hitpost",
	Short: "Send HTTP requests from the terminal.",
	Long: `hitpost sends HTTP requests described on the command line or saved in a
YAML collection, prints the normalized response, and can check, record,
benchmark or export it.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		if !isReported(err) {
			fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed).Sprint("Error:"), err)
		}
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("HITPOST_CONFIG", ""), "Path to config file (env: HITPOST_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", getEnvString("HITPOST_LOG_LEVEL", ""), "Log level: debug, info, warn, error (env: HITPOST_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", getEnvString("HITPOST_LOG_FORMAT", ""), "Log format: text or json (env: HITPOST_LOG_FORMAT)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("HITPOST_NO_COLOR", false), "Disable colored output (env: HITPOST_NO_COLOR)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return withExit(ExitUsageError, err)
	})

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(formCmd)
	rootCmd.AddCommand(codeCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the config file and configures logging and color.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExit(ExitConfigError, err)
	}
	settings = cfg

	if noColorFlag {
		settings.NoColor = config.BoolPtr(true)
	}
	if settings.GetNoColor() {
		color.NoColor = true
	}

	levelName := settings.LogLevel
	if logLevelFlag != "" {
		levelName = logLevelFlag
	}
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return withExit(ExitConfigError, err)
	}

	format := settings.LogFormat
	if logFormatFlag != "" {
		format = logFormatFlag
	}
	switch format {
	case "", "text", "json":
	default:
		return withExit(ExitConfigError, fmt.Errorf("unknown log format: %q (use text or json)", format))
	}

	log.Init(log.WithLevel(level), log.WithJSON(format == "json"), log.WithWriter(cmd.ErrOrStderr()))
	return nil
}
