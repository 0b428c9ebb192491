// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-activity-charts/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "github-activity-charts",
	Short: "A CLI tool to chart a GitHub user's languages and coding activity.",
	Long: `github-activity-charts counts the languages detected across a GitHub user's
repositories and the days they contributed code, saves both as CSV tables with
JSON metadata, and renders the tables as SVG charts for a profile README.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose/debug logging")
	flags.String("env-file", ".env", "Path of an optional .env file; variables already set in the environment win")
	flags.String("owner", "", "Target GitHub user (default $GITHUB_REPOSITORY_OWNER)")
	flags.String("output-dir", "", "Directory for tables and charts (default $OUTPUT_DIR or img)")
	flags.String("timezone", "", "IANA timezone that defines calendar days (default $REPORT_TIMEZONE or Asia/Singapore)")
}

// newLogger logs warnings by default and everything with --verbose.
func newLogger(cmd *cobra.Command) *logrus.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// loadConfig merges the command line over the environment. Flags a command does not define are ignored.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	envFile, _ := flags.GetString("env-file")

	var o config.Overrides
	o.Owner, _ = flags.GetString("owner")
	o.OutputDir, _ = flags.GetString("output-dir")
	o.Timezone, _ = flags.GetString("timezone")
	if flags.Lookup("windows") != nil {
		o.Windows, _ = flags.GetIntSlice("windows")
	}
	if flags.Lookup("strategy") != nil {
		o.Source, _ = flags.GetString("strategy")
	}

	cfg, err := config.Load(envFile, o)
	if err != nil {
		return nil, &ExitError{Code: exitUsage, Err: err}
	}
	return cfg, nil
}
