package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetches, then renders every chart",
	Long: `Runs fetch, render languages and render activity for each window in order.
The first failing step stops the run with that step's exit code.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cmd)
		out := cmd.OutOrStdout()

		stages := []stage{
			{name: "fetch", run: func() error { return fetchStage(cmd.Context(), cfg, logger, out) }},
			{name: "render languages", run: func() error { return renderLanguagesStage(cfg, out) }},
		}
		for _, days := range cfg.Windows {
			stages = append(stages, stage{
				name: fmt.Sprintf("render activity %d", days),
				run:  func() error { return renderActivityStage(cfg, days, out) },
			})
		}
		return runStages(logger, stages)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addFetchFlags(runCmd)
}

type stage struct {
	name string
	run  func() error
}

func runStages(logger *logrus.Logger, stages []stage) error {
	for i, s := range stages {
		logger.Debugf("Step %d/%d: %s", i+1, len(stages), s.name)
		if err := s.run(); err != nil {
			return &ExitError{Code: exitCode(err), Err: fmt.Errorf("%s: %w", s.name, err)}
		}
	}
	return nil
}
