package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-activity-charts/internal/config"
	"github.com/naka-gawa/github-activity-charts/internal/domain"
	"github.com/naka-gawa/github-activity-charts/internal/render"
	"github.com/naka-gawa/github-activity-charts/internal/store"
)

const (
	defaultRenderWindow = 90
	unknownOwner        = "unknown"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Renders SVG charts from the saved tables",
}

var renderLanguagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "Renders the projects-by-language bar chart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return renderLanguagesStage(cfg, cmd.OutOrStdout())
	},
}

var renderActivityCmd = &cobra.Command{
	Use:   "activity [days]",
	Short: "Renders the coding consistency chart of one window",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		days := defaultRenderWindow
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return &ExitError{Code: exitUsage, Err: fmt.Errorf("invalid window %q: want a positive number of days", args[0])}
			}
			days = n
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return renderActivityStage(cfg, days, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.AddCommand(renderLanguagesCmd, renderActivityCmd)
}

func renderLanguagesStage(cfg *config.Config, out io.Writer) error {
	st := store.New(cfg.OutputDir)
	rows, err := st.ReadLanguageCounts()
	if err != nil {
		return &ExitError{Code: exitFailure, Err: err}
	}
	meta := st.ReadLanguageMeta()

	var buf bytes.Buffer
	render.LanguageChart(&buf, ownerLabel(meta.Owner, cfg), rows, render.UpdatedLabel(meta.GeneratedAt, cfg.Location, time.Now()))
	return saveChart(st, store.LanguageSVG, buf.Bytes(), out)
}

// renderActivityStage prefers the saved summary and recomputes it from the rows when the metadata is unusable.
func renderActivityStage(cfg *config.Config, days int, out io.Writer) error {
	st := store.New(cfg.OutputDir)
	rows, err := st.ReadDailyActivity(days)
	if err != nil {
		return &ExitError{Code: exitFailure, Err: err}
	}
	meta, ok := st.ReadActivityMeta(days)
	summary := meta.ActivitySummary
	if !ok || summary.WindowDays <= 0 {
		windowDays := len(rows)
		if windowDays == 0 {
			windowDays = days
		}
		summary = domain.Summarize(rows, windowDays)
	}

	var buf bytes.Buffer
	render.ActivityChart(&buf, ownerLabel(meta.Owner, cfg), rows, summary, render.UpdatedLabel(meta.GeneratedAt, cfg.Location, time.Now()))
	return saveChart(st, store.ActivitySVG(days), buf.Bytes(), out)
}

func ownerLabel(saved string, cfg *config.Config) string {
	switch {
	case saved != "":
		return saved
	case cfg.Owner != "":
		return cfg.Owner
	default:
		return unknownOwner
	}
}

func saveChart(st *store.Store, name string, data []byte, out io.Writer) error {
	if err := st.WriteFile(name, data); err != nil {
		return &ExitError{Code: exitFailure, Err: err}
	}
	fmt.Fprintf(out, "Saved %s\n", st.Path(name))
	return nil
}
