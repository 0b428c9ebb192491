package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-activity-charts/internal/config"
	"github.com/naka-gawa/github-activity-charts/internal/gateway"
	"github.com/naka-gawa/github-activity-charts/internal/store"
	"github.com/naka-gawa/github-activity-charts/internal/usecase"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetches languages and daily activity from GitHub and saves them as tables",
	Long: `Lists the repositories owned by the target user, counts each detected language
once per repository, then builds one daily activity table per window. Tables are
written as CSV with a JSON metadata file next to each.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return fetchStage(cmd.Context(), cfg, newLogger(cmd), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addFetchFlags(fetchCmd)
}

func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().IntSlice("windows", nil, "Activity windows in days (default $ACTIVITY_WINDOWS or 90,180,365)")
	cmd.Flags().String("strategy", "", "Daily activity source: auto, calendar or commits (default $ACTIVITY_STRATEGY or auto)")
}

func fetchStage(ctx context.Context, cfg *config.Config, logger *logrus.Logger, out io.Writer) error {
	if err := cfg.RequireOwner(); err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	githubGateway, err := gateway.NewGitHubGateway(gateway.Options{
		Token:            cfg.Token,
		Timeout:          cfg.HTTPTimeout,
		RateLimitMaxWait: cfg.RateLimitMaxWait,
		APIURL:           cfg.APIURL,
		GraphQLURL:       cfg.GraphQLURL,
	}, logger)
	if err != nil {
		return &ExitError{Code: exitFailure, Err: fmt.Errorf("failed to create GitHub gateway: %w", err)}
	}
	if !githubGateway.Authenticated() {
		logger.Warn("GH_TOKEN is not set; only public repositories are visible and forks are not counted.")
	}

	session := usecase.NewSession(logger)
	source, err := usecase.NewDailyActivitySource(cfg.ActivitySource, githubGateway, session, logger)
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}
	st := store.New(cfg.OutputDir)

	logger.Debugf("[1/3] Listing repositories owned by %s...", cfg.Owner)
	repos, err := githubGateway.ListRepositories(ctx, cfg.Owner, gateway.ScopeOwned)
	if err != nil {
		return fetchFailure(fmt.Errorf("failed to list repositories: %w", err))
	}

	logger.Debugln("[2/3] Counting detected languages...")
	counts, err := usecase.NewLanguageAggregator(githubGateway, session, logger).Aggregate(ctx, repos, cfg.Owner)
	if err != nil {
		return fetchFailure(err)
	}
	if err := st.WriteLanguageCounts(cfg.Owner, counts, time.Now().In(cfg.Location)); err != nil {
		return &ExitError{Code: exitFailure, Err: err}
	}
	fmt.Fprintf(out, "Saved %s and %s\n", st.Path(store.LanguageCSV), st.Path(store.LanguageJSON))

	logger.Debugf("[3/3] Aggregating daily activity for windows %v...", cfg.Windows)
	aggregator := usecase.NewActivityAggregator(githubGateway, source, cfg.Location, logger)
	for _, days := range cfg.Windows {
		activity, err := aggregator.Aggregate(ctx, cfg.Owner, days)
		if err != nil {
			return fetchFailure(err)
		}
		activity.Degraded = session.DegradedSites(usecase.ActivitySites...)
		if err := st.WriteDailyActivity(cfg.Owner, activity, time.Now().In(cfg.Location)); err != nil {
			return &ExitError{Code: exitFailure, Err: err}
		}
		fmt.Fprintf(out, "Saved %s and %s\n", st.Path(store.ActivityCSV(days)), st.Path(store.ActivityJSON(days)))
	}
	return nil
}
