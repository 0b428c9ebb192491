package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/github-activity-charts/internal/domain"
	"github.com/naka-gawa/github-activity-charts/internal/gateway"
)

// DailyActivitySource produces per-day activity counts for an owner over a window.
// Counts may include dates outside the window; a rate-limited source returns what it
// gathered so far instead of an error.
type DailyActivitySource interface {
	Name() string
	// NeedsRepositories reports whether DailyCounts reads the repository list.
	NeedsRepositories() bool
	DailyCounts(ctx context.Context, repos []domain.Repository, owner string, w domain.Window) (map[string]int, error)
}

// ActivityAggregator builds daily activity tables from a DailyActivitySource.
type ActivityAggregator struct {
	fetcher  gateway.Fetcher
	source   DailyActivitySource
	logger   *logrus.Logger
	location *time.Location
	now      func() time.Time

	repos  []domain.Repository
	listed bool
}

// NewActivityAggregator creates a new ActivityAggregator reporting days in loc.
func NewActivityAggregator(fetcher gateway.Fetcher, source DailyActivitySource, loc *time.Location, logger *logrus.Logger) *ActivityAggregator {
	return &ActivityAggregator{
		fetcher:  fetcher,
		source:   source,
		logger:   logger,
		location: loc,
		now:      time.Now,
	}
}

// Aggregate returns exactly windowDays rows ending today in the reporting timezone.
// The repository list is fetched at most once per aggregator.
func (a *ActivityAggregator) Aggregate(ctx context.Context, owner string, windowDays int) (domain.DailyActivity, error) {
	w := domain.NewWindow(a.now(), a.location, windowDays)
	a.logger.Debugf("Usecase: Aggregating %d days of activity (%s) with the %s source...", windowDays, w.Start.Format(domain.DateLayout), a.source.Name())

	var repos []domain.Repository
	if a.source.NeedsRepositories() {
		var err error
		if repos, err = a.repositories(ctx, owner); err != nil {
			return domain.DailyActivity{}, err
		}
	}

	counts, err := a.source.DailyCounts(ctx, repos, owner, w)
	if err != nil {
		return domain.DailyActivity{}, fmt.Errorf("failed to aggregate daily activity: %w", err)
	}
	return domain.DailyActivity{Window: w, Days: w.Fill(counts), Source: a.source.Name()}, nil
}

func (a *ActivityAggregator) repositories(ctx context.Context, owner string) ([]domain.Repository, error) {
	if a.listed {
		return a.repos, nil
	}
	repos, err := a.fetcher.ListRepositories(ctx, owner, gateway.ScopeContributed)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	a.repos, a.listed = repos, true
	return repos, nil
}
