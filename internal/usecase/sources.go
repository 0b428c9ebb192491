package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/github-activity-charts/internal/domain"
	"github.com/naka-gawa/github-activity-charts/internal/gateway"
)

// Activity source names accepted by NewDailyActivitySource.
const (
	SourceAuto     = "auto"
	SourceCalendar = "calendar"
	SourceCommits  = "commits"
)

// NewDailyActivitySource picks a source by name. "auto" prefers the contribution
// calendar and falls back to commit listings when no token is configured.
func NewDailyActivitySource(name string, fetcher gateway.Fetcher, session *Session, logger *logrus.Logger) (DailyActivitySource, error) {
	switch name {
	case SourceAuto, "":
		if fetcher.Authenticated() {
			return NewCalendarSource(fetcher, session), nil
		}
		return NewCommitSource(fetcher, session, logger), nil
	case SourceCalendar:
		if !fetcher.Authenticated() {
			return nil, fmt.Errorf("the %s activity source needs a token: %w", SourceCalendar, gateway.ErrTokenRequired)
		}
		return NewCalendarSource(fetcher, session), nil
	case SourceCommits:
		return NewCommitSource(fetcher, session, logger), nil
	default:
		return nil, fmt.Errorf("unknown activity source %q (want %s, %s or %s)", name, SourceAuto, SourceCalendar, SourceCommits)
	}
}

// CalendarSource reads the owner's contribution calendar in a single GraphQL query.
type CalendarSource struct {
	fetcher gateway.Fetcher
	session *Session
}

// NewCalendarSource creates a new CalendarSource instance.
func NewCalendarSource(fetcher gateway.Fetcher, session *Session) *CalendarSource {
	return &CalendarSource{fetcher: fetcher, session: session}
}

func (s *CalendarSource) Name() string { return SourceCalendar }

func (s *CalendarSource) NeedsRepositories() bool { return false }

func (s *CalendarSource) DailyCounts(ctx context.Context, _ []domain.Repository, owner string, w domain.Window) (map[string]int, error) {
	counts, err := s.fetcher.FetchContributionCalendar(ctx, owner, w.Start, w.End.Add(-time.Second))
	if err != nil {
		if gateway.IsRateLimited(err) {
			s.session.WarnOnce(SiteCalendar, "Rate limit exceeded while fetching the contribution calendar; reporting zero activity.")
			return map[string]int{}, nil
		}
		return nil, err
	}
	return counts, nil
}

// CommitSource counts the owner's commits per day across repositories. A project and its
// forks are attributed once, from whichever copy shows the most commits in the window.
type CommitSource struct {
	fetcher gateway.Fetcher
	forks   *ForkResolver
	session *Session
	logger  *logrus.Logger
}

// NewCommitSource creates a new CommitSource instance.
func NewCommitSource(fetcher gateway.Fetcher, session *Session, logger *logrus.Logger) *CommitSource {
	return &CommitSource{
		fetcher: fetcher,
		forks:   NewForkResolver(fetcher, session),
		session: session,
		logger:  logger,
	}
}

func (s *CommitSource) Name() string { return SourceCommits }

func (s *CommitSource) NeedsRepositories() bool { return true }

// repoActivity is the commit histogram of one repository within the window.
type repoActivity struct {
	fullName string
	key      string
	days     map[string]int
	total    int
}

// moreActive orders histograms by total, then by name so ties resolve the same way for any input order.
func moreActive(a, b repoActivity) bool {
	if a.total != b.total {
		return a.total > b.total
	}
	return a.fullName < b.fullName
}

func (s *CommitSource) DailyCounts(ctx context.Context, repos []domain.Repository, owner string, w domain.Window) (map[string]int, error) {
	activities := make([]repoActivity, 0, len(repos))
	for _, repo := range repos {
		key, err := s.forks.CanonicalKey(ctx, repo)
		if err != nil {
			return nil, err
		}
		activity, err := s.histogram(ctx, repo.FullName, owner, w)
		activity.key = key
		activities = append(activities, activity)
		if err != nil {
			if !gateway.IsRateLimited(err) {
				return nil, fmt.Errorf("failed to list commits of %s: %w", repo.FullName, err)
			}
			s.session.WarnOnce(SiteCommits, "Rate limit exceeded while listing commits; reporting partial activity.")
			break
		}
	}
	return mergeProjectActivity(activities), nil
}

// mergeProjectActivity keeps the most active repository of every project and sums the survivors per day.
func mergeProjectActivity(activities []repoActivity) map[string]int {
	groups := GroupBy(activities, func(a repoActivity) string { return a.key })
	merged := make(map[string]int)
	for _, best := range FoldGroups(groups, moreActive) {
		for date, count := range best.days {
			merged[date] += count
		}
	}
	return merged
}

// histogram pages through the commits of fullName, returning whatever it counted before an error.
func (s *CommitSource) histogram(ctx context.Context, fullName, owner string, w domain.Window) (repoActivity, error) {
	activity := repoActivity{fullName: fullName, days: make(map[string]int)}
	for page := 1; ; page++ {
		dates, fetched, err := s.fetcher.ListCommitDates(ctx, fullName, owner, w.Start, w.End, page)
		if err != nil {
			return activity, err
		}
		for _, date := range dates {
			if date.Before(w.Start) || !date.Before(w.End) {
				continue
			}
			activity.days[w.DateKey(date)]++
			activity.total++
		}
		if fetched < gateway.PageSize {
			s.logger.Debugf("  %s: %d commits", fullName, activity.total)
			return activity, nil
		}
	}
}
