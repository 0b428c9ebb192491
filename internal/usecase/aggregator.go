package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/github-activity-charts/internal/domain"
	"github.com/naka-gawa/github-activity-charts/internal/gateway"
)

// LanguageAggregator counts, per language, the repositories in which the language was detected.
type LanguageAggregator struct {
	fetcher gateway.Fetcher
	forks   *ForkResolver
	session *Session
	logger  *logrus.Logger
}

// NewLanguageAggregator creates a new LanguageAggregator instance.
func NewLanguageAggregator(fetcher gateway.Fetcher, session *Session, logger *logrus.Logger) *LanguageAggregator {
	return &LanguageAggregator{
		fetcher: fetcher,
		forks:   NewForkResolver(fetcher, session),
		session: session,
		logger:  logger,
	}
}

// Aggregate builds the language count table for repos.
// Forks count only when the owner contributed to them, which is only checked with a token.
// Every qualifying repository adds one to each distinct language it contains.
func (a *LanguageAggregator) Aggregate(ctx context.Context, repos []domain.Repository, owner string) ([]domain.LanguageCount, error) {
	a.logger.Debugf("Usecase: Counting languages across %d repositories...", len(repos))
	counts := make(map[string]int)
	for _, repo := range repos {
		ok, err := a.qualifies(ctx, repo, owner)
		if err != nil {
			return nil, err
		}
		if !ok {
			a.logger.Debugf("  Skipping fork %s", repo.FullName)
			continue
		}
		languages, err := a.detectLanguages(ctx, repo)
		if err != nil {
			return nil, err
		}
		for _, language := range languages {
			counts[language]++
		}
	}
	a.logger.Debugln("Usecase: Language aggregation complete.")
	return domain.SortLanguageCounts(counts), nil
}

func (a *LanguageAggregator) qualifies(ctx context.Context, repo domain.Repository, owner string) (bool, error) {
	if !repo.Fork {
		return true, nil
	}
	// Contributor checks cost extra calls per fork; anonymous runs exclude forks outright.
	if !a.fetcher.Authenticated() {
		return false, nil
	}
	return a.forks.IsOwnerContributor(ctx, repo.FullName, owner)
}

// detectLanguages returns the distinct languages of repo. When the breakdown is rate limited
// or empty the primary language is used, then OtherLanguage.
func (a *LanguageAggregator) detectLanguages(ctx context.Context, repo domain.Repository) ([]string, error) {
	breakdown, err := a.fetcher.FetchLanguages(ctx, repo.FullName)
	if err != nil {
		if !gateway.IsRateLimited(err) {
			return nil, fmt.Errorf("failed to fetch languages of %s: %w", repo.FullName, err)
		}
		a.session.WarnOnce(SiteLanguages, "Rate limit exceeded while fetching per-repo languages; using primary-language fallback.")
	}
	languages := make([]string, 0, len(breakdown))
	for language, bytes := range breakdown {
		if language != "" && bytes > 0 {
			languages = append(languages, language)
		}
	}
	if len(languages) > 0 {
		return languages, nil
	}
	if repo.PrimaryLanguage != "" {
		return []string{repo.PrimaryLanguage}, nil
	}
	return []string{domain.OtherLanguage}, nil
}
