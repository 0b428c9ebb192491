package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/naka-gawa/github-activity-charts/internal/domain"
	"github.com/naka-gawa/github-activity-charts/internal/gateway"
)

// ForkResolver decides whether forks count as the owner's work and which project they belong to.
type ForkResolver struct {
	fetcher gateway.Fetcher
	session *Session
}

// NewForkResolver creates a new ForkResolver instance.
func NewForkResolver(fetcher gateway.Fetcher, session *Session) *ForkResolver {
	return &ForkResolver{fetcher: fetcher, session: session}
}

// IsOwnerContributor pages through the contributors of fullName until owner shows up
// with at least one contribution or a page comes back empty.
// A rate-limited check counts as "not a contributor".
func (r *ForkResolver) IsOwnerContributor(ctx context.Context, fullName, owner string) (bool, error) {
	for page := 1; ; page++ {
		contributors, err := r.fetcher.ListContributors(ctx, fullName, page)
		if err != nil {
			if gateway.IsRateLimited(err) {
				r.session.WarnOnce(SiteForkContributors, "Rate limit exceeded while checking fork contributors; skipping remaining fork checks.")
				return false, nil
			}
			return false, fmt.Errorf("failed to list contributors of %s: %w", fullName, err)
		}
		if len(contributors) == 0 {
			return false, nil
		}
		for _, c := range contributors {
			if strings.EqualFold(c.Login, owner) && c.Contributions > 0 {
				return true, nil
			}
		}
	}
}

// CanonicalKey returns the upstream project of repo when it is a fork, otherwise its own name.
// Forks listed without linkage are looked up once; a rate-limited lookup keeps the fork's own name.
func (r *ForkResolver) CanonicalKey(ctx context.Context, repo domain.Repository) (string, error) {
	if repo.Upstream != "" || !repo.Fork {
		return repo.CanonicalKey(), nil
	}
	detail, err := r.fetcher.FetchRepository(ctx, repo.FullName)
	if err != nil {
		if gateway.IsRateLimited(err) {
			r.session.WarnOnce(SiteRepositoryDetails, "Rate limit exceeded while resolving fork upstreams; treating remaining forks as standalone projects.")
			return repo.FullName, nil
		}
		return "", fmt.Errorf("failed to resolve upstream of %s: %w", repo.FullName, err)
	}
	return detail.CanonicalKey(), nil
}
