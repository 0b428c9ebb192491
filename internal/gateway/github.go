// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/github-activity-charts/internal/domain"
)

// PageSize is the number of records requested per page. A shorter page marks the end of a listing.
const PageSize = 100

const (
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "github-activity-charts"
	detailCacheSize  = 512
	graphqlEndpoint  = "POST graphql"
)

// ListScope selects which repositories ListRepositories returns.
type ListScope int

const (
	// ScopeOwned lists repositories owned by the target user.
	ScopeOwned ListScope = iota
	// ScopeContributed also includes repositories the user collaborates on or reaches through an organization.
	ScopeContributed
)

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// Authenticated reports whether requests carry a token.
	Authenticated() bool
	ListRepositories(ctx context.Context, owner string, scope ListScope) ([]domain.Repository, error)
	// ListContributors returns one page of contributors; an empty page means the listing is exhausted.
	ListContributors(ctx context.Context, fullName string, page int) ([]domain.Contributor, error)
	FetchLanguages(ctx context.Context, fullName string) (map[string]int, error)
	// FetchRepository returns a repository with its upstream linkage resolved.
	FetchRepository(ctx context.Context, fullName string) (domain.Repository, error)
	// ListCommitDates returns the author dates of one page of commits by author in [since, until)
	// and the number of commits on the page, which includes commits without a usable date.
	ListCommitDates(ctx context.Context, fullName, author string, since, until time.Time, page int) ([]time.Time, int, error)
	// FetchContributionCalendar returns contribution counts keyed by date for [from, to].
	FetchContributionCalendar(ctx context.Context, login string, from, to time.Time) (map[string]int, error)
}

// Options configures a GitHubGateway.
type Options struct {
	// Token is forwarded as a bearer token when set.
	Token   string
	Timeout time.Duration
	// RateLimitMaxWait bounds how long a single secondary rate limit may be slept off.
	// Limits that would need a longer sleep are returned to the caller as RateLimited.
	RateLimitMaxWait time.Duration
	UserAgent        string
	// APIURL and GraphQLURL point the gateway at GitHub Enterprise Server or a test double.
	// Empty values mean github.com.
	APIURL     string
	GraphQLURL string
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *logrus.Logger
	authenticated bool
	details       *lru.Cache[string, domain.Repository]
	// timeout bounds every request, including its retries by the rate limit waiter.
	timeout time.Duration
}

// contributionCalendarQuery reads the per-day contribution counts of a user.
type contributionCalendarQuery struct {
	User struct {
		ContributionsCollection struct {
			ContributionCalendar struct {
				Weeks []struct {
					ContributionDays []struct {
						Date              string
						ContributionCount int
					}
				}
			}
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts Options, logger *logrus.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil,
		github_ratelimit.WithSingleSleepLimit(opts.RateLimitMaxWait, func(cbCtx *github_ratelimit.CallbackContext) {
			if cbCtx != nil && cbCtx.Request != nil {
				logger.Debugf("Secondary rate limit on %s exceeds the allowed wait of %s", cbCtx.Request.URL.Path, opts.RateLimitMaxWait)
			}
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}
	httpClient := &http.Client{Transport: transport}

	restClient := github.NewClient(httpClient)
	restClient.UserAgent = defaultUserAgent
	if opts.UserAgent != "" {
		restClient.UserAgent = opts.UserAgent
	}
	graphqlClient := githubv4.NewClient(httpClient)
	if opts.APIURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid API URL %q: %w", opts.APIURL, err)
		}
		restClient.BaseURL = baseURL
		graphqlURL := opts.GraphQLURL
		if graphqlURL == "" {
			graphqlURL = baseURL.String() + "graphql"
		}
		graphqlClient = githubv4.NewEnterpriseClient(graphqlURL, httpClient)
	}

	gateway, err := newGateway(restClient, graphqlClient, opts.Token != "", logger)
	if err != nil {
		return nil, err
	}
	if opts.Timeout > 0 {
		gateway.timeout = opts.Timeout
	}
	return gateway, nil
}

func newGateway(restClient *github.Client, graphqlClient *githubv4.Client, authenticated bool, logger *logrus.Logger) (*GitHubGateway, error) {
	details, err := lru.New[string, domain.Repository](detailCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository cache: %w", err)
	}
	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
		authenticated: authenticated,
		details:       details,
		timeout:       defaultTimeout,
	}, nil
}

// withTimeout bounds a single request. The http.Client carries no Timeout of its own.
func (g *GitHubGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.timeout)
}

func (g *GitHubGateway) Authenticated() bool {
	return g.authenticated
}

// ListRepositories pages through the repository listing until a short or empty page.
// With a token it uses the authenticated listing (private repositories included) and keeps
// only repositories owned by owner for ScopeOwned. Records are deduplicated by full name.
func (g *GitHubGateway) ListRepositories(ctx context.Context, owner string, scope ListScope) ([]domain.Repository, error) {
	g.logger.Debugf("Listing repositories for %s...", owner)
	var repos []domain.Repository
	seen := make(map[string]bool)
	for page := 1; ; page++ {
		batch, endpoint, err := g.listRepositoryPage(ctx, owner, scope, page)
		if err != nil {
			return nil, classifyREST(endpoint, err)
		}
		for _, r := range batch {
			repo := toDomainRepository(r)
			if g.authenticated && scope == ScopeOwned && !repo.OwnedBy(owner) {
				continue
			}
			if seen[repo.FullName] {
				continue
			}
			seen[repo.FullName] = true
			repos = append(repos, repo)
		}
		if len(batch) < PageSize {
			break
		}
		g.logger.Debugln("  Fetching next page of repositories...")
	}
	g.logger.Debugf("Completed listing %d repositories.", len(repos))
	return repos, nil
}

func (g *GitHubGateway) listRepositoryPage(ctx context.Context, owner string, scope ListScope, page int) ([]*github.Repository, string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	listOpts := github.ListOptions{Page: page, PerPage: PageSize}
	if g.authenticated {
		affiliation := "owner"
		if scope == ScopeContributed {
			affiliation = "owner,collaborator,organization_member"
		}
		opts := &github.RepositoryListByAuthenticatedUserOptions{
			Visibility:  "all",
			Affiliation: affiliation,
			Sort:        "updated",
			ListOptions: listOpts,
		}
		repos, _, err := g.restClient.Repositories.ListByAuthenticatedUser(ctx, opts)
		return repos, fmt.Sprintf("GET user/repos?page=%d", page), err
	}
	repoType := "owner"
	if scope == ScopeContributed {
		repoType = "all"
	}
	opts := &github.RepositoryListByUserOptions{Type: repoType, Sort: "updated", ListOptions: listOpts}
	repos, _, err := g.restClient.Repositories.ListByUser(ctx, owner, opts)
	return repos, fmt.Sprintf("GET users/%s/repos?page=%d", owner, page), err
}

func (g *GitHubGateway) ListContributors(ctx context.Context, fullName string, page int) ([]domain.Contributor, error) {
	endpoint := fmt.Sprintf("GET repos/%s/contributors?page=%d", fullName, page)
	owner, name, ok := domain.SplitFullName(fullName)
	if !ok {
		return nil, &APIError{Kind: RequestFailed, URL: endpoint, Err: fmt.Errorf("invalid repository name %q", fullName)}
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	opts := &github.ListContributorsOptions{ListOptions: github.ListOptions{Page: page, PerPage: PageSize}}
	contributors, _, err := g.restClient.Repositories.ListContributors(ctx, owner, name, opts)
	if err != nil {
		return nil, classifyREST(endpoint, err)
	}
	result := make([]domain.Contributor, 0, len(contributors))
	for _, c := range contributors {
		result = append(result, domain.Contributor{Login: c.GetLogin(), Contributions: c.GetContributions()})
	}
	return result, nil
}

func (g *GitHubGateway) FetchLanguages(ctx context.Context, fullName string) (map[string]int, error) {
	endpoint := fmt.Sprintf("GET repos/%s/languages", fullName)
	owner, name, ok := domain.SplitFullName(fullName)
	if !ok {
		return nil, &APIError{Kind: RequestFailed, URL: endpoint, Err: fmt.Errorf("invalid repository name %q", fullName)}
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	languages, _, err := g.restClient.Repositories.ListLanguages(ctx, owner, name)
	if err != nil {
		return nil, classifyREST(endpoint, err)
	}
	return languages, nil
}

// FetchRepository reads a single repository. Results are cached for the lifetime of the gateway.
func (g *GitHubGateway) FetchRepository(ctx context.Context, fullName string) (domain.Repository, error) {
	if repo, ok := g.details.Get(fullName); ok {
		return repo, nil
	}
	endpoint := fmt.Sprintf("GET repos/%s", fullName)
	owner, name, ok := domain.SplitFullName(fullName)
	if !ok {
		return domain.Repository{}, &APIError{Kind: RequestFailed, URL: endpoint, Err: fmt.Errorf("invalid repository name %q", fullName)}
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	r, _, err := g.restClient.Repositories.Get(ctx, owner, name)
	if err != nil {
		return domain.Repository{}, classifyREST(endpoint, err)
	}
	repo := toDomainRepository(r)
	g.details.Add(fullName, repo)
	return repo, nil
}

func (g *GitHubGateway) ListCommitDates(ctx context.Context, fullName, author string, since, until time.Time, page int) ([]time.Time, int, error) {
	endpoint := fmt.Sprintf("GET repos/%s/commits?page=%d", fullName, page)
	owner, name, ok := domain.SplitFullName(fullName)
	if !ok {
		return nil, 0, &APIError{Kind: RequestFailed, URL: endpoint, Err: fmt.Errorf("invalid repository name %q", fullName)}
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	opts := &github.CommitsListOptions{
		Author:      author,
		Since:       since.UTC(),
		Until:       until.UTC(),
		ListOptions: github.ListOptions{Page: page, PerPage: PageSize},
	}
	commits, _, err := g.restClient.Repositories.ListCommits(ctx, owner, name, opts)
	if err != nil {
		// GitHub answers 409 for repositories without any commits.
		if isStatus(err, http.StatusConflict) {
			return nil, 0, nil
		}
		return nil, 0, classifyREST(endpoint, err)
	}
	dates := make([]time.Time, 0, len(commits))
	for _, c := range commits {
		date := c.GetCommit().GetAuthor().GetDate().Time
		if date.IsZero() {
			date = c.GetCommit().GetCommitter().GetDate().Time
		}
		if date.IsZero() {
			continue
		}
		dates = append(dates, date)
	}
	return dates, len(commits), nil
}

func (g *GitHubGateway) FetchContributionCalendar(ctx context.Context, login string, from, to time.Time) (map[string]int, error) {
	if !g.authenticated {
		return nil, &APIError{Kind: RequestFailed, URL: graphqlEndpoint, Err: ErrTokenRequired}
	}
	g.logger.Debugf("Fetching contribution calendar for %s (%s..%s)...", login, from.Format(time.DateOnly), to.Format(time.DateOnly))
	variables := map[string]interface{}{
		"login": githubv4.String(login),
		"from":  githubv4.DateTime{Time: from},
		"to":    githubv4.DateTime{Time: to},
	}
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	var q contributionCalendarQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, classifyGraphQL(graphqlEndpoint, err)
	}
	counts := make(map[string]int)
	for _, week := range q.User.ContributionsCollection.ContributionCalendar.Weeks {
		for _, day := range week.ContributionDays {
			counts[day.Date] += day.ContributionCount
		}
	}
	g.logger.Debugln("Completed fetching contribution calendar.")
	return counts, nil
}

func toDomainRepository(r *github.Repository) domain.Repository {
	repo := domain.Repository{
		FullName:        r.GetFullName(),
		Owner:           r.GetOwner().GetLogin(),
		Fork:            r.GetFork(),
		PrimaryLanguage: r.GetLanguage(),
	}
	switch {
	case r.GetSource().GetFullName() != "":
		repo.Upstream = r.GetSource().GetFullName()
	case r.GetParent().GetFullName() != "":
		repo.Upstream = r.GetParent().GetFullName()
	}
	return repo
}
