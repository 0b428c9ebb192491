package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"

	"github.com/naka-gawa/github-activity-charts/internal/domain"
	"github.com/naka-gawa/github-activity-charts/internal/gateway"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
type mockFetcher struct {
	mock.Mock
	authenticated bool
}

func (m *mockFetcher) Authenticated() bool {
	return m.authenticated
}

func (m *mockFetcher) ListRepositories(ctx context.Context, owner string, scope gateway.ListScope) ([]domain.Repository, error) {
	args := m.Called(ctx, owner, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Repository), args.Error(1)
}

func (m *mockFetcher) ListContributors(ctx context.Context, fullName string, page int) ([]domain.Contributor, error) {
	args := m.Called(ctx, fullName, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contributor), args.Error(1)
}

func (m *mockFetcher) FetchLanguages(ctx context.Context, fullName string) (map[string]int, error) {
	args := m.Called(ctx, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *mockFetcher) FetchRepository(ctx context.Context, fullName string) (domain.Repository, error) {
	args := m.Called(ctx, fullName)
	return args.Get(0).(domain.Repository), args.Error(1)
}

func (m *mockFetcher) ListCommitDates(ctx context.Context, fullName, author string, since, until time.Time, page int) ([]time.Time, int, error) {
	args := m.Called(ctx, fullName, author, since, until, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]time.Time), args.Int(1), args.Error(2)
}

func (m *mockFetcher) FetchContributionCalendar(ctx context.Context, login string, from, to time.Time) (map[string]int, error) {
	args := m.Called(ctx, login, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func rateLimited(url string) error {
	return &gateway.APIError{Kind: gateway.RateLimited, URL: url}
}

func newTestLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

// warnings returns the warning entries recorded by hook.
func warnings(hook *test.Hook) []*logrus.Entry {
	var entries []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			entries = append(entries, e)
		}
	}
	return entries
}
