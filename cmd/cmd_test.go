package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-activity-charts/internal/config"
	"github.com/naka-gawa/github-activity-charts/internal/domain"
	"github.com/naka-gawa/github-activity-charts/internal/gateway"
	"github.com/naka-gawa/github-activity-charts/internal/store"
)

// newTestConfig points an anonymous run at server.
func newTestConfig(t *testing.T, server *httptest.Server) *config.Config {
	t.Helper()
	return &config.Config{
		Owner:          "octo",
		Location:       time.UTC,
		OutputDir:      filepath.Join(t.TempDir(), "img"),
		Windows:        []int{7},
		ActivitySource: "auto",
		HTTPTimeout:    5 * time.Second,
		APIURL:         server.URL,
	}
}

// githubStub serves one plain repository and one fork. A nil languages handler serves a Go/Shell breakdown.
func githubStub(t *testing.T, commitDate time.Time, languages http.HandlerFunc) *httptest.Server {
	t.Helper()
	if languages == nil {
		languages = func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"Go":1200,"Shell":40}`)
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octo/repos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"full_name":"octo/alpha","owner":{"login":"octo"},"language":"Go"},
			{"full_name":"octo/beta","owner":{"login":"octo"},"fork":true,"language":"C"}]`)
	})
	mux.HandleFunc("/repos/octo/alpha/languages", languages)
	mux.HandleFunc("/repos/octo/alpha/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "octo", r.URL.Query().Get("author"))
		fmt.Fprintf(w, `[{"sha":"a1","commit":{"author":{"date":%q}}}]`, commitDate.Format(time.RFC3339))
	})
	mux.HandleFunc("/repos/octo/beta", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"full_name":"octo/beta","owner":{"login":"octo"},"fork":true,"parent":{"full_name":"upstream/beta"}}`)
	})
	mux.HandleFunc("/repos/octo/beta/commits", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestStages_FetchThenRender(t *testing.T) {
	server := githubStub(t, time.Now().UTC(), nil)
	cfg := newTestConfig(t, server)
	logger, hook := test.NewNullLogger()
	var out bytes.Buffer

	err := runStages(logger, []stage{
		{name: "fetch", run: func() error { return fetchStage(context.Background(), cfg, logger, &out) }},
		{name: "render languages", run: func() error { return renderLanguagesStage(cfg, &out) }},
		{name: "render activity 7", run: func() error { return renderActivityStage(cfg, 7, &out) }},
	})
	require.NoError(t, err)

	st := store.New(cfg.OutputDir)
	langs, err := st.ReadLanguageCounts()
	require.NoError(t, err)
	assert.Equal(t, []domain.LanguageCount{{Language: "Go", Count: 1}, {Language: "Shell", Count: 1}}, langs)

	days, err := st.ReadDailyActivity(7)
	require.NoError(t, err)
	require.Len(t, days, 7)
	assert.Equal(t, 1, days[6].Count)

	meta, ok := st.ReadActivityMeta(7)
	require.True(t, ok)
	assert.Equal(t, "commits", meta.Source)
	assert.Equal(t, 14.3, meta.CodedDaysPercent)

	chart, err := os.ReadFile(st.Path(store.ActivitySVG(7)))
	require.NoError(t, err)
	assert.Contains(t, string(chart), "octo coded on 1/7 days (14.3%)")
	_, err = os.Stat(st.Path(store.LanguageSVG))
	assert.NoError(t, err)

	assert.Contains(t, out.String(), "Saved "+st.Path(store.LanguageCSV))
	assert.Contains(t, out.String(), "Saved "+st.Path(store.ActivitySVG(7)))
	require.NotEmpty(t, hook.Entries)
	assert.Contains(t, hook.Entries[0].Message, "GH_TOKEN is not set")
}

func TestFetchStage_LanguageFallbackLeavesActivityComplete(t *testing.T) {
	server := githubStub(t, time.Now().UTC(), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"API rate limit exceeded for 127.0.0.1."}`)
	})
	cfg := newTestConfig(t, server)
	logger, hook := test.NewNullLogger()

	require.NoError(t, fetchStage(context.Background(), cfg, logger, &bytes.Buffer{}))

	st := store.New(cfg.OutputDir)
	langs, err := st.ReadLanguageCounts()
	require.NoError(t, err)
	assert.Equal(t, []domain.LanguageCount{{Language: "Go", Count: 1}}, langs, "the primary language stands in for the breakdown")

	meta, ok := st.ReadActivityMeta(7)
	require.True(t, ok)
	assert.Empty(t, meta.Degraded)
	assert.Equal(t, 1, meta.CodedDays)

	var sites []interface{}
	for _, entry := range hook.Entries {
		if site, ok := entry.Data["site"]; ok {
			sites = append(sites, site)
		}
	}
	assert.Equal(t, []interface{}{"languages"}, sites)
}

func TestFetchStage_RateLimitedListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
	}))
	t.Cleanup(server.Close)
	cfg := newTestConfig(t, server)
	logger, _ := test.NewNullLogger()

	err := fetchStage(context.Background(), cfg, logger, &bytes.Buffer{})

	require.Error(t, err)
	assert.Equal(t, exitFailure, exitCode(err))
	assert.Contains(t, err.Error(), rateLimitHint)
	assert.True(t, gateway.IsRateLimited(err))
	_, statErr := os.Stat(filepath.Join(cfg.OutputDir, store.LanguageCSV))
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no table is written when listing fails")
}

func TestFetchStage_ConfigurationErrors(t *testing.T) {
	server := githubStub(t, time.Now().UTC(), nil)
	logger, _ := test.NewNullLogger()

	testCases := []struct {
		name   string
		modify func(cfg *config.Config)
	}{
		{name: "owner missing", modify: func(cfg *config.Config) { cfg.Owner = "" }},
		{name: "unknown strategy", modify: func(cfg *config.Config) { cfg.ActivitySource = "telepathy" }},
		{name: "calendar without token", modify: func(cfg *config.Config) { cfg.ActivitySource = "calendar" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := newTestConfig(t, server)
			tc.modify(cfg)
			err := fetchStage(context.Background(), cfg, logger, &bytes.Buffer{})
			require.Error(t, err)
			assert.Equal(t, exitUsage, exitCode(err))
		})
	}
}

func TestRenderActivityStage_RecomputesMissingSummary(t *testing.T) {
	cfg := &config.Config{Location: time.UTC, OutputDir: t.TempDir()}
	csv := "date,count\n2024-06-28,2\n2024-06-29,0\n2024-06-30,1\n2024-07-01,0\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDir, store.ActivityCSV(4)), []byte(csv), 0o644))
	var out bytes.Buffer

	require.NoError(t, renderActivityStage(cfg, 4, &out))

	chart, err := os.ReadFile(filepath.Join(cfg.OutputDir, store.ActivitySVG(4)))
	require.NoError(t, err)
	assert.Contains(t, string(chart), "unknown coded on 2/4 days (50.0%)")
	assert.Contains(t, string(chart), "Total contributions in window: 3")
}

func TestRunStages_StopsAtFirstFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var ran []string
	step := func(name string, err error) stage {
		return stage{name: name, run: func() error {
			ran = append(ran, name)
			return err
		}}
	}

	err := runStages(logger, []stage{
		step("fetch", nil),
		step("render languages", &ExitError{Code: exitUsage, Err: errors.New("boom")}),
		step("render activity 90", nil),
	})

	require.Error(t, err)
	assert.Equal(t, []string{"fetch", "render languages"}, ran)
	assert.Equal(t, exitUsage, exitCode(err))
	assert.Equal(t, "render languages: boom", err.Error())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitFailure, exitCode(errors.New("plain")))
	assert.Equal(t, exitUsage, exitCode(fmt.Errorf("wrapped: %w", &ExitError{Code: exitUsage, Err: errors.New("x")})))

	rateLimited := &gateway.APIError{Kind: gateway.RateLimited, URL: "GET users/octo/repos", Err: errors.New("quota")}
	err := fetchFailure(fmt.Errorf("failed to list repositories: %w", rateLimited))
	assert.Equal(t, exitFailure, exitCode(err))
	assert.Contains(t, err.Error(), "Set GH_TOKEN")
}
