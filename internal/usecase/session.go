// Package usecase contains the business logic of the application.
package usecase

import (
	"slices"
	"sort"

	"github.com/sirupsen/logrus"
)

// Call sites that degrade instead of failing when GitHub rate limits them.
const (
	SiteForkContributors  = "fork-contributors"
	SiteLanguages         = "languages"
	SiteRepositoryDetails = "repository-details"
	SiteCommits           = "commits"
	SiteCalendar          = "calendar"
)

// ActivitySites are the call sites whose fallbacks leave a daily activity table incomplete.
var ActivitySites = []string{SiteCalendar, SiteCommits, SiteRepositoryDetails}

// Session holds the state of one run that is shared by the aggregators.
type Session struct {
	logger *logrus.Logger
	warned map[string]bool
}

// NewSession creates a Session logging to logger.
func NewSession(logger *logrus.Logger) *Session {
	return &Session{logger: logger, warned: make(map[string]bool)}
}

// WarnOnce logs a degradation warning for site, at most once per session.
func (s *Session) WarnOnce(site, format string, args ...interface{}) {
	if s.warned[site] {
		return
	}
	s.warned[site] = true
	s.logger.WithField("site", site).Warnf(format, args...)
}

// Degraded reports whether site has degraded during this session.
func (s *Session) Degraded(site string) bool {
	return s.warned[site]
}

// DegradedSites returns the degraded call sites in name order. When sites are given,
// only those are considered.
func (s *Session) DegradedSites(sites ...string) []string {
	degraded := make([]string, 0, len(s.warned))
	for site := range s.warned {
		if len(sites) == 0 || slices.Contains(sites, site) {
			degraded = append(degraded, site)
		}
	}
	sort.Strings(degraded)
	return degraded
}
