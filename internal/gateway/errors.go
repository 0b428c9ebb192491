package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
)

// ErrorKind classifies a failed GitHub call.
type ErrorKind int

const (
	// RequestFailed covers transport errors, timeouts and non-rate-limit HTTP errors.
	RequestFailed ErrorKind = iota + 1
	// RateLimited is reported when GitHub refuses the call because of a rate limit.
	RateLimited
	// GraphQLError is reported when a GraphQL response carries an errors field.
	GraphQLError
)

func (k ErrorKind) String() string {
	switch k {
	case RequestFailed:
		return "RequestFailed"
	case RateLimited:
		return "RateLimited"
	case GraphQLError:
		return "GraphQLError"
	default:
		return "Unknown"
	}
}

// ErrTokenRequired is returned by calls that GitHub only serves to authenticated callers.
var ErrTokenRequired = errors.New("a GitHub token is required for this request")

// APIError is the error returned by every Fetcher method.
type APIError struct {
	Kind ErrorKind
	// URL identifies the offending request, e.g. "GET repos/octo/app/languages".
	URL    string
	Status int
	Err    error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case RateLimited:
		return fmt.Sprintf("GitHub API rate limit exceeded for %s", e.URL)
	case GraphQLError:
		return fmt.Sprintf("GitHub GraphQL query failed for %s: %v", e.URL, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("GitHub API request failed for %s: %d %s: %v", e.URL, e.Status, http.StatusText(e.Status), e.Err)
	}
	return fmt.Sprintf("GitHub API request failed for %s: %v", e.URL, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err, or any error it wraps, is a RateLimited APIError.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == RateLimited
}

func containsRateLimit(s string) bool {
	return strings.Contains(strings.ToLower(s), "rate limit")
}

// classifyREST converts a go-github error into an APIError.
func classifyREST(endpoint string, err error) error {
	var (
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
		respErr  *github.ErrorResponse
	)
	switch {
	case errors.As(err, &rateErr):
		return &APIError{Kind: RateLimited, URL: endpoint, Status: statusOf(rateErr.Response), Err: err}
	case errors.As(err, &abuseErr):
		return &APIError{Kind: RateLimited, URL: endpoint, Status: statusOf(abuseErr.Response), Err: err}
	case errors.As(err, &respErr):
		status := statusOf(respErr.Response)
		if status == http.StatusForbidden && containsRateLimit(respErr.Message) {
			return &APIError{Kind: RateLimited, URL: endpoint, Status: status, Err: err}
		}
		return &APIError{Kind: RequestFailed, URL: endpoint, Status: status, Err: err}
	default:
		return &APIError{Kind: RequestFailed, URL: endpoint, Err: err}
	}
}

// classifyGraphQL converts a githubv4 error into an APIError. The client only
// exposes errors as text, so the classification goes by message.
func classifyGraphQL(endpoint string, err error) error {
	var urlErr *url.Error
	switch {
	case containsRateLimit(err.Error()):
		return &APIError{Kind: RateLimited, URL: endpoint, Err: err}
	case errors.As(err, &urlErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		strings.Contains(err.Error(), "non-200 OK status code"):
		return &APIError{Kind: RequestFailed, URL: endpoint, Err: err}
	default:
		return &APIError{Kind: GraphQLError, URL: endpoint, Err: err}
	}
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func isStatus(err error, status int) bool {
	var respErr *github.ErrorResponse
	return errors.As(err, &respErr) && statusOf(respErr.Response) == status
}
