package cmd

import (
	"errors"
	"fmt"

	"github.com/naka-gawa/github-activity-charts/internal/gateway"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

const rateLimitHint = "GitHub API rate limit exceeded. Set GH_TOKEN to a personal access token and rerun."

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitFailure
}

// fetchFailure replaces rate limit errors with a hint on how to get a larger quota.
func fetchFailure(err error) error {
	if gateway.IsRateLimited(err) {
		return &ExitError{Code: exitFailure, Err: fmt.Errorf("%s (%w)", rateLimitHint, err)}
	}
	return &ExitError{Code: exitFailure, Err: err}
}
