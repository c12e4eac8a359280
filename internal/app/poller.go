package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/viswiz-io/viswiz-go/viswiz"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultWaitTimeout  = 10 * time.Minute
	maxBackoff          = 30 * time.Second
)

// calculateBackoff doubles base for every consecutive failed poll, capped
// at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// waitForResults polls the build results until the comparison finishes,
// the timeout elapses or a poll fails with an error that will not go away.
func (a *App) waitForResults(ctx context.Context, buildID string, timeout time.Duration) (*viswiz.BuildResults, error) {
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fmt.Fprintln(a.stderr, "Waiting for comparison results...")

	failures := 0
	for {
		results, err := a.client.GetBuildResults(ctx, buildID)
		switch {
		case err == nil && results.Finished():
			return results, nil
		case err == nil:
			failures = 0
			a.logger.Debug("comparison pending", "build", buildID, "status", results.Status, "next_poll", a.pollInterval)
		case ctx.Err() != nil:
			return nil, waitError(buildID, ctx.Err())
		case !retryablePoll(err):
			return nil, fmt.Errorf("get build results: %w", err)
		default:
			failures++
			a.logger.Warn("results poll failed", "build", buildID, "failures", failures,
				"next_poll", calculateBackoff(failures, a.pollInterval), "error", err)
		}

		timer := time.NewTimer(calculateBackoff(failures, a.pollInterval))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, waitError(buildID, ctx.Err())
		case <-timer.C:
		}
	}
}

func waitError(buildID string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timed out waiting for results of build %s: %w", buildID, err)
	}
	return fmt.Errorf("wait for results of build %s: %w", buildID, err)
}

// retryablePoll reports whether a failed poll is worth repeating: transport
// errors, server errors and the few client statuses that are transient.
func retryablePoll(err error) bool {
	code := viswiz.StatusCode(err)
	switch {
	case code == 0:
		return true
	case code >= http.StatusInternalServerError:
		return true
	case code == http.StatusNotFound, code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	}
	return false
}
