package viswiz

import (
	"context"
	"net/http"
	"slices"
)

// RetryPolicy controls automatic retries for a single API call. Retries are
// transparent: the caller only sees the final response or error.
type RetryPolicy struct {
	Limit       int      // Extra attempts after the first one.
	Methods     []string // Methods eligible for retry.
	StatusCodes []int    // Response statuses treated as transient.
}

// uploadRetryPolicy covers image uploads: gateway and overload responses plus
// transport failures.
var uploadRetryPolicy = RetryPolicy{
	Limit:   2,
	Methods: []string{http.MethodPost},
	StatusCodes: []int{
		http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	},
}

// attempts returns the retry budget for method.
func (p RetryPolicy) attempts(method string) int {
	if p.Limit <= 0 || !slices.Contains(p.Methods, method) {
		return 0
	}
	return p.Limit
}

func (p RetryPolicy) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		return true, nil
	}
	return slices.Contains(p.StatusCodes, resp.StatusCode), nil
}
