package assemblyai

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
)

const maxRetryDelay = 10 * time.Second

// statusCode extracts the HTTP status from an SDK API error, or 0.
func statusCode(err error) int {
	var apiErr aai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var apiErrPtr *aai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Status
	}
	return 0
}

// isRetryable reports transport timeouts, 408, 429 and 5xx responses as transient.
// A cancelled context is never retried.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	code := statusCode(err)
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// retryDelay caps the wait and spreads it by 20%.
func retryDelay(backoff time.Duration) time.Duration {
	d := backoff
	if d > maxRetryDelay {
		d = maxRetryDelay
	}
	if d <= 0 {
		return 0
	}
	spread := 0.4*rand.Float64() - 0.2
	return time.Duration(float64(d) * (1 + spread))
}
