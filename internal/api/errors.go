package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/openprocure/tenderflow/internal/common"
)

// APIError is a non-2xx response from the platform.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("platform API error: %d - %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("platform API error: %d", e.StatusCode)
}

// errorDetail is the error envelope the platform returns on failures.
type errorDetail struct {
	Detail string `json:"detail"`
}

// errorFromResponse maps a non-2xx response to a typed error. 401 and 404
// map to sentinel errors so callers can branch on them; 429 and 5xx are
// retryable, every other 4xx is explicitly not: a retried GET must fail
// fast on a client error instead of replaying it with backoff.
func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var detail errorDetail
	if err := json.Unmarshal(body, &detail); err != nil || detail.Detail == "" {
		detail.Detail = string(body)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: detail.Detail}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s", common.ErrUnauthorized, detail.Detail),
			Retryable: false,
		}
	case http.StatusNotFound:
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s", common.ErrNotFound, detail.Detail),
			Retryable: false,
		}
	case http.StatusTooManyRequests:
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s", common.ErrRateLimit, detail.Detail),
			Retryable: true,
		}
	default:
		if resp.StatusCode >= 500 {
			return &common.RetryableError{Err: apiErr, Retryable: true}
		}
		return &common.RetryableError{Err: apiErr, Retryable: false}
	}
}

// StatusCode extracts the HTTP status from an error chain, or 0 if the
// error did not originate from an HTTP response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
