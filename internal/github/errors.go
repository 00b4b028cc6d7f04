package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/eventcall-app/eventcall/internal/common"
)

// APIError is a non-2xx response from the GitHub API. It unwraps to the
// sentinel matching its status so callers can branch with errors.Is.
type APIError struct {
	Status      int
	Message     string
	RateLimited bool
}

func newAPIError(resp *http.Response, rateLimited bool) *APIError {
	e := &APIError{Status: resp.StatusCode, RateLimited: rateLimited}

	var body struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && json.Unmarshal(data, &body) == nil {
		e.Message = body.Message
	}
	return e
}

func (e *APIError) Error() string {
	switch {
	case e.Status == http.StatusUnauthorized:
		return fmt.Sprintf("github api 401: token invalid or expired (%s)", e.Message)
	case e.RateLimited:
		return fmt.Sprintf("github api %d: rate limit exhausted (%s)", e.Status, e.Message)
	case e.Status == http.StatusForbidden:
		return fmt.Sprintf("github api 403: insufficient permission (%s)", e.Message)
	default:
		return fmt.Sprintf("github api %d: %s", e.Status, e.Message)
	}
}

func (e *APIError) Unwrap() error {
	switch {
	case e.RateLimited:
		return common.ErrRateLimited
	case e.Status == http.StatusUnauthorized:
		return common.ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return common.ErrPermission
	case e.Status == http.StatusNotFound:
		return common.ErrNotFound
	case e.Status == http.StatusConflict || e.Status == http.StatusUnprocessableEntity:
		return common.ErrConflict
	default:
		return nil
	}
}

func isRetryable(err error) bool {
	if errors.Is(err, common.ErrNetwork) || errors.Is(err, common.ErrRateLimited) {
		return true
	}
	return false
}

func isRateLimited(err error) bool {
	return errors.Is(err, common.ErrRateLimited)
}

// StatusOf returns the HTTP status carried by err, or 0 if err is not an
// APIError. The proxy uses it to mirror GitHub's status to its own clients.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
