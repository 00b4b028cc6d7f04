package github

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/eventcall-app/eventcall/internal/common"
)

// DispatchError marks a repository_dispatch failure. ShouldFallback is set
// when GitHub answered 404 "Not Found", which means the workflow is missing
// or disabled; the RSVP pipeline treats that as a signal to try the next
// tier rather than a hard failure.
type DispatchError struct {
	Err            error
	ShouldFallback bool
}

func (e *DispatchError) Error() string { return e.Err.Error() }
func (e *DispatchError) Unwrap() error { return e.Err }

// RepositoryDispatch emits a repository_dispatch event carrying the given
// client payload. GitHub responds 204 on success.
func (c *Client) RepositoryDispatch(ctx context.Context, eventType string, clientPayload any) error {
	body := map[string]any{
		"event_type":     eventType,
		"client_payload": clientPayload,
	}

	err := c.Do(ctx, http.MethodPost, c.RepoPath("dispatches"), body, nil, "dispatch "+eventType)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound &&
		strings.Contains(apiErr.Message, "Not Found") {
		return &DispatchError{Err: err, ShouldFallback: true}
	}
	if errors.Is(err, common.ErrNotFound) {
		return &DispatchError{Err: err, ShouldFallback: true}
	}
	return &DispatchError{Err: err}
}
