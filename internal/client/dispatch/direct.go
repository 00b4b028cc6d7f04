package dispatch

import (
	"context"
	"time"

	"github.com/eventcall-app/eventcall/internal/github"
	"github.com/eventcall-app/eventcall/internal/logging"
)

// Direct delivers dispatches straight to the GitHub API with a bearer
// token. GitHub constrains the shape of client_payload, so the actual
// payload is nested under a "data" key next to request metadata.
type Direct struct {
	gh     *github.Client
	origin string
	logger logging.Logger

	// csrfToken supplies the page-level CSRF token the backend automation
	// echoes into submission metadata. May be nil.
	csrfToken func() string

	now func() time.Time // test seam
}

func NewDirect(gh *github.Client, origin string, csrfToken func() string, logger logging.Logger) *Direct {
	return &Direct{
		gh:        gh,
		origin:    origin,
		csrfToken: csrfToken,
		logger:    logger.With("transport", "direct"),
		now:       time.Now,
	}
}

func (d *Direct) Dispatch(ctx context.Context, eventType string, payload any) (*Result, error) {
	clientPayload := map[string]any{
		"data":      payload,
		"timestamp": d.now().UTC().Format(time.RFC3339),
		"origin":    d.origin,
		"referer":   d.origin,
	}
	if d.csrfToken != nil {
		clientPayload["csrf_token"] = d.csrfToken()
	}

	d.logger.Debug(ctx, "dispatching", "event_type", eventType)
	if err := d.gh.RepositoryDispatch(ctx, eventType, clientPayload); err != nil {
		return nil, err
	}
	return &Result{Success: true}, nil
}
