package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eventcall-app/eventcall/internal/client/dispatch"
	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/common"
	"github.com/eventcall-app/eventcall/internal/github"
	"github.com/eventcall-app/eventcall/internal/logging"
)

// IssueLister is the slice of the Issues API the correlator needs.
type IssueLister interface {
	List(ctx context.Context, state string, perPage int) ([]github.Issue, error)
	Close(ctx context.Context, number int) error
}

const (
	defaultTimeout  = 30 * time.Second
	defaultInterval = 2 * time.Second
	pollPageSize    = 50
)

// Correlator authenticates by dispatching a workflow and polling Issues for
// a response whose title embeds the request's correlation ID.
//
// Per attempt: generate the client ID, dispatch the action with the ID in
// the payload, then poll until the deadline. Open issues are checked first;
// a sweep over all states follows, catching responses an earlier run
// already closed. The first title match wins (listing is newest-first).
// The matched issue's body is the response JSON; the issue is then closed
// best-effort.
type Correlator struct {
	transport dispatch.Transport
	issues    IssueLister
	timeout   time.Duration
	interval  time.Duration
	logger    logging.Logger

	now   func() time.Time                                 // test seam
	sleep func(ctx context.Context, d time.Duration) error // test seam
}

// CorrelatorConfig tunes the polling loop. Zero values take the defaults
// (30s timeout, 2s interval).
type CorrelatorConfig struct {
	Timeout  time.Duration
	Interval time.Duration
}

func NewCorrelator(transport dispatch.Transport, issues IssueLister, cfg CorrelatorConfig, logger logging.Logger) *Correlator {
	c := &Correlator{
		transport: transport,
		issues:    issues,
		timeout:   cfg.Timeout,
		interval:  cfg.Interval,
		logger:    logger.With("component", "auth"),
		now:       time.Now,
		sleep:     sleepCtx,
	}
	if c.timeout == 0 {
		c.timeout = defaultTimeout
	}
	if c.interval == 0 {
		c.interval = defaultInterval
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Correlator) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	return c.correlate(ctx, "login", ActionLogin, map[string]any{
		"username": username,
		"password": password,
	})
}

func (c *Correlator) Register(ctx context.Context, reg Registration) (*models.AuthResponse, error) {
	return c.correlate(ctx, "register", ActionRegister, map[string]any{
		"username": reg.Username,
		"password": reg.Password,
		"name":     reg.Name,
		"email":    reg.Email,
		"branch":   reg.Branch,
		"rank":     reg.Rank,
	})
}

func (c *Correlator) UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.AuthResponse, error) {
	return c.correlate(ctx, "profile", ActionUpdateProfile, map[string]any{
		"username": update.Username,
		"name":     update.Name,
		"email":    update.Email,
		"branch":   update.Branch,
		"rank":     update.Rank,
	})
}

func (c *Correlator) correlate(ctx context.Context, purpose, action string, payload map[string]any) (*models.AuthResponse, error) {
	clientID, err := NewClientID(purpose, c.now())
	if err != nil {
		return nil, err
	}
	payload["client_id"] = clientID

	c.logger.Info(ctx, "dispatching auth request", "action", action, "client_id", clientID)
	if _, err := c.transport.Dispatch(ctx, action, payload); err != nil {
		return nil, fmt.Errorf("auth dispatch: %w", err)
	}

	return c.poll(ctx, clientID)
}

func (c *Correlator) poll(ctx context.Context, clientID string) (*models.AuthResponse, error) {
	wantTitle := common.AuthResponsePrefix + clientID
	deadline := c.now().Add(c.timeout)

	for c.now().Before(deadline) {
		issue, err := c.findResponse(ctx, wantTitle)
		if err != nil {
			return nil, err
		}
		if issue != nil {
			return c.consume(ctx, issue)
		}

		if err := c.sleep(ctx, c.interval); err != nil {
			return nil, fmt.Errorf("auth poll: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: no auth response for %s within %s", common.ErrTimeout, clientID, c.timeout)
}

// findResponse scans open issues for the correlation title, then sweeps all
// states. List errors are logged and swallowed: a transient listing failure
// just costs one poll iteration.
func (c *Correlator) findResponse(ctx context.Context, wantTitle string) (*github.Issue, error) {
	for _, state := range []string{"open", "all"} {
		issues, err := c.issues.List(ctx, state, pollPageSize)
		if err != nil {
			c.logger.Warn(ctx, "issue listing failed, will retry", "state", state, "error", err)
			continue
		}
		for i := range issues {
			if strings.Contains(issues[i].Title, wantTitle) {
				return &issues[i], nil
			}
		}
	}
	return nil, nil
}

// consume parses the matched issue's body as the auth response and closes
// the issue. A parse failure is fatal for the attempt; a close failure is
// not.
func (c *Correlator) consume(ctx context.Context, issue *github.Issue) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := json.Unmarshal([]byte(issue.Body), &resp); err != nil {
		return nil, fmt.Errorf("%w: auth response issue #%d: %w", common.ErrMalformedResponse, issue.Number, err)
	}

	if err := c.issues.Close(ctx, issue.Number); err != nil {
		c.logger.Warn(ctx, "failed to close consumed auth response", "issue", issue.Number, "error", err)
	}

	return &resp, nil
}
