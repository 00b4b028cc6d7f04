package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/eventcall-app/eventcall/internal/common"
	"github.com/eventcall-app/eventcall/internal/github"
	"github.com/eventcall-app/eventcall/internal/logging"
)

// csrfGrant is the handshake issued by the proxy. Expires is epoch
// milliseconds.
type csrfGrant struct {
	ClientID string `json:"clientId"`
	Token    string `json:"token"`
	Expires  int64  `json:"expires"`
}

// expiryMargin refreshes a cached grant slightly before the proxy would
// reject it, absorbing clock skew and transfer time.
const expiryMargin = 30 * time.Second

// Proxy delivers dispatches through the same-origin proxy, performing the
// CSRF handshake first and caching the grant until near expiry. The GitHub
// token stays server-side in this mode.
type Proxy struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger

	mu    sync.Mutex
	grant *csrfGrant

	now func() time.Time // test seam
}

func NewProxy(baseURL string, httpClient *http.Client, logger logging.Logger) *Proxy {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Proxy{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger.With("transport", "proxy"),
		now:     time.Now,
	}
}

func (p *Proxy) csrf(ctx context.Context) (*csrfGrant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.grant != nil {
		expires := time.UnixMilli(p.grant.Expires)
		if p.now().Before(expires.Add(-expiryMargin)) {
			return p.grant, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/csrf", nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: csrf handshake: %w", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("csrf handshake: unexpected status %d", resp.StatusCode)
	}

	var grant csrfGrant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, fmt.Errorf("%w: csrf handshake: %w", common.ErrMalformedResponse, err)
	}
	p.grant = &grant
	return p.grant, nil
}

func (p *Proxy) Dispatch(ctx context.Context, eventType string, payload any) (*Result, error) {
	grant, err := p.csrf(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"event_type":     eventType,
		"client_payload": map[string]any{"data": payload},
	})
	if err != nil {
		return nil, fmt.Errorf("encode dispatch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/dispatch", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Client", grant.ClientID)
	req.Header.Set("X-CSRF-Token", grant.Token)
	req.Header.Set("X-CSRF-Expires", strconv.FormatInt(grant.Expires, 10))

	p.logger.Debug(ctx, "dispatching via proxy", "event_type", eventType)
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: dispatch: %w", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return &Result{Success: true}, nil
	}

	var errBody struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&errBody)

	err = fmt.Errorf("proxy dispatch %s: status %d: %s", eventType, resp.StatusCode, errBody.Error)
	switch resp.StatusCode {
	case http.StatusNotFound:
		// the proxy mirrors GitHub's 404 for a disabled workflow
		return nil, &github.DispatchError{Err: fmt.Errorf("%w (%w)", err, common.ErrNotFound), ShouldFallback: true}
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%w (%w)", err, common.ErrUnauthorized)
	case http.StatusForbidden:
		return nil, fmt.Errorf("%w (%w)", err, common.ErrPermission)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w (%w)", err, common.ErrRateLimited)
	default:
		return nil, err
	}
}
