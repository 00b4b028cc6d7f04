package tokens

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/eventcall-app/eventcall/internal/common"
)

const indexKey = "token_index"

// Policy hands out the active token and rotates through the candidate list
// when the API rate limit is exhausted. Rotation takes effect for the next
// outgoing request only; in-flight requests keep the token they started with.
type Policy struct {
	mu     sync.Mutex
	tokens []string
	store  Store
	index  int

	expiry    time.Time
	onExpired func()

	now func() time.Time // test seam
}

// Option configures a Policy.
type Option func(*Policy)

// WithExpiry marks the whole credential set as invalid after the given
// instant. Token returns common.ErrTokenExpired past it, after invoking the
// expiration callback (if any).
func WithExpiry(at time.Time, onExpired func()) Option {
	return func(p *Policy) {
		p.expiry = at
		p.onExpired = onExpired
	}
}

// NewPolicy builds a Policy over the candidate tokens, restoring the active
// index from store. A single-token list never rotates.
func NewPolicy(candidates []string, store Store, opts ...Option) (*Policy, error) {
	p := &Policy{tokens: candidates, store: store, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}

	if store != nil {
		raw, ok, err := store.Get(indexKey)
		if err != nil {
			return nil, fmt.Errorf("restore token index: %w", err)
		}
		if ok {
			idx, err := strconv.Atoi(raw)
			if err == nil && idx >= 0 {
				p.index = idx
			}
		}
	}
	return p, nil
}

// Token returns the active token. It fails with common.ErrTokenExpired once
// the configured expiry has passed; callers must not proceed with a
// known-expired token.
func (p *Policy) Token() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.expiry.IsZero() && p.now().After(p.expiry) {
		if p.onExpired != nil {
			p.onExpired()
		}
		return "", common.ErrTokenExpired
	}

	if len(p.tokens) == 0 {
		return "", nil
	}
	return p.tokens[p.index%len(p.tokens)], nil
}

// Advance rotates to the next candidate and persists the new index
// immediately. With fewer than two tokens configured it is a no-op.
func (p *Policy) Advance() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.tokens) < 2 {
		return nil
	}

	p.index = (p.index + 1) % len(p.tokens)
	if p.store != nil {
		if err := p.store.Set(indexKey, strconv.Itoa(p.index)); err != nil {
			return fmt.Errorf("persist token index: %w", err)
		}
	}
	return nil
}

// OnRateLimited satisfies the github.TokenProvider notification hook.
// A persistence failure here must not break the request path.
func (p *Policy) OnRateLimited() {
	_ = p.Advance()
}

// Index reports the current rotation position (for diagnostics and tests).
func (p *Policy) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}
