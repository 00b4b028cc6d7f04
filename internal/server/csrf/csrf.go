// Package csrf implements the proxy's stateless handshake: the grant handed
// to a client is an HMAC over its client ID and expiry, so verification
// needs no server-side session store.
package csrf

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Grant is what GET /api/csrf returns. Expires is epoch milliseconds.
type Grant struct {
	ClientID string `json:"clientId"`
	Token    string `json:"token"`
	Expires  int64  `json:"expires"`
}

type Signer struct {
	secret []byte
	ttl    time.Duration

	now func() time.Time // test seam
}

func NewSigner(secret []byte, ttl time.Duration) *Signer {
	return &Signer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue creates a fresh grant for a new client ID.
func (s *Signer) Issue() Grant {
	clientID := uuid.NewString()
	expires := s.now().Add(s.ttl).UnixMilli()
	return Grant{
		ClientID: clientID,
		Token:    s.sign(clientID, expires),
		Expires:  expires,
	}
}

// Verify checks that the token matches the client ID and expiry, and that
// the grant has not expired. The comparison is constant-time.
func (s *Signer) Verify(clientID, token string, expires int64) error {
	if clientID == "" || token == "" {
		return fmt.Errorf("missing csrf credentials")
	}
	if s.now().UnixMilli() >= expires {
		return fmt.Errorf("csrf grant expired")
	}
	want := s.sign(clientID, expires)
	if !hmac.Equal([]byte(want), []byte(token)) {
		return fmt.Errorf("csrf token mismatch")
	}
	return nil
}

func (s *Signer) sign(clientID string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(clientID + ":" + strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
