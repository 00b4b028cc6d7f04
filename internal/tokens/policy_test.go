package tokens

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eventcall-app/eventcall/internal/common"
)

func TestPolicy_SingleTokenNeverRotates(t *testing.T) {
	p, err := NewPolicy([]string{"only"}, NewMemStore())
	require.NoError(t, err)

	require.NoError(t, p.Advance())
	require.NoError(t, p.Advance())
	require.Zero(t, p.Index())

	tok, err := p.Token()
	require.NoError(t, err)
	require.Equal(t, "only", tok)
}

func TestPolicy_AdvanceWrapsModuloCount(t *testing.T) {
	p, err := NewPolicy([]string{"a", "b", "c"}, NewMemStore())
	require.NoError(t, err)

	expect := func(want string) {
		t.Helper()
		tok, err := p.Token()
		require.NoError(t, err)
		require.Equal(t, want, tok)
	}

	expect("a")
	require.NoError(t, p.Advance())
	expect("b")
	require.NoError(t, p.Advance())
	expect("c")
	require.NoError(t, p.Advance())
	expect("a")
}

func TestPolicy_IndexSurvivesReconstruction(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	p1, err := NewPolicy([]string{"a", "b", "c"}, store)
	require.NoError(t, err)
	require.NoError(t, p1.Advance())
	require.Equal(t, 1, p1.Index())

	p2, err := NewPolicy([]string{"a", "b", "c"}, store)
	require.NoError(t, err)
	require.Equal(t, 1, p2.Index())

	tok, err := p2.Token()
	require.NoError(t, err)
	require.Equal(t, "b", tok)
}

func TestPolicy_ExpiredTokenFailsAndFiresCallback(t *testing.T) {
	fired := false
	p, err := NewPolicy([]string{"a"}, NewMemStore(),
		WithExpiry(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), func() { fired = true }))
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	_, err = p.Token()
	require.ErrorIs(t, err, common.ErrTokenExpired)
	require.True(t, fired, "expiration callback must run before the error is returned")
}

func TestPolicy_NotYetExpiredStillServes(t *testing.T) {
	p, err := NewPolicy([]string{"a"}, NewMemStore(),
		WithExpiry(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil))
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC) }

	tok, err := p.Token()
	require.NoError(t, err)
	require.Equal(t, "a", tok)
}

func TestPolicy_NoTokensConfigured(t *testing.T) {
	p, err := NewPolicy(nil, nil)
	require.NoError(t, err)

	tok, err := p.Token()
	require.NoError(t, err)
	require.Empty(t, tok)
	require.NoError(t, p.Advance())
}
