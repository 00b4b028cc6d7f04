// Package config loads runtime settings for the EventCall CLI. Defaults
// are applied first, then a JSON file (if -c/-config points at one), then
// command-line flags; later sources win.
package config

import (
	"os"
	"time"

	"github.com/eventcall-app/eventcall/internal/client/auth"
	"github.com/eventcall-app/eventcall/internal/common"
)

// Backend selects who talks to GitHub.
const (
	BackendAuto   = "auto"   // proxy when ProxyURL is set, direct otherwise
	BackendDirect = "direct" // straight to the GitHub API with a token
	BackendProxy  = "proxy"  // through the CSRF-protected proxy
	BackendLocal  = "local"  // no network, development only
)

// Config holds runtime settings for the EventCall CLI.
type Config struct {
	// Owner/Repo identify the backing repository.
	Owner  string
	Repo   string
	Branch string

	// Tokens are the GitHub tokens rotated through in direct mode.
	Tokens []string

	// ProxyURL is the base URL of the dispatch proxy, e.g.
	// "https://eventcall-proxy.example.com".
	ProxyURL string

	Backend string
	Demo    bool

	// Origin is reported in dispatched payloads for the proxy's
	// allow-list check.
	Origin string

	// LocalUsers backs the local auth strategy.
	LocalUsers []auth.StaticUser

	PollTimeout  time.Duration
	PollInterval time.Duration

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	AttemptTimeout   time.Duration

	SnapshotPath     string
	AutosaveInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Branch = common.DefaultBranch
	c.Backend = BackendAuto
	c.Origin = "https://eventcall.app"
	c.PollTimeout = 30 * time.Second
	c.PollInterval = 2 * time.Second
	c.RetryMaxAttempts = 3
	c.RetryBaseDelay = 1 * time.Second
	c.AttemptTimeout = 15 * time.Second
	c.SnapshotPath = ".eventcall/state.json"
	c.AutosaveInterval = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). A token in
// EVENTCALL_GITHUB_TOKEN is appended when no tokens were configured.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)

	if len(cfg.Tokens) == 0 {
		if tok := os.Getenv("EVENTCALL_GITHUB_TOKEN"); tok != "" {
			cfg.Tokens = []string{tok}
		}
	}
	return cfg
}
