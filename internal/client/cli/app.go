// Package cli is the interactive EventCall manager console: a small REPL
// over the auth strategies, the event and RSVP services, and the
// submission pipeline.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/eventcall-app/eventcall/internal/client/auth"
	"github.com/eventcall-app/eventcall/internal/client/config"
	"github.com/eventcall-app/eventcall/internal/client/dispatch"
	"github.com/eventcall-app/eventcall/internal/client/rsvp"
	"github.com/eventcall-app/eventcall/internal/client/services"
	"github.com/eventcall-app/eventcall/internal/client/state"
	"github.com/eventcall-app/eventcall/internal/common"
	"github.com/eventcall-app/eventcall/internal/filex"
	"github.com/eventcall-app/eventcall/internal/github"
	"github.com/eventcall-app/eventcall/internal/logging"
	"github.com/eventcall-app/eventcall/internal/tokens"
)

type App struct {
	config   *config.Config
	state    *state.State
	events   *services.EventService
	rsvps    *services.RSVPService
	pipeline *rsvp.Pipeline
	auth     auth.Strategy
	logger   logging.Logger

	reader *bufio.Reader
	out    io.Writer
}

// NewApp wires the full client stack from configuration: token rotation,
// the GitHub client, the dispatch transport for the selected backend, and
// the services on top.
func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewCLILogger(slog.LevelWarn)

	provider, err := tokenProvider(cfg)
	if err != nil {
		return nil, err
	}

	gh := github.NewClient(github.Options{
		Owner:  cfg.Owner,
		Repo:   cfg.Repo,
		Tokens: provider,
		Retry: github.RetryConfig{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			Jitter:      true,
		},
		Logger:         logger,
		AttemptTimeout: cfg.AttemptTimeout,
	})

	store := github.NewContentStore(gh)
	if cfg.Branch != common.DefaultBranch {
		store = store.OnBranch(cfg.Branch)
	}
	issues := github.NewIssueService(gh)

	transport, err := buildTransport(cfg, gh, logger)
	if err != nil {
		return nil, err
	}

	var strategy auth.Strategy
	if useLocalBackend(cfg) {
		strategy = auth.NewLocal(cfg.LocalUsers, cfg.Demo, logger)
	} else {
		strategy = auth.NewCorrelator(transport, issues, auth.CorrelatorConfig{
			Timeout:  cfg.PollTimeout,
			Interval: cfg.PollInterval,
		}, logger)
	}

	return &App{
		config:   cfg,
		state:    state.New(),
		events:   services.NewEventService(store, transport, logger),
		rsvps:    services.NewRSVPService(store, logger),
		pipeline: rsvp.NewPipeline(store, transport, issues, logger),
		auth:     strategy,
		logger:   logger,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

func useLocalBackend(cfg *config.Config) bool {
	if cfg.Backend == config.BackendLocal {
		return true
	}
	return cfg.Backend == config.BackendAuto && len(cfg.Tokens) == 0 && cfg.ProxyURL == ""
}

func tokenProvider(cfg *config.Config) (github.TokenProvider, error) {
	if len(cfg.Tokens) == 0 {
		return github.StaticToken(""), nil
	}
	dir, err := filex.EnsureSubdDir(filepath.Dir(cfg.SnapshotPath))
	if err != nil {
		return nil, err
	}
	store := tokens.NewFileStore(filepath.Join(dir, "token_index.json"))
	return tokens.NewPolicy(cfg.Tokens, store)
}

func buildTransport(cfg *config.Config, gh *github.Client, logger logging.Logger) (dispatch.Transport, error) {
	switch {
	case useLocalBackend(cfg):
		return dispatch.NewLocal(logger), nil
	case cfg.Backend == config.BackendProxy, cfg.Backend == config.BackendAuto && cfg.ProxyURL != "":
		if cfg.ProxyURL == "" {
			return nil, fmt.Errorf("proxy backend requires a proxy URL")
		}
		return dispatch.NewProxy(cfg.ProxyURL, &http.Client{Timeout: cfg.AttemptTimeout}, logger), nil
	case cfg.Backend == config.BackendDirect, cfg.Backend == config.BackendAuto:
		if len(cfg.Tokens) == 0 {
			return nil, fmt.Errorf("direct backend requires at least one token")
		}
		csrf := func() string {
			t, _ := common.MakeRandHexString(16)
			return t
		}
		return dispatch.NewDirect(gh, cfg.Origin, csrf, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func (a *App) isLoggedIn() bool {
	return a.state.User() != nil
}

// Run restores the autosaved snapshot, starts the autosave loop, and hands
// control to the REPL. The final snapshot is written when the REPL exits.
func (a *App) Run(ctx context.Context) {
	if err := a.state.Load(a.config.SnapshotPath); err != nil {
		a.logger.Warn(ctx, "snapshot restore failed", "error", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.state.Autosave(ctx, a.config.SnapshotPath, a.config.AutosaveInterval, a.logger)
	}()

	a.Root(ctx)

	cancel()
	<-done
}
