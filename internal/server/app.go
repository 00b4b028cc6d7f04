// Package server assembles and runs the EventCall proxy: the HTTP surface
// that keeps the GitHub token server-side, enforces the CSRF handshake and
// origin allow-list, relays dispatches, and answers fast-path auth.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/eventcall-app/eventcall/internal/common"
	"github.com/eventcall-app/eventcall/internal/github"
	"github.com/eventcall-app/eventcall/internal/logging"
	"github.com/eventcall-app/eventcall/internal/server/config"
	"github.com/eventcall-app/eventcall/internal/server/csrf"
	"github.com/eventcall-app/eventcall/internal/server/handlers"
	"github.com/eventcall-app/eventcall/internal/server/users"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	handler *handlers.Handler
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewServerLogger(os.Stdout)

	gh := github.NewClient(github.Options{
		Owner:  c.RepoOwner,
		Repo:   c.RepoName,
		Tokens: github.StaticToken(c.GitHubToken),
		Retry:  github.DefaultRetryConfig(),
		Logger: logger,
	})

	store := github.NewContentStore(gh)
	if c.Branch != common.DefaultBranch {
		store = store.OnBranch(c.Branch)
	}

	csrfSecret := []byte(c.CSRFSecret)
	if len(csrfSecret) == 0 {
		random, err := common.MakeRandHexString(32)
		if err != nil {
			return nil, fmt.Errorf("csrf secret: %w", err)
		}
		csrfSecret = []byte(random)
		logger.Warn(context.Background(), "CSRF_SHARED_SECRET not set, grants will not survive restarts")
	}
	signer := csrf.NewSigner(csrfSecret, c.CSRFTTL)

	jwtSecret := []byte(c.JWTSecret)
	if len(jwtSecret) == 0 {
		random, err := common.MakeRandHexString(32)
		if err != nil {
			return nil, fmt.Errorf("jwt secret: %w", err)
		}
		jwtSecret = []byte(random)
		logger.Warn(context.Background(), "JWT_SECRET not set, sessions will not survive restarts")
	}
	userService := users.NewService(store, jwtSecret, c.TokenTTL, logger)

	handler := handlers.New(signer, gh, userService, c.AllowedOrigin, logger)

	return &App{config: c, logger: logger, handler: handler}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:    ":" + app.config.Port,
		Handler: app.handler.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(context.Background(), "shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "listening", "port", app.config.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "server error", "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
}
