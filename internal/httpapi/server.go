// Package httpapi exposes the REST API under /api/v1.
package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/m-troja/taskstorm/internal/auth"
	"github.com/m-troja/taskstorm/internal/config"
	"github.com/m-troja/taskstorm/internal/notify"
	"github.com/m-troja/taskstorm/internal/storage"
	"github.com/m-troja/taskstorm/internal/user"
	"gorm.io/gorm"
)

// API bundles the dependencies the handlers need.
type API struct {
	db        *gorm.DB
	issuer    *auth.TokenIssuer
	notifier  notify.Notifier
	store     *storage.Store
	directory user.SlackDirectory
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB        *gorm.DB
	Config    *config.Config
	Notifier  notify.Notifier // defaults to notify.Nop
	Store     *storage.Store
	Directory user.SlackDirectory
	Out       io.Writer
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", opts.Config.HTTPPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "TaskStorm API listening on %s\n", addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("httpapi: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with all routes registered. Exposed
// separately so tests can drive it through httptest.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("httpapi: db is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("httpapi: config is required")
	}

	api := &API{
		db:        opts.DB,
		issuer:    auth.NewTokenIssuer(opts.Config.JWT),
		notifier:  opts.Notifier,
		store:     opts.Store,
		directory: opts.Directory,
	}
	if api.notifier == nil {
		api.notifier = notify.Nop{}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), renderErrors())

	registerRoutes(router, api)

	if api.store != nil {
		router.Static("/uploads", api.store.Root())
	}
	return router, nil
}
