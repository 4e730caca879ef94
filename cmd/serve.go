package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sourcegraph/conc"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/msrv/internal/contenttype"
	"github.com/desertthunder/msrv/internal/controllers"
	"github.com/desertthunder/msrv/internal/player"
	"github.com/desertthunder/msrv/internal/repositories"
	"github.com/desertthunder/msrv/internal/server"
	"github.com/desertthunder/msrv/internal/settings"
	"github.com/desertthunder/msrv/internal/shared"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// app is the wired HTTP service.
type app struct {
	handler  http.Handler
	router   *server.Router
	library  *player.Library
	settings *settings.Store
}

func (a *app) Close() {
	a.library.Close()
}

// newApp wires settings, content types, the player and controllers into one handler.
func (r *Runner) newApp(config *shared.Config, opts server.RouterOpts, db *sql.DB) *app {
	store := settings.NewStore(config.Library, r.logger)
	types := contenttype.New(config.ContentTypes)

	var artworkStore player.ArtworkStore
	if db != nil {
		artworkStore = repositories.NewArtworkRepository(db)
	}
	library := player.NewLibrary(player.LibraryOpts{
		Store:            artworkStore,
		ArtworkNames:     config.Library.ArtworkNames,
		Workers:          config.Player.Workers,
		Queue:            config.Player.Queue,
		LookupsPerSecond: config.Player.LookupsPerSecond,
		Logger:           r.logger,
	})

	router := server.NewRouter(opts)
	controllers.DefineArtworkRoutes(router, controllers.ArtworkDeps{
		Player:       library,
		Policy:       store,
		ContentTypes: types,
		Metrics:      opts.Metrics,
	})
	controllers.DefineBrowserRoutes(router, controllers.BrowserDeps{
		Policy: store,
		Roots:  store,
	})

	mux := http.NewServeMux()
	mux.Handle("/", router)
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics.Handler())
	}

	for _, rt := range router.Routes() {
		r.logger.Debug("route registered", "method", rt.Method, "pattern", rt.Pattern)
	}

	return &app{handler: mux, router: router, library: library, settings: store}
}

// Serve starts the HTTP API and blocks until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config, err := r.loadConfig(configPath)
	if err != nil {
		return err
	}
	r.applyLogLevel(config, cmd.Bool("debug"))

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		r.logger.Warn("artwork index unavailable, using file system lookups only", "error", err)
	} else {
		defer db.Close()
	}

	opts := server.RouterOpts{
		Logger:       r.logger,
		AsyncTimeout: config.Server.AsyncTimeout.Duration,
		MaxBodyBytes: config.Server.MaxBodyBytes,
	}
	if config.Server.EnableMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Metrics = server.NewMetrics(reg)
	}

	a := r.newApp(config, opts, db)
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              config.Server.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	var lifecycle conc.WaitGroup
	serveErr := make(chan error, 1)

	lifecycle.Go(func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	})
	if _, err := os.Stat(configPath); err == nil && r.config == nil {
		lifecycle.Go(func() {
			if err := a.settings.Watch(watchCtx, configPath); err != nil {
				r.logger.Error("config watcher stopped", "error", err)
			}
		})
	}

	r.logger.Info("listening", "addr", srv.Addr, "roots", len(a.settings.Roots()), "metrics", opts.Metrics != nil)

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received, initiating graceful shutdown")
	case err := <-serveErr:
		cancelWatch()
		lifecycle.Wait()
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("shutdown: stopping server failed", "error", err)
	}
	cancelWatch()
	lifecycle.Wait()

	r.logger.Info("shutdown completed")
	return nil
}
