package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/rs/zerolog"

	"github.com/famstack/famstack-client/internal/cache"
	"github.com/famstack/famstack-client/internal/config"
	"github.com/famstack/famstack-client/internal/dispatch"
	"github.com/famstack/famstack-client/internal/handlers"
	"github.com/famstack/famstack-client/internal/middleware"
	"github.com/famstack/famstack-client/internal/realtime"
	"github.com/famstack/famstack-client/internal/rest"
	"github.com/famstack/famstack-client/internal/routes"
	"github.com/famstack/famstack-client/internal/store"
)

type application struct {
	config        *config.Config
	logger        zerolog.Logger
	manager       *realtime.Manager
	notifications *store.NotificationStore
	gamification  *store.GamificationStore
	cache         *cache.Cache
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	// Load configuration.
	cfg := config.Load()

	// Open the offline cache.
	localCache, err := cache.Open(cfg.CachePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open offline cache")
	}
	defer localCache.Close()

	// REST client for hydration and imperative actions.
	apiClient := rest.NewClient(cfg.BackendURL, cfg.RequestTimeout, logger)
	apiClient.SetToken(cfg.AuthToken)

	// Event dispatcher and the single connection manager for this session.
	dispatcher := dispatch.NewDispatcher(logger)
	manager := realtime.NewManager(realtime.Options{
		HubURL:               cfg.BackendURL,
		HubPath:              cfg.Hub.Path,
		HandshakeTimeout:     cfg.Hub.HandshakeTimeout,
		BackoffInitial:       cfg.Backoff.InitialInterval,
		BackoffMax:           cfg.Backoff.MaxInterval,
		MaxReconnectAttempts: cfg.Backoff.MaxAttempts,
	}, dispatcher, nil, logger)

	// State projectors. Built before Connect so early pushes are buffered.
	notifications := store.NewNotificationStore(dispatcher, apiClient, localCache, cfg.RecentLimit, logger)
	gamification := store.NewGamificationStore(dispatcher, apiClient, localCache, logger)

	app := &application{
		config:        cfg,
		logger:        logger,
		manager:       manager,
		notifications: notifications,
		gamification:  gamification,
		cache:         localCache,
	}

	app.startSession()

	// Initialize the local state API and middleware.
	router := routes.NewRouter(
		handlers.NewHealthHandler(manager),
		handlers.NewStateHandler(notifications, gamification, logger),
	)
	loggedRouter := middleware.LoggingMiddleware(logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler)

	logger.Info().Msg("Agent terminated.")
}

// startSession connects to the hub and hydrates the stores. Auth failures
// are fatal because a fresh login is the only remedy; transport failures are
// not, the backoff loop keeps retrying in the background.
func (app *application) startSession() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.manager.Connect(ctx, app.config.AuthToken); err != nil {
		var authErr *realtime.AuthError
		if errors.As(err, &authErr) {
			app.logger.Fatal().Err(err).Msg("Hub rejected credentials, re-authentication required")
		}
		app.logger.Warn().Err(err).Msg("Hub unreachable, continuing offline")
	}

	if err := app.notifications.Hydrate(ctx); err != nil {
		app.logger.Warn().Err(err).Msg("Notification hydration incomplete")
	}
	if err := app.gamification.Hydrate(ctx); err != nil {
		app.logger.Warn().Err(err).Msg("Gamification hydration incomplete")
	}
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler) {
	server := &http.Server{
		Addr:    ":" + app.config.ListenPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		app.logger.Info().Msgf("Local state API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		app.logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		app.logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		app.logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Tear down the session: stores release their subscriptions before the
	// connection drops.
	app.notifications.Close()
	app.gamification.Close()
	app.manager.Disconnect()
	app.logger.Info().Msg("Session closed.")
}
