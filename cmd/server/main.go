// ChemLadder - HKDSE chemistry ladder-quiz server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/yclau/chemladder/internal/api"
	"github.com/yclau/chemladder/internal/config"
	"github.com/yclau/chemladder/internal/game"
	"github.com/yclau/chemladder/internal/identity"
	"github.com/yclau/chemladder/internal/middleware"
	"github.com/yclau/chemladder/internal/questions"
	"github.com/yclau/chemladder/internal/settle"
	"github.com/yclau/chemladder/internal/store"
	"github.com/yclau/chemladder/internal/ws"
	"github.com/yclau/chemladder/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	if err := questions.Seed(context.Background(), repo); err != nil {
		slog.Error("Failed to seed question bank", "error", err)
		os.Exit(1)
	}

	// Initialize services.
	hub := ws.NewHub()
	submitter := settle.NewSubmitter(repo, 64, logger)
	defer submitter.Close()

	bank := questions.NewBank(repo)
	games := game.NewManager(cfg.Game, game.NewLadder(), bank, submitter, hub)

	// Initialize handlers.
	baseHandler := api.NewHandler(repo)
	gameHandler := api.NewGameHandler(baseHandler, games, cfg)
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := ws.NewHandler(hub, games, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// All routes use identity middleware (no auth needed).
	gameHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/game", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,                 // 0 = no timeout; event connections stay open
		IdleTimeout:  120 * time.Second, // 2 minutes for idle connections
	}

	// Start the idle-session reaper.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	game.StartReaper(ctx, games, cfg.Game.SessionIdleTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
