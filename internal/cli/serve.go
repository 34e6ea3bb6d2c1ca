package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/01moynul/stockroom/internal/ai"
	"github.com/01moynul/stockroom/internal/auth"
	"github.com/01moynul/stockroom/internal/catalog"
	"github.com/01moynul/stockroom/internal/config"
	"github.com/01moynul/stockroom/internal/database"
	"github.com/01moynul/stockroom/internal/handlers"
	"github.com/01moynul/stockroom/internal/inventory"
	"github.com/01moynul/stockroom/internal/ratelimit"
	"github.com/01moynul/stockroom/internal/routes"
)

const shutdownTimeout = 5 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts.Config)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	// 1. --- Main Database Connection (Read/Write) ---
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to primary database: %w", err)
	}
	defer db.Close()

	// 2. --- Login throttling (optional) ---
	var limiter auth.LoginLimiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		limiter = ratelimit.New(client, ratelimit.Config{MaxAttempts: cfg.LoginMaxAttempts, Window: cfg.LoginWindow})
		slog.Info("login throttling enabled", "redis", cfg.RedisAddr, "max_attempts", cfg.LoginMaxAttempts)
	}

	app := &handlers.Handlers{
		Auth:      auth.NewService(db, auth.NewTokenManager(cfg.Secret()), limiter),
		Inventory: inventory.NewService(db),
		Catalog:   catalog.NewService(db),
		Config:    cfg,
	}

	// 3. --- Assistant on a read-only connection (optional) ---
	if cfg.GeminiAPIKey != "" && cfg.DBDSNReadOnly != "" {
		dbReadOnly, err := database.Open(cfg.DBDriver, cfg.DBDSNReadOnly)
		if err != nil {
			return fmt.Errorf("failed to connect to read-only database: %w", err)
		}
		defer dbReadOnly.Close()

		assistant, err := ai.NewService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, dbReadOnly)
		if err != nil {
			return fmt.Errorf("failed to initialize assistant: %w", err)
		}
		defer assistant.Close()
		app.Assistant = assistant
	} else {
		slog.Warn("assistant disabled: GEMINI_API_KEY and DB_DSN_READONLY are both required")
	}

	// --- Router Setup ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRouter(app, slog.Default()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting Stockroom API server on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
