package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/formgate/internal/background"
	"github.com/BradenHooton/formgate/internal/config"
	"github.com/BradenHooton/formgate/internal/database"
	"github.com/BradenHooton/formgate/internal/metrics"
	"github.com/BradenHooton/formgate/internal/models"
	"github.com/BradenHooton/formgate/internal/repositories"
	"github.com/BradenHooton/formgate/internal/routes"
	"github.com/BradenHooton/formgate/internal/session"
	"github.com/BradenHooton/formgate/internal/token"
	pkgauth "github.com/BradenHooton/formgate/pkg/auth"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("session_store", cfg.Session.Store))

	// Initialize database
	db, err := database.NewConnection(context.Background(), &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), time.Minute)
	err = database.NewMigrator(db.Pool, nil).Up(migrateCtx)
	migrateCancel()
	if err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db)
	menuRepo := repositories.NewMenuRepository(db)

	// Bootstrap first admin account if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminAccount(ctx, accountRepo, &cfg.Auth, logger); err != nil {
		logger.Error("failed to ensure admin account", slog.Any("error", err))
	}
	cancel()

	m := metrics.New()

	// Session store
	store, closeStore, err := newSessionStore(cfg)
	if err != nil {
		logger.Error("failed to initialize session store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	policy, err := session.ParsePolicy(cfg.Session.EvictionPolicy)
	if err != nil {
		logger.Error("invalid session policy", slog.Any("error", err))
		os.Exit(1)
	}
	sessions := session.NewManager(store, token.Generate, session.Options{
		Cookie: session.CookieConfig{
			Name:     cfg.Session.CookieName,
			Secure:   cfg.Session.CookieSecure,
			SameSite: cfg.Session.CookieSameSite,
		},
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
		Policy:      policy,
	}, logger, m)

	router, err := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Sessions: sessions,
		Accounts: accountRepo,
		Menus:    menuRepo,
		Health:   db,
	})
	if err != nil {
		logger.Error("failed to build router", slog.Any("error", err))
		os.Exit(1)
	}

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Expired sessions only need sweeping where the store keeps them
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	var cleanupManager *background.CleanupManager
	if sweeper, ok := store.(session.Sweeper); ok {
		cleanupManager = background.NewCleanupManager(sweeper, logger, cfg.Session.CleanupInterval)
		go cleanupManager.Start(cleanupCtx)
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	if cleanupManager != nil {
		cleanupManager.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// newSessionStore returns the configured store and a function releasing it.
func newSessionStore(cfg *config.Config) (session.Store, func(), error) {
	if cfg.Session.Store != "redis" {
		return session.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	return session.NewRedisStore(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil
}

// ensureAdminAccount creates the first admin account if ADMIN_USER_ID and
// ADMIN_PASSWORD are set
func ensureAdminAccount(ctx context.Context, repo *repositories.AccountRepository, cfg *config.AuthConfig, logger *slog.Logger) error {
	if cfg.AdminUserID == "" || cfg.AdminPassword == "" {
		logger.Info("no ADMIN_USER_ID or ADMIN_PASSWORD set, skipping admin account creation")
		return nil
	}

	_, err := repo.FindByUserID(ctx, cfg.AdminUserID)
	if err == nil {
		logger.Info("admin account already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(cfg.AdminPassword); err != nil {
		return fmt.Errorf("admin password rejected: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.Account{
		UserID:   cfg.AdminUserID,
		Password: hashedPassword,
		UserName: "Administrator",
		Role:     models.RoleAdmin,
	}
	if err := repo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info("admin account created", slog.String("user_id", cfg.AdminUserID))
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
