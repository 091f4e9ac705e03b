package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/sakthi-t/bookscart/api/routes"
	"github.com/sakthi-t/bookscart/internal/accounts"
	"github.com/sakthi-t/bookscart/internal/assistant"
	"github.com/sakthi-t/bookscart/internal/auth"
	"github.com/sakthi-t/bookscart/internal/books"
	"github.com/sakthi-t/bookscart/internal/cart"
	"github.com/sakthi-t/bookscart/internal/checkout"
	"github.com/sakthi-t/bookscart/internal/orders"
	"github.com/sakthi-t/bookscart/internal/tasks"
	"github.com/sakthi-t/bookscart/internal/users"
	"github.com/sakthi-t/bookscart/pkg/auth/session"
	"github.com/sakthi-t/bookscart/pkg/config"
	"github.com/sakthi-t/bookscart/pkg/db"
	"github.com/sakthi-t/bookscart/pkg/logger"
	"github.com/sakthi-t/bookscart/pkg/metrics"
	"github.com/sakthi-t/bookscart/pkg/migrate"
	"github.com/sakthi-t/bookscart/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	reg := metrics.NewRegistry()

	runner, err := tasks.NewRunner(tasks.RunnerParams{
		Logger:  logg,
		Metrics: reg.Tasks,
		Timeout: cfg.Tasks.Timeout,
	})
	requireResource(ctx, logg, "task runner", err)

	svcs, err := buildServices(cfg, logg, dbClient, redisClient, sessionManager, runner, reg)
	requireResource(ctx, logg, "services", err)

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, reg, svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"db_driver": dbClient.Driver(),
		"assistant": cfg.OpenAI.Enabled(),
	})
	logg.Info(runCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
		logg.Info(runCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	var errs error
	errs = multierr.Append(errs, server.Shutdown(shutdownCtx))
	errs = multierr.Append(errs, runner.Drain(shutdownCtx))
	errs = multierr.Append(errs, redisClient.Close())
	errs = multierr.Append(errs, dbClient.Close())
	if errs != nil {
		logg.Error(runCtx, "api shutdown incomplete", errs)
		os.Exit(1)
	}
	logg.Info(runCtx, "api server stopped")
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessionManager *session.Manager,
	runner *tasks.Runner,
	reg *metrics.Registry,
) (routes.Services, error) {
	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	booksRepo := books.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("auth service: %w", err)
	}

	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("orders service: %w", err)
	}

	accountsService, err := accounts.NewService(accounts.ServiceParams{
		Repo:   accounts.NewRepository(conn),
		Users:  userRepo,
		Orders: ordersService,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("accounts service: %w", err)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
		Tasks:          runner,
		Enricher:       accountsService,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("register service: %w", err)
	}

	booksService, err := books.NewService(booksRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("books service: %w", err)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:      cartRepo,
		BooksRepo: booksRepo,
		TxRunner:  dbClient,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("cart service: %w", err)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Repo:     checkout.NewRepository(cartRepo, booksRepo, ordersRepo),
		TxRunner: dbClient,
		Metrics:  reg.Checkout,
		Logger:   logg,
		Timeout:  cfg.Checkout.Timeout,
	})
	if err != nil {
		return routes.Services{}, fmt.Errorf("checkout service: %w", err)
	}

	memory, err := assistant.NewMemory(redisClient, cfg.OpenAI.MaxMessages, cfg.OpenAI.MemoryTTL)
	if err != nil {
		return routes.Services{}, fmt.Errorf("assistant memory: %w", err)
	}
	assistantParams := assistant.ServiceParams{
		Users:  userRepo,
		Orders: ordersService,
		Memory: memory,
		Logger: logg,
	}
	if cfg.OpenAI.Enabled() {
		assistantParams.Client = assistant.NewOpenAIClient(cfg.OpenAI, nil)
	}
	assistantService, err := assistant.NewService(assistantParams)
	if err != nil {
		return routes.Services{}, fmt.Errorf("assistant service: %w", err)
	}

	return routes.Services{
		Auth:      authService,
		Register:  registerService,
		Books:     booksService,
		Cart:      cartService,
		Checkout:  checkoutService,
		Orders:    ordersService,
		Accounts:  accountsService,
		Assistant: assistantService,
	}, nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
