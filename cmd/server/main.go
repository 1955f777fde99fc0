package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/config"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/idempotency"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/logging"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/outbox"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/server"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/lexicon"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/authz"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/money"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}
	logger := logging.Init(cfg.App.Name, logging.Options{Level: cfg.App.LogLevel, File: cfg.App.LogFile})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("postgres dsn: %w", err)
	}
	if cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Postgres.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	checks := map[string]server.HealthCheck{"postgres": pool.Ping}
	metrics := server.NewMetrics()

	opts := server.HandlerOptions{
		AllowlistPath: cfg.HTTP.AllowlistPath,
		Logger:        logger,
		Metrics:       metrics,
		Tokens: server.TokenConfig{
			Secret:   cfg.Security.JWTSecret,
			Issuer:   cfg.Security.Issuer,
			Audience: cfg.Security.Audience,
			TTL:      cfg.Security.TTL,
		},
		Pool:       pool,
		OrderTopic: cfg.Kafka.TopicOrderEvents,
		Checks:     checks,
	}

	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = rdb.Close() }()
		store := idempotency.NewRedisStore(rdb, cfg.Idempotency.TTL)
		opts.Idempotency = store
		checks["redis"] = store.Ping
	} else {
		logger.Warn("redis disabled; Idempotency-Key headers are ignored")
	}

	mode, err := authz.ParseMode(cfg.Authz.Mode, cfg.Authz.AllowDisabled)
	if err != nil {
		return err
	}
	if opts.Authorizer, err = server.LoadAuthorizer(cfg.Authz.ModelPath, cfg.Authz.PolicyPath, mode); err != nil {
		return fmt.Errorf("authz: %w", err)
	}

	if opts.Assistant, err = assistantOptions(cfg); err != nil {
		return err
	}

	h, err := server.NewHandlerWithOptions(opts)
	if err != nil {
		return err
	}

	if cfg.KafkaEnabled() {
		pub := outbox.NewKafkaPublisher(cfg.Kafka.Brokers)
		defer func() { _ = pub.Close() }()
		relay := &outbox.Relay{
			Source:    outbox.NewStore(pool),
			Publisher: pub,
			Interval:  cfg.Outbox.PollInterval,
			BatchSize: cfg.Outbox.BatchSize,
			Logger:    logger.With("component", "outbox"),
			Published: metrics.OutboxPublished,
		}
		go relay.Run(ctx)
	} else {
		logger.Info("kafka disabled; order events stay in the outbox")
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr, "env", cfg.App.Env, "authz_mode", string(mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func assistantOptions(cfg config.Config) (server.AssistantOptions, error) {
	out := server.AssistantOptions{
		LowStockDefault: cfg.Assistant.LowStockDefault,
		ListLimit:       cfg.Assistant.ListLimit,
		OrdersListLimit: cfg.Assistant.OrdersListLimit,
	}
	if p := cfg.Assistant.LexiconPath; p != "" {
		lx, err := lexicon.Load(p)
		if err != nil {
			return out, fmt.Errorf("lexicon: %w", err)
		}
		out.Lexicon = lx
	}
	f, err := money.NewFormatter(cfg.Assistant.Locale, cfg.Assistant.Currency)
	if err != nil {
		return out, fmt.Errorf("money: %w", err)
	}
	out.Money = f
	return out, nil
}
