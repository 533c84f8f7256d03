package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/charchit19/auth-mindsparkle/internal/adapter/cache"
	"github.com/charchit19/auth-mindsparkle/internal/adapter/captcha"
	"github.com/charchit19/auth-mindsparkle/internal/bootstrap"
	"github.com/charchit19/auth-mindsparkle/internal/config"
	httptransport "github.com/charchit19/auth-mindsparkle/internal/http"
	"github.com/charchit19/auth-mindsparkle/internal/http/handler"
	httpmiddleware "github.com/charchit19/auth-mindsparkle/internal/http/middleware"
	"github.com/charchit19/auth-mindsparkle/internal/mail"
	"github.com/charchit19/auth-mindsparkle/internal/repository"
	"github.com/charchit19/auth-mindsparkle/internal/server"
	"github.com/charchit19/auth-mindsparkle/internal/service"
	"github.com/charchit19/auth-mindsparkle/internal/telemetry"
	"github.com/charchit19/auth-mindsparkle/internal/token"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newAccountRepository,
			newAdminListRepository,
			newRedisClient,
			newAdminDirectory,
			newTokenService,
			newMailer,
			newBotCheckVerifier,
			service.NewAuthService,
			service.NewAdminService,
			handler.NewAuthHandler,
			handler.NewAdminHandler,
			newAuthGate,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, bootstrap.EnsureAdminList, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	node, err := snowflake.NewNode(1)
	return node, err
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newAccountRepository(pool *pgxpool.Pool) repository.AccountRepository {
	return repository.NewPostgresAccountRepo(pool)
}

func newAdminListRepository(pool *pgxpool.Pool) repository.AdminListRepository {
	return repository.NewPostgresAdminListRepo(pool)
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newAdminDirectory(client redis.UniversalClient, list repository.AdminListRepository, cfg config.Config) service.AdminDirectory {
	return cache.NewRedisAdminDirectory(client, list, cfg.AdminCacheTTL)
}

func newTokenService(cfg config.Config) *token.Service {
	return token.NewService([]byte(cfg.TokenSecret), cfg.ServiceName, cfg.SessionTokenTTL)
}

func newMailer(cfg config.Config) mail.Mailer {
	return mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
}

func newBotCheckVerifier(cfg config.Config, logger *zap.Logger) captcha.Verifier {
	if cfg.RecaptchaSecret == "" {
		logger.Warn("bot-check disabled: RECAPTCHA_SECRET not set")
		return captcha.Disabled{}
	}
	return captcha.NewRecaptchaVerifier(cfg.RecaptchaSecret, nil)
}

func newAuthGate(tokens *token.Service, accounts repository.AccountRepository) *httpmiddleware.Auth {
	return &httpmiddleware.Auth{Tokens: tokens, Accounts: accounts}
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
