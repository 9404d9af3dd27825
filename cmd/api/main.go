// @title                       GreenView Customer Portal API
// @version                     1.0
// @description                 Sign-up, magic-link sign-in, first-login password setup and the customer and staff dashboards.
// @BasePath                    /
// @securityDefinitions.apikey  SessionAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/greenviewsolutions/portal/internal/api"
	"github.com/greenviewsolutions/portal/internal/api/handler"
	"github.com/greenviewsolutions/portal/internal/core/ports"
	"github.com/greenviewsolutions/portal/internal/core/service"
	"github.com/greenviewsolutions/portal/internal/infrastructure/config"
	"github.com/greenviewsolutions/portal/internal/infrastructure/db/mongo"
	"github.com/greenviewsolutions/portal/internal/infrastructure/db/postgres"
	"github.com/greenviewsolutions/portal/internal/infrastructure/db/redis"
	"github.com/greenviewsolutions/portal/internal/infrastructure/identity/gotrue"
	"github.com/greenviewsolutions/portal/internal/infrastructure/identity/local"
	"github.com/greenviewsolutions/portal/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log := logger.Init(logger.Options{
		Level:   os.Getenv("LOG_LEVEL"),
		Pretty:  strings.EqualFold(os.Getenv("ENV"), "development"),
		Service: "portal",
	})
	cfg := config.Load(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	mongoClient, mongoDB, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongodb")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer func() { _ = rdb.Close() }()

	if cfg.Postgres.MigrateOnStart {
		if err := postgres.Migrate(ctx, cfg.Postgres.DSN); err != nil {
			log.Fatal().Err(err).Msg("apply migrations")
		}
	}
	pool, err := postgres.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	accounts := mongo.NewAccountRepository(mongoDB)
	ledger := mongo.NewInvitationLedger(mongoDB)
	if err := mongo.EnsureIndexes(ctx, accounts, ledger); err != nil {
		log.Fatal().Err(err).Msg("ensure mongo indexes")
	}
	sessions := redis.NewSessionStore(rdb)
	setups := redis.NewPendingSetupStore(rdb)
	directory := postgres.NewCustomerDirectory(pool)
	requests := postgres.NewServiceRequestRepository(pool)

	identity := newIdentityStore(cfg, accounts)

	// --- Services ---
	invitations := service.NewInvitationService(directory, identity, ledger, cfg.PublicURL,
		logger.Component("invitations"))
	customers := service.NewCustomerService(directory, requests, invitations, logger.Component("customers"))
	svc := api.Services{
		Auth: service.NewAuthService(identity, directory, ledger, sessions, setups, service.AuthOptions{
			PublicURL:  cfg.PublicURL,
			SessionTTL: cfg.SessionTTL,
			DevMode:    cfg.IsDevelopment(),
		}, logger.Component("auth")),
		Resolver: service.NewSessionResolver(identity, sessions, setups, service.ResolverOptions{
			SessionTTL:      cfg.SessionTTL,
			PendingSetupTTL: cfg.PendingSetupTTL,
		}, logger.Component("resolver")),
		Bootstrap:       service.NewPasswordBootstrap(identity, sessions, setups, cfg.SessionTTL, logger.Component("password")),
		Invitations:     invitations,
		Customers:       customers,
		ServiceRequests: service.NewServiceRequestService(requests, directory, customers, logger.Component("services")),
	}

	e := api.NewRouter(svc, api.Options{
		Cookie: handler.CookieOptions{
			Secure: !cfg.IsDevelopment(),
			MaxAge: cfg.SessionTTL,
		},
		HealthChecks: map[string]handler.Check{
			"mongodb":  func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			"postgres": pool.Ping,
		},
	}, log)

	// --- Serve until signalled ---
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("identity", cfg.Identity.Provider).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}

// newIdentityStore selects the hosted GoTrue adapter or the self-contained
// store backed by the Mongo accounts collection.
func newIdentityStore(cfg *config.Config, accounts ports.AccountRepository) ports.IdentityStore {
	switch cfg.Identity.Provider {
	case config.IdentityLocal:
		return local.New(accounts, local.Options{Secret: cfg.JWTSecret}, logger.Component("identity"))
	default:
		return gotrue.New(gotrue.Options{
			BaseURL:    cfg.Identity.URL,
			AnonKey:    cfg.Identity.AnonKey,
			ServiceKey: cfg.Identity.ServiceKey,
			Timeout:    cfg.Identity.Timeout,
		}, logger.Component("identity"))
	}
}
