package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/pulsecrm-backend/internal/backend/gormstore"
	"github.com/yungbote/pulsecrm-backend/internal/backend/memory"
	redisclient "github.com/yungbote/pulsecrm-backend/internal/clients/redis"
	"github.com/yungbote/pulsecrm-backend/internal/crm"
	"github.com/yungbote/pulsecrm-backend/internal/db"
	"github.com/yungbote/pulsecrm-backend/internal/handlers"
	"github.com/yungbote/pulsecrm-backend/internal/middleware"
	"github.com/yungbote/pulsecrm-backend/internal/observability"
	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/realtime"
	"github.com/yungbote/pulsecrm-backend/internal/seed"
	"github.com/yungbote/pulsecrm-backend/internal/server"
	"github.com/yungbote/pulsecrm-backend/internal/services"
	"github.com/yungbote/pulsecrm-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	serviceName := utils.GetEnv("SERVICE_NAME", "pulsecrm", log)
	sessionSecret := utils.GetEnv("SESSION_SECRET", "defaultsecret", log)
	sessionTTL := utils.GetEnvAsDuration("SESSION_TTL", 24*time.Hour, log)
	backendKind := utils.GetEnv("BACKEND", "memory", log)
	avatarStyle := utils.GetEnv("AVATAR_STYLE", "remote", log)
	port := utils.GetEnv("PORT", "8080", log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Observability
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: logMode,
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})

	// Backend
	log.Info("Setting up storage backend from main...", "backend", backendKind)
	var base provider.DataProvider
	switch backendKind {
	case "postgres":
		pg, err := db.NewPostgresService(log)
		if err != nil {
			log.Error("Postgres init failed", "error", err)
			os.Exit(1)
		}
		base, err = gormstore.NewStore(pg.DB(), log)
		if err != nil {
			log.Error("Postgres store init failed", "error", err)
			os.Exit(1)
		}
	case "sqlite":
		sq, err := db.NewSQLiteService(log)
		if err != nil {
			log.Error("SQLite init failed", "error", err)
			os.Exit(1)
		}
		base, err = gormstore.NewStore(sq.DB(), log)
		if err != nil {
			log.Error("SQLite store init failed", "error", err)
			os.Exit(1)
		}
	default:
		base = memory.NewStore(log)
	}

	// Services
	log.Info("Setting up services from main...")
	var avatars services.AvatarResolver
	if avatarStyle == "initials" {
		initialsResolver, err := services.NewInitialsAvatarResolver(log)
		if err != nil {
			log.Error("Could not init InitialsAvatarResolver", "error", err)
			os.Exit(1)
		}
		avatars = initialsResolver
	} else {
		avatars = services.NewGravatarResolver(log)
	}
	logos := services.NewFaviconLogoResolver(log)
	files := services.NewDiskFileEncoder(log)

	// Lifecycle rules
	hooks := crm.NewHooks(log, avatars, logos, files)
	lifecycled, err := crm.Wrap(base, hooks, log)
	if err != nil {
		log.Error("Could not register lifecycle rules", "error", err)
		os.Exit(1)
	}

	// Realtime
	log.Info("Setting up change stream from main...")
	var bus realtime.Bus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		redisBus, err := redisclient.NewChangeBus(log)
		if err != nil {
			log.Error("Could not init redis change bus", "error", err)
			os.Exit(1)
		}
		bus = redisBus
	} else {
		bus = realtime.NewLocalBus(log)
	}
	hub := realtime.NewHub(log)
	if err := bus.StartForwarder(ctx, hub.Broadcast); err != nil {
		log.Error("Could not start change forwarder", "error", err)
		os.Exit(1)
	}
	dp := realtime.WithChangeEvents(lifecycled, bus, log)

	// Custom account operations run against the raw backend.
	accounts := crm.NewAccountService(base, log)

	// Seed
	if utils.GetEnv("SEED", "true", log) == "true" {
		if err := seed.NewLoader(log, dp).Apply(ctx); err != nil {
			log.Warn("Seed failed", "error", err)
		}
	}

	// Middleware
	log.Info("Setting up middleware from main...")
	identityMW := middleware.NewIdentityMiddleware(log, sessionSecret)

	// Handlers
	log.Info("Setting up handlers from main...")
	resourceHandler := handlers.NewResourceHandler(log, dp)
	accountHandler := handlers.NewAccountHandler(log, accounts, sessionSecret, sessionTTL)
	changesHandler := handlers.NewChangesHandler(log, hub)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:             log,
		ServiceName:     serviceName,
		Identity:        identityMW,
		ResourceHandler: resourceHandler,
		AccountHandler:  accountHandler,
		ChangesHandler:  changesHandler,
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("Server listening", "port", port)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Server shutdown failed", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
		}
	}

	if err := bus.Close(); err != nil {
		log.Warn("Change bus close failed", "error", err)
	}
	if shutdownOTel != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shutdownCtx); err != nil {
			log.Warn("Otel shutdown failed", "error", err)
		}
	}
}
