package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/suteetoe/howyoufell/internal/handler"
	"github.com/suteetoe/howyoufell/internal/identity"
	"github.com/suteetoe/howyoufell/internal/middleware"
	"github.com/suteetoe/howyoufell/internal/service"
	"github.com/suteetoe/howyoufell/internal/store"
	"github.com/suteetoe/howyoufell/internal/store/memstore"
	"github.com/suteetoe/howyoufell/internal/store/mongostore"
	"github.com/suteetoe/howyoufell/internal/store/pgstore"
	"github.com/suteetoe/howyoufell/pkg/config"
	"github.com/suteetoe/howyoufell/pkg/database"
	"github.com/suteetoe/howyoufell/pkg/jwtutil"
	"github.com/suteetoe/howyoufell/pkg/logger"
	"github.com/suteetoe/howyoufell/prometheus"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.Metrics.ServiceName,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	defer log.Sync()
	log.Info("Starting howyoufell service...", cfg.LogConfig()...)

	gateway, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("Failed to initialize store", zap.Error(err))
		return err
	}
	defer gateway.Close(context.Background())
	log.Info("Store initialized", zap.String("driver", cfg.Store.Driver))

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		log.Error("Failed to initialize token verifier", zap.Error(err))
		return err
	}
	log.Info("Token verifier initialized", zap.String("mode", cfg.Auth.Mode))

	svc := service.NewAppService(service.Config{
		AdminEquip:             cfg.App.AdminEquip,
		DefaultThreads:         cfg.App.DefaultThreads,
		AddCreatorToAdminEquip: cfg.App.AddCreatorToAdminEquip,
		NormalizeLookupEmail:   cfg.App.NormalizeLookupEmail,
	}, identity.NewAccessor(cfg.App.AllowEmailsCreateTenant), gateway)

	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(prometheus.MetricsMiddleware(cfg.Metrics.ServiceName))
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	handler.RegisterRoutes(e,
		handler.NewAppHandler(svc),
		handler.NewHealthHandler(cfg.Metrics.ServiceName, gateway),
		middleware.AuthMiddleware(verifier))

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Failed to start server", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Gateway, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		db, err := database.ConnectMongo(ctx, &cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return mongostore.New(db), nil
	case config.StorePostgres:
		db, err := database.InitDB(&cfg.DB)
		if err != nil {
			return nil, err
		}
		return pgstore.New(db)
	case config.StoreMemory:
		return memstore.New()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newVerifier(ctx context.Context, cfg *config.Config) (jwtutil.Verifier, error) {
	switch cfg.Auth.Mode {
	case config.AuthOIDC:
		return jwtutil.NewOIDCVerifier(ctx, jwtutil.OIDCConfig{
			Authority: cfg.Auth.Authority,
			Audience:  cfg.Auth.Audience,
		})
	case config.AuthHMAC:
		return jwtutil.NewJWTUtil(hmacConfig(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}

func hmacConfig(cfg *config.Config) *jwtutil.JWTConfig {
	return &jwtutil.JWTConfig{
		SigningKey:      cfg.Auth.SigningKey,
		ExpirationHours: cfg.Auth.ExpirationHours,
		Audience:        cfg.Auth.Audience,
	}
}
