package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-midea/community/internal/cache"
	"github.com/anonto42/nano-midea/community/internal/middleware"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/anonto42/nano-midea/community/internal/router"
	"github.com/anonto42/nano-midea/community/internal/services"
	"github.com/anonto42/nano-midea/community/internal/validators"
	"github.com/anonto42/nano-midea/community/pkg/config"
	"github.com/anonto42/nano-midea/community/pkg/firebase"
	"github.com/anonto42/nano-midea/community/pkg/logger"
	"github.com/anonto42/nano-midea/community/pkg/metrics"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var cfg *config.Config

	cmd := &cobra.Command{
		Use:           "community",
		Short:         "Community activity, notification and feed service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			return logger.Setup(cfg.LogLevel, cfg.Env)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the relational schema and the document store indexes, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), cfg)
		},
	})

	return cmd
}

func migrate(ctx context.Context, cfg *config.Config) error {
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		return err
	}
	return repositories.NewMongoPostBodyRepository(db.Mongo.Database(cfg.MongoDatabase)).EnsureIndexes(ctx)
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		return err
	}
	bodies := repositories.NewMongoPostBodyRepository(db.Mongo.Database(cfg.MongoDatabase))
	if err := bodies.EnsureIndexes(ctx); err != nil {
		return err
	}

	var unread cache.UnreadCache = cache.Noop{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisUnreadCache(cfg.RedisURL, cfg.UnreadCacheTTL)
		if err != nil {
			return err
		}
		defer redisCache.Close()
		unread = redisCache
		log.Info().Msg("unread notification cache enabled")
	}

	auth := middleware.JWTAuthMiddleware(cfg.JWTSecret)
	if cfg.FirebaseCredentialsPath != "" {
		client, err := firebase.NewAuthClient(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return err
		}
		auth = middleware.FirebaseAuthMiddleware(client, repositories.NewPostgresUserRepository(db.Postgres))
	} else if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when FIREBASE_CREDENTIALS_PATH is not set")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e)
	router.SetupRoutes(e, router.Deps{
		DB:     db.Postgres,
		Bodies: bodies,
		Unread: unread,
		Auth:   auth,
		Feed: services.FeedOptions{
			HotWindow:       cfg.FeedHotWindow,
			ReportThreshold: cfg.FeedReportThreshold,
			DefaultLimit:    cfg.PageDefaultLimit,
			MaxLimit:        cfg.PageMaxLimit,
		},
		Log: log.Logger,
	})

	go func() {
		if err := metrics.Serve(ctx, ":"+cfg.MetricsPort); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting HTTP server")
		errc <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
