package router

import (
	"github.com/anonto42/nano-midea/community/internal/cache"
	"github.com/anonto42/nano-midea/community/internal/handlers"
	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/anonto42/nano-midea/community/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Deps are the collaborators the routes are built from
type Deps struct {
	DB     *gorm.DB
	Bodies repositories.PostBodyRepository
	Unread cache.UnreadCache
	// Auth guards every /api/v1 route and must store the caller's user id
	Auth echo.MiddlewareFunc
	Feed services.FeedOptions
	Log  zerolog.Logger
}

// Migrate creates or updates the relational schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return err
	}
	log.Info().Msg("PostgreSQL auto-migrations completed for all models.")
	return nil
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, d Deps) {
	if d.Unread == nil {
		d.Unread = cache.Noop{}
	}

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Services ---
	userRepo := repositories.NewPostgresUserRepository(d.DB)
	activities := services.NewActivityService(d.DB, d.Unread, d.Log.With().Str("service", "activity").Logger())
	interactions := services.NewInteractionService(d.DB, activities, d.Log.With().Str("service", "interaction").Logger())
	feed := services.NewFeedService(d.DB, d.Feed)
	notifications := services.NewNotificationService(d.DB, d.Unread, d.Log.With().Str("service", "notification").Logger(), d.Feed.DefaultLimit, d.Feed.MaxLimit)
	comments := services.NewCommentService(d.DB, activities, d.Log.With().Str("service", "comment").Logger())
	posts := services.NewPostService(d.DB, d.Bodies, activities, d.Log.With().Str("service", "post").Logger())

	// --- Protected routes ---
	api := e.Group("/api/v1")
	api.Use(d.Auth)

	handlers.NewUserHandler(userRepo).RegisterProfileRoutes(api)
	handlers.NewPostHandler(posts, feed, userRepo).RegisterPostRoutes(api)
	handlers.NewFeedHandler(feed, userRepo).RegisterFeedRoutes(api)
	handlers.NewFollowHandler(interactions, userRepo, repositories.NewPostgresTagRepository(d.DB)).RegisterFollowRoutes(api)
	handlers.NewCommentHandler(comments).RegisterCommentRoutes(api)
	handlers.NewLikeHandler(interactions).RegisterLikeRoutes(api)
	handlers.NewBookmarkHandler(interactions).RegisterBookmarkRoutes(api)
	handlers.NewNotificationHandler(notifications, userRepo).RegisterNotificationRoutes(api)

	log.Info().Int("routes", len(e.Routes())).Msg("All routes configured.")
}
