package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/admin"
	"github.com/mikepea/foodgram/pkg/foodgram/auth"
	"github.com/mikepea/foodgram/pkg/foodgram/config"
	"github.com/mikepea/foodgram/pkg/foodgram/database"
	"github.com/mikepea/foodgram/pkg/foodgram/ingredients"
	"github.com/mikepea/foodgram/pkg/foodgram/logging"
	"github.com/mikepea/foodgram/pkg/foodgram/middleware"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
	"github.com/mikepea/foodgram/pkg/foodgram/pagination"
	"github.com/mikepea/foodgram/pkg/foodgram/recipes"
	"github.com/mikepea/foodgram/pkg/foodgram/shoppinglist"
	"github.com/mikepea/foodgram/pkg/foodgram/storage"
	"github.com/mikepea/foodgram/pkg/foodgram/tags"
	"github.com/mikepea/foodgram/pkg/foodgram/tokens"
	"github.com/mikepea/foodgram/pkg/foodgram/users"
	"github.com/mikepea/foodgram/pkg/foodgram/validation"

	_ "github.com/mikepea/foodgram/api/swagger"
)

// @title Foodgram API
// @version 1.0
// @description Recipe sharing: publish recipes, follow authors, keep favorites and download a shopping list.

// @contact.name Foodgram Support
// @contact.url https://github.com/mikepea/foodgram

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT or auth token. Format: "Bearer {jwt}" or "Token {key}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: os.Stderr})
	auth.Configure(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	pagination.Configure(cfg.API.PageSize, cfg.API.MaxPageSize, cfg.Server.BaseURL)
	validation.Register()

	if err := database.Connect(cfg.Database.Driver, cfg.Database.DSN); err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to connect to database")
	}
	db := database.GetDB()

	if err := models.AutoMigrate(db); err != nil {
		logging.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logging.Info().Msg("Database migrations completed")

	if err := ensureAdminExists(db, cfg.Admin); err != nil {
		logging.Fatal().Err(err).Msg("Failed to ensure admin user exists")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to initialise image storage")
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := setupRouter(db, store, cfg.Storage)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("Starting Foodgram server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Server forced to shut down")
	}
}

func setupRouter(db *gorm.DB, store storage.Store, storageCfg config.StorageConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), logging.RequestLogger(), middleware.Metrics(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if storageCfg.Backend == "local" {
		r.Static(storageCfg.MediaURL, storageCfg.MediaRoot)
	}

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"service": "foodgram",
			})
		})

		// Auth routes (public; JWT login/register and opaque token login)
		authGroup := api.Group("/auth")
		auth.NewHandler(db).RegisterRoutes(authGroup)
		tokens.NewHandler(db).RegisterRoutes(authGroup)

		// Resource routes: anonymous reads, authenticated writes
		public := api.Group("", tokens.OptionalAuthMiddleware(db))
		users.NewHandler(db).RegisterRoutes(public)
		tags.NewHandler(db).RegisterRoutes(public)
		ingredients.NewHandler(db).RegisterRoutes(public)
		shoppinglist.NewHandler(db).RegisterRoutes(public)
		recipes.NewHandler(db, store).RegisterRoutes(public)

		// Admin console (JWT only, admin role required)
		admin.Mount(api, db, store)
	}

	return r
}

// ensureAdminExists creates the configured administrator when no admin exists yet.
func ensureAdminExists(db *gorm.DB, cfg config.AdminConfig) error {
	var count int64
	if err := db.Model(&models.User{}).Where("system_role = ?", models.SystemRoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.Email == "" || cfg.Password == "" {
		logging.Warn().Msg("No admin user exists and admin.email/admin.password are not set")
		return nil
	}

	hashedPassword, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	adminUser := models.User{
		Email:        cfg.Email,
		Username:     "admin",
		FirstName:    "Admin",
		PasswordHash: hashedPassword,
		SystemRole:   models.SystemRoleAdmin,
	}
	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	logging.Info().Str("email", cfg.Email).Msg("Created admin user")
	return nil
}
