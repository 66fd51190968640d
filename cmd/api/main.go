package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/LokalDeals/lokaldeals_api/internal/cache"
	"github.com/LokalDeals/lokaldeals_api/internal/config"
	"github.com/LokalDeals/lokaldeals_api/internal/database"
	"github.com/LokalDeals/lokaldeals_api/internal/handler"
	"github.com/LokalDeals/lokaldeals_api/internal/middleware"
	"github.com/LokalDeals/lokaldeals_api/internal/repository"
	"github.com/LokalDeals/lokaldeals_api/internal/service"
	"github.com/LokalDeals/lokaldeals_api/internal/utils"
	"github.com/LokalDeals/lokaldeals_api/internal/worker"
)

// main is the application entrypoint for the LokalDeals API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting lokaldeals api")

	utils.InitJWT(cfg.JWTSecret)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Initialize caches
	directoryCache := cache.NewDirectoryCache(redisClient)
	sessionStore := cache.NewSessionStore(redisClient)

	// 4. Initialize repositories
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	offerRepo := repository.NewOfferRepository(db)

	// 5. Initialize services
	identitySvc := service.NewIdentityService(userRepo, sessionStore)
	companySvc := service.NewCompanyService(companyRepo, identitySvc, directoryCache)
	offerSvc := service.NewOfferService(offerRepo, directoryCache)
	directorySvc := service.NewDirectoryService(companyRepo, offerRepo, directoryCache)
	moderationSvc := service.NewModerationService(companyRepo, offerRepo, directoryCache)

	storageSvc, err := service.NewStorageService(&cfg.Storage)
	if err != nil {
		log.Warn().Err(err).Msg("storage service initialization failed - uploads will be disabled")
	}

	// 6. Initialize handlers
	rateLimiter := middleware.NewInvalidAuthRateLimiter()
	handlers := &Handlers{
		Health:    handler.NewHealthHandler(db, redisClient),
		Auth:      handler.NewAuthHandler(identitySvc, companySvc, rateLimiter),
		Company:   handler.NewCompanyHandler(companySvc),
		Offer:     handler.NewOfferHandler(offerSvc, companySvc),
		Directory: handler.NewDirectoryHandler(directorySvc),
		Admin:     handler.NewAdminHandler(moderationSvc),
		Upload:    handler.NewUploadHandler(storageSvc),
	}

	// 7. Initialize middleware
	sessionMw := middleware.NewSessionMiddleware(sessionStore)

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, sessionMw)

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start workers
	go worker.NewReconcileWorker(userRepo, cfg.Worker.ReconcileInterval, cfg.Worker.ReconcileGrace).Start(ctx)

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Company   *handler.CompanyHandler
	Offer     *handler.OfferHandler
	Directory *handler.DirectoryHandler
	Admin     *handler.AdminHandler
	Upload    *handler.UploadHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, sessionMw *middleware.SessionMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Public directory
	router.GET("/v1/categories", handlers.Directory.ListCategories)
	directory := router.Group("/v1/directory")
	{
		directory.GET("/companies", handlers.Directory.ListCompanies)
		directory.GET("/companies/:slug", handlers.Directory.GetCompany)
		directory.GET("/offers", handlers.Directory.ListOffers)
		directory.GET("/offers/:slug", handlers.Directory.GetOffer)
	}

	// Auth
	auth := router.Group("/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/me", sessionMw.Handle(), handlers.Auth.Me)
		auth.POST("/change-password", sessionMw.Handle(), handlers.Auth.ChangePassword)
		auth.POST("/signout", sessionMw.Handle(), handlers.Auth.SignOut)
	}

	// Company self-service (session required)
	companies := router.Group("/v1/companies")
	companies.Use(sessionMw.Handle())
	{
		companies.GET("/profile", handlers.Company.GetProfile)
		companies.PUT("/profile", handlers.Company.UpdateProfile)
	}

	// Offer management (session required)
	offers := router.Group("/v1/offers")
	offers.Use(sessionMw.Handle())
	{
		offers.POST("", handlers.Offer.Create)
		offers.GET("", handlers.Offer.List)
		offers.GET("/:id", handlers.Offer.Get)
		offers.PUT("/:id", handlers.Offer.Update)
		offers.DELETE("/:id", handlers.Offer.Delete)
	}

	// Uploads (session required)
	router.POST("/v1/upload", sessionMw.Handle(), handlers.Upload.Upload)

	// Admin moderation (session + ADMIN role)
	admin := router.Group("/v1/admin")
	admin.Use(sessionMw.Handle(), sessionMw.RequireAdmin())
	{
		admin.POST("/companies/:id/approve", handlers.Admin.ApproveCompany)
		admin.POST("/companies/:id/disable", handlers.Admin.DisableCompany)
		admin.POST("/companies/:id/reactivate", handlers.Admin.ReactivateCompany)
		admin.POST("/offers/:id/approve", handlers.Admin.ApproveOffer)
		admin.POST("/offers/:id/disable", handlers.Admin.DisableOffer)
		admin.POST("/offers/:id/reactivate", handlers.Admin.ReactivateOffer)
		admin.PUT("/offers/:id/featured", handlers.Admin.SetOfferFeatured)
	}
}

func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
