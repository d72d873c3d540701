package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bcsync/internal/api/handlers"
	"bcsync/internal/api/middleware"
	"bcsync/internal/config"
	"bcsync/internal/database"
	"bcsync/internal/logger"
	"bcsync/internal/sms"
	"bcsync/internal/sync"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database, engine *sync.Engine) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.PriceGate(cfg.JWTSecret))

	// Initialize handlers
	productHandler := handlers.NewProductHandler(db.DB, logger)
	categoryHandler := handlers.NewCategoryHandler(db.DB, logger)
	syncHandler := handlers.NewSyncHandler(engine, db.DB, logger)
	authHandler := handlers.NewAuthHandler(db.DB, logger, cfg, sms.NewLogSender(logger))

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Products (storefront; prices gated behind phone verification)
		products := v1.Group("/products")
		{
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
		}

		// Categories
		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.List)
			categories.GET("/:id", categoryHandler.Get)
		}

		// Sync (admin)
		syncGroup := v1.Group("/sync")
		{
			syncGroup.POST("/run", syncHandler.Run)
			syncGroup.POST("/dry-run", syncHandler.DryRun)
			syncGroup.POST("/images/rebuild", syncHandler.RebuildImages)
			syncGroup.GET("/runs", syncHandler.Runs)
		}

		// Phone verification
		authGroup := v1.Group("/auth/phone")
		{
			authGroup.POST("", authHandler.Start)
			authGroup.POST("/confirm", authHandler.Confirm)
			authGroup.GET("/:id", authHandler.Status)
			authGroup.GET("/:id/token", authHandler.Token)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		db:     db,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
