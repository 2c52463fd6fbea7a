package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"daily-claim-backend/docs"
	"daily-claim-backend/internal/common/config"
	"daily-claim-backend/internal/common/logger"
	"daily-claim-backend/internal/common/middleware"
	statusHandler "daily-claim-backend/internal/features/claimstatus/delivery/http"
	"daily-claim-backend/internal/features/claimstatus/resolver"
	statusService "daily-claim-backend/internal/features/claimstatus/service"
	verifyHandler "daily-claim-backend/internal/features/verification/handler/http"
	verifyRepo "daily-claim-backend/internal/features/verification/repository/redis"
	verifyService "daily-claim-backend/internal/features/verification/service"
	"daily-claim-backend/internal/platform/evm"
	"daily-claim-backend/internal/platform/redis"
)

const serviceName = "daily-claim-backend"

// @title           Daily Claim API
// @version         1.0
// @description     Claim status and claim verification for the daily token airdrop.

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1

// @tag.name claims
// @tag.description Claim eligibility and claim transaction verification

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Debug)
	log := logger.Component("api")

	log.Info().
		Str("version", docs.SwaggerInfo.Version).
		Bool("debug", cfg.Debug).
		Int("endpoints", len(cfg.Chain.Endpoints)).
		Msg("Starting Daily Claim Backend")

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := redis.Open(startCtx, cfg)
	cancelStart()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	pool := evm.NewPool(cfg.Chain.Endpoints)
	dialer := evm.NewDialer()

	claimResolver := resolver.New(
		pool,
		dialer,
		common.HexToAddress(cfg.Chain.ContractAddress),
		cfg.Chain.TokenDecimals,
		cfg.Chain.CallTimeout,
		logger.Component("resolver"),
	)
	statusSvc := statusService.NewStatusService(claimResolver)

	receipts := verifyService.NewReceiptFinder(pool, dialer, cfg.Chain.CallTimeout, logger.Component("receipts"))
	verifySvc := verifyService.NewService(verifyRepo.NewRepository(redisClient), receipts, logger.Component("verification"))

	log.Info().Msg("Services initialized")

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	httpLog := logger.Component("http")
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(httpLog))
	router.Use(middleware.Logger(httpLog))
	router.Use(middleware.Errors(httpLog))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	statusHandler.NewHandler(statusSvc).RegisterRoutes(v1)
	verifyHandler.NewHandler(verifySvc).RegisterRoutes(v1)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	setupProbes(router, redisClient)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func setupProbes(router *gin.Engine, redisClient *redis.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
