package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/marketplace-api/internal/config"
	"github.com/yourusername/marketplace-api/internal/handler"
	"github.com/yourusername/marketplace-api/internal/middleware"
	pgRepo "github.com/yourusername/marketplace-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/marketplace-api/internal/repository/redis"
	"github.com/yourusername/marketplace-api/internal/service"
	"github.com/yourusername/marketplace-api/pkg/auth"
	"github.com/yourusername/marketplace-api/pkg/auth/manager"
	"github.com/yourusername/marketplace-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Repositories.
	userRepo := pgRepo.NewUserRepo(db)
	sellerRepo := pgRepo.NewSellerRepo(db)
	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Mail sender: Resend when configured, noop otherwise.
	var emailService service.EmailService
	if cfg.Email.ResendAPIKey != "" {
		emailService, err = service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize ResendEmailService: %v", err)
			os.Exit(1)
		}
	} else {
		log.Println("RESEND_API_KEY is not set, outbound mail is disabled (noop sender)")
		emailService = &service.NoopEmailService{}
	}

	// Services.
	otpService, err := service.NewOTPService(cacheRepo, emailService)
	if err != nil {
		log.Printf("Failed to initialize OTPService: %v", err)
		os.Exit(1)
	}
	registrationService, err := service.NewRegistrationService(userRepo, sellerRepo, otpService)
	if err != nil {
		log.Printf("Failed to initialize RegistrationService: %v", err)
		os.Exit(1)
	}
	authService, err := service.NewAuthService(userRepo, sellerRepo)
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}

	// Token layer.
	jwtService, err := auth.NewJWTService(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		time.Duration(cfg.JWT.AccessExpiryMin)*time.Minute,
		time.Duration(cfg.JWT.RefreshExpiryHrs)*time.Hour,
	)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}
	tokenManager, err := manager.NewTokenManager(jwtService, authService)
	if err != nil {
		log.Printf("Failed to initialize TokenManager: %v", err)
		os.Exit(1)
	}

	isProduction := gin.Mode() == gin.ReleaseMode
	sameSite := http.SameSiteLaxMode
	if isProduction {
		sameSite = http.SameSiteNoneMode // cross-origin frontends, requires Secure
	}
	tokenManager.SetCookieAttributes("/", "", isProduction, sameSite)

	authMW := middleware.NewAuthMiddleware(jwtService, tokenManager, authService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Router.
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:3001"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := handler.NewAuthHandler(registrationService, authService, tokenManager)
	api := router.Group("/api")
	authHandler.RegisterRoutes(api, authMW, rateLimiter)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}
	log.Println("Server stopped.")
}
