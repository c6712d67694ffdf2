package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"listing-generator/internal/auth"
	"listing-generator/internal/config"
	"listing-generator/internal/database"
	"listing-generator/internal/handlers"
	"listing-generator/internal/jobs"
	"listing-generator/internal/openai"
	"listing-generator/internal/resend"
	"listing-generator/internal/services"
	"listing-generator/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize object storage for listing images
	bucket, err := storage.NewGCSBucket(context.Background(), cfg.Storage.Bucket, cfg.Storage.CDNDomain)
	if err != nil {
		log.Fatalf("Failed to initialize image storage: %v", err)
	}

	// Initialize API clients
	openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	resendClient := resend.NewClient(cfg.Resend.APIKey, cfg.Resend.BaseURL)

	// Initialize services
	authService := services.NewAuthService(database.GetDB())
	profileService := services.NewProfileService(database.GetDB())
	listingService := services.NewListingService(database.GetDB(), bucket)
	generationService := services.NewGenerationService(database.GetDB(), openaiClient)
	notificationService := services.NewNotificationService(database.GetDB(), resendClient, cfg.Resend.FromAddress)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, profileService)
	profileHandler := handlers.NewProfileHandler(profileService)
	listingHandler := handlers.NewListingHandler(listingService)
	generateHandler := handlers.NewGenerateHandler(generationService, notificationService)
	draftHandler := handlers.NewDraftHandler(listingService, generationService, notificationService)

	// Start usage reset job (runs every 12 hours)
	usageResetJob := jobs.NewUsageResetJob(database.GetDB())
	usageResetJob.Start(12 * time.Hour)
	log.Println("Usage reset job started")

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000", // Local development
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	// Add additional frontend URL from environment if provided
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// Profile / settings endpoints
		api.GET("/profile", profileHandler.GetProfile)
		api.PUT("/profile/notifications", profileHandler.UpdateNotifications)

		// Wizard draft endpoints
		drafts := api.Group("/drafts")
		{
			drafts.POST("", draftHandler.CreateDraft)
			drafts.GET("/:id", draftHandler.GetDraft)
			drafts.PATCH("/:id", draftHandler.UpdateDraft)
			drafts.POST("/:id/next", draftHandler.NextStep)
			drafts.POST("/:id/previous", draftHandler.PreviousStep)
			drafts.POST("/:id/images", draftHandler.StageImages)
			drafts.POST("/:id/submit", draftHandler.SubmitDraft)
		}

		// Listing browser endpoints
		api.GET("/listings", listingHandler.GetListings)
		api.GET("/listings/:id", listingHandler.GetListing)
		api.DELETE("/listings/:id", listingHandler.DeleteListing)

		// Generation pipeline + notification (RPC style, body carries the id)
		api.POST("/generate", generateHandler.GenerateListing)
		api.POST("/notify", generateHandler.SendListingEmail)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
