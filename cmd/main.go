package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"document-chat-service/internal/ai"
	"document-chat-service/internal/config"
	"document-chat-service/internal/logger"
	"document-chat-service/internal/telemetry"
	"document-chat-service/internal/vectorstore"
	"document-chat-service/middleware"
	"document-chat-service/routes"
	"document-chat-service/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Initialize tracing
	shutdownTracer, err := telemetry.InitTracer("document-chat-service")
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Connect to Redis (rate limiting + answer cache)
	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	// Construct service clients once; every component receives them
	// by reference.
	ctx := context.Background()

	embedder, err := ai.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingsModel)
	if err != nil {
		log.Fatal("Failed to create embedder:", err)
	}
	defer embedder.Close()

	geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GenerationModel, cfg.GeminiTier)
	if err != nil {
		log.Fatal("Failed to create Gemini client:", err)
	}
	defer geminiClient.Close()

	vectors := vectorstore.NewClient(vectorstore.Config{
		APIKey:     cfg.PineconeAPIKey,
		ControlURL: cfg.PineconeControlURL,
		IndexHost:  cfg.PineconeIndexHost,
		Cloud:      cfg.PineconeCloud,
		Region:     cfg.PineconeRegion,
	})

	// Index creation is idempotent; dimensionality must match the
	// embedding model's output size.
	if err := vectors.EnsureIndex(ctx, cfg.PineconeIndexName, cfg.VectorDimensions, "cosine"); err != nil {
		log.Fatal("Failed to ensure vector index:", err)
	}

	db := mongoClient.Database(cfg.DBName)
	indexStore := services.NewMongoIndexStore(db)

	extractor := services.NewPDFExtractor(cfg.MaxFileSize)
	indexer := services.NewIndexer(cfg.PineconeIndexName, cfg.VectorDimensions,
		embedder, cfg.EmbeddingsModel, vectors, indexStore, metrics)
	validator := services.NewQuestionValidator(cfg.QuestionMinLength, cfg.QuestionDenylist)
	retriever := services.NewRetriever(indexStore, embedder, cfg.EmbeddingsModel,
		cfg.VectorDimensions, vectors, cfg.TopK, metrics)
	synthesizer := services.NewSynthesizer(geminiClient, metrics)
	answerCache := services.NewAnswerCache(redisClient, time.Duration(cfg.AnswerCacheTTL)*time.Second)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.RateLimitMiddleware(redisClient, cfg))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupDocumentRoutes(router, cfg, extractor, indexer)
	routes.SetupQuestionRoutes(router, cfg, validator, answerCache, retriever, synthesizer, metrics)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
