package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	DBName   string
	Port     string
	GinMode  string

	CORSOrigins []string
	MaxFileSize int64

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Gemini
	GeminiAPIKey    string
	EmbeddingsModel string
	GenerationModel string
	GeminiTier      string

	// Pinecone vector store
	PineconeAPIKey     string
	PineconeControlURL string
	PineconeIndexHost  string
	PineconeIndexName  string
	PineconeCloud      string
	PineconeRegion     string

	// Indexing and retrieval
	VectorDimensions int
	ChunkSize        int
	ChunkOverlap     int
	TopK             int

	// Question validation
	QuestionMinLength int
	QuestionDenylist  []string

	// Rate limiting and caching
	RateLimitReqs   int
	RateLimitWindow int
	AnswerCacheTTL  int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/document_chat"),
		DBName:      getEnv("DB_NAME", "document_chat"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB upload cap

		// Redis Configuration
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// Gemini
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		EmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GenerationModel: getEnv("GEMINI_GENERATION_MODEL", "gemini-2.0-flash"),
		GeminiTier:      getEnv("GEMINI_TIER", "free"),

		// Pinecone
		PineconeAPIKey:     getEnv("PINECONE_API_KEY", ""),
		PineconeControlURL: getEnv("PINECONE_CONTROL_URL", "https://api.pinecone.io"),
		PineconeIndexHost:  getEnv("PINECONE_INDEX_HOST", ""),
		PineconeIndexName:  getEnv("PINECONE_INDEX_NAME", "document-chunks"),
		PineconeCloud:      getEnv("PINECONE_CLOUD", "aws"),
		PineconeRegion:     getEnv("PINECONE_REGION", "us-east-1"),

		// Indexing and retrieval
		VectorDimensions: getEnvInt("VECTOR_DIM", 768),
		ChunkSize:        getEnvInt("CHUNK_SIZE", 10000),
		ChunkOverlap:     getEnvInt("CHUNK_OVERLAP", 1000),
		TopK:             getEnvInt("TOP_K", 3),

		// Question validation
		QuestionMinLength: getEnvInt("QUESTION_MIN_LENGTH", 5),
		QuestionDenylist:  strings.Split(getEnv("QUESTION_DENYLIST", "badword1,badword2"), ","),

		// Rate limiting and caching
		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),
		AnswerCacheTTL:  getEnvInt("ANSWER_CACHE_TTL", 3600),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.PineconeAPIKey == "" {
		return nil, fmt.Errorf("PINECONE_API_KEY is required - set it in .env file")
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
