package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds every tunable the service reads from the environment.
// Policy constants (retries, backoff, TTLs) default to conservative values
// and are overridable per deployment.
type Config struct {
	Port string

	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey     string
	OpenAIImageModel string

	// DatabaseURL is optional. When set, the dish-image cache persists
	// terminal entries in Postgres; otherwise an in-memory store is used.
	DatabaseURL string

	R2Endpoint      string
	R2AccessKey     string
	R2SecretKey     string
	R2Bucket        string
	R2PublicBaseURL string

	MaxUploadBytes int64

	LLMMaxAttempts    int
	LLMBackoffBase    time.Duration
	LLMCallTimeout    time.Duration
	ImageCallTimeout  time.Duration
	LLMMaxConcurrency int64

	DishImageTTL         time.Duration
	DishImageNegativeTTL time.Duration
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("ignoring non-numeric env %s=%q", k, v)
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("ignoring non-duration env %s=%q", k, v)
	}
	return def
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey: mustEnv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		OpenAIAPIKey:     mustEnv("OPENAI_API_KEY"),
		OpenAIImageModel: getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		R2Endpoint:      mustEnv("R2_ENDPOINT"),
		R2AccessKey:     mustEnv("R2_ACCESS_KEY"),
		R2SecretKey:     mustEnv("R2_SECRET_KEY"),
		R2Bucket:        mustEnv("R2_BUCKET_NAME"),
		R2PublicBaseURL: mustEnv("R2_PUBLIC_BASE_URL"),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),

		LLMMaxAttempts:    getEnvInt("LLM_MAX_ATTEMPTS", 3),
		LLMBackoffBase:    getEnvDuration("LLM_BACKOFF_BASE", 500*time.Millisecond),
		LLMCallTimeout:    getEnvDuration("LLM_CALL_TIMEOUT", 30*time.Second),
		ImageCallTimeout:  getEnvDuration("IMAGE_CALL_TIMEOUT", 60*time.Second),
		LLMMaxConcurrency: int64(getEnvInt("LLM_MAX_CONCURRENCY", 4)),

		DishImageTTL:         getEnvDuration("DISH_IMAGE_TTL", 24*time.Hour),
		DishImageNegativeTTL: getEnvDuration("DISH_IMAGE_NEGATIVE_TTL", 5*time.Minute),
	}
}
