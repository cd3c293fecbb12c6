package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Chenxue3/restaurant-sub001/internal/config"
	"github.com/Chenxue3/restaurant-sub001/internal/db"
	"github.com/Chenxue3/restaurant-sub001/internal/dishimage"
	"github.com/Chenxue3/restaurant-sub001/internal/llm"
	"github.com/Chenxue3/restaurant-sub001/internal/router"
	"github.com/Chenxue3/restaurant-sub001/internal/scan"
	"github.com/Chenxue3/restaurant-sub001/internal/storage"
	"github.com/Chenxue3/restaurant-sub001/internal/translate"
)

func main() {

	// ───────────────────────── ENV ─────────────────────────
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg := config.Load()

	// ───────────────────────── STORAGE ─────────────────────────
	r2Client, err := storage.NewR2Client(context.Background(), storage.R2Config{
		Endpoint:      cfg.R2Endpoint,
		AccessKey:     cfg.R2AccessKey,
		SecretKey:     cfg.R2SecretKey,
		Bucket:        cfg.R2Bucket,
		PublicBaseURL: cfg.R2PublicBaseURL,
	})
	if err != nil {
		log.Fatal("❌ R2 init failed:", err)
	}

	// ───────────────────────── MODEL CLIENTS ─────────────────────────
	llmPolicy := llm.NewPolicy(
		cfg.LLMMaxAttempts,
		cfg.LLMBackoffBase,
		cfg.LLMCallTimeout,
		cfg.LLMMaxConcurrency,
	)

	gemini := llm.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, llmPolicy)
	openai := llm.NewOpenAIImageClient(
		cfg.OpenAIAPIKey,
		cfg.OpenAIImageModel,
		llmPolicy.WithTimeout(cfg.ImageCallTimeout),
	)

	// ───────────────────────── DISH IMAGE CACHE ─────────────────────────
	var cacheStore dishimage.Store = dishimage.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		pool := db.ConnectPostgres(cfg.DatabaseURL)
		defer pool.Close()
		cacheStore = dishimage.NewPostgresStore(pool)
	}

	dishImageService := dishimage.NewService(
		openai,
		cacheStore,
		r2Client,
		cfg.DishImageTTL,
		cfg.DishImageNegativeTTL,
		cfg.ImageCallTimeout*time.Duration(cfg.LLMMaxAttempts+1),
	)

	// ───────────────────────── SERVICES ─────────────────────────
	scanService := scan.NewService(gemini, cfg.MaxUploadBytes)
	translateService := translate.NewService(gemini)

	// ───────────────────────── HANDLERS + ROUTES ─────────────────────────
	r := router.NewRouter(
		scan.NewHandler(scanService),
		translate.NewHandler(translateService),
		dishimage.NewHandler(dishImageService),
	)

	// ───────────────────────── START ─────────────────────────
	log.Printf("🚀 API running at http://localhost:%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
