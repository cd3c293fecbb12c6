package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Chenxue3/restaurant-sub001/internal/dishimage"
	"github.com/Chenxue3/restaurant-sub001/internal/middleware"
	"github.com/Chenxue3/restaurant-sub001/internal/scan"
	"github.com/Chenxue3/restaurant-sub001/internal/translate"
)

func NewRouter(
	scanHandler *scan.Handler,
	translateHandler *translate.Handler,
	dishImageHandler *dishimage.Handler,
) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestID())

	// Health check route
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/scan-menu", scanHandler.ScanMenu)
	r.POST("/translate-menu", translateHandler.TranslateMenu)
	r.POST("/generate-dish-image", dishImageHandler.GenerateDishImage)

	return r
}
