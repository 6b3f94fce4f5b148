// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pias-analytics/pias-backend/internal/api/handlers"
	"github.com/pias-analytics/pias-backend/internal/api/middleware"
	"github.com/pias-analytics/pias-backend/internal/service"
)

func NewRouter(svc *service.AnalysisService, allowedOrigins []string, features handlers.Features) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	handler := handlers.NewAnalysisHandler(svc, features)

	// Health check
	router.GET("/health", handler.Health)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/health", handler.Health)
		apiGroup.POST("/upload-csv", handler.Upload)
		apiGroup.POST("/filter-products", handler.Filter)
		apiGroup.POST("/export-report", handler.Export)
		apiGroup.POST("/chat", handler.Chat)
		apiGroup.POST("/columns-info", handler.ColumnsInfo)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
