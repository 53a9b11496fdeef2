package main

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/eaglebank/console/shared/logging"
	"github.com/eaglebank/console/shared/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var consoleServiceURL = getEnv("CONSOLE_SERVICE_URL", "http://localhost:8085")

func main() {
	middleware.MustInitJWTSecret()

	logger, err := logging.New(getEnv("ENVIRONMENT", "development") == "production", getEnv("LOG_LEVEL", "info"))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	router := newRouter(logger, &http.Client{Timeout: 15 * time.Second}, consoleServiceURL)

	port := getEnv("PORT", "8080")
	logger.Info("API gateway starting", zap.String("port", port), zap.String("console", consoleServiceURL))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func newRouter(logger *zap.Logger, client *http.Client, consoleURL string) *gin.Engine {
	router := gin.New()
	router.Use(middleware.LoggingMiddleware(logger)...)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "api-gateway"})
	})

	console := router.Group("/v1/console/users", middleware.AuthMiddleware())
	{
		proxy := proxyTo(consoleURL, client, logger)
		console.GET("", proxy)
		console.GET("/profile", proxy)
		console.PUT("/profile", proxy)
		console.POST("/password/verify", proxy)
		console.PUT("/password", proxy)
		console.PUT("/admin", proxy)
	}
	return router
}

func proxyTo(serviceURL string, client *http.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Build target URL
		targetURL := serviceURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			if bodyBytes, err = io.ReadAll(c.Request.Body); err != nil {
				logger.Warn("failed to read request body", zap.String("target", targetURL), zap.Error(err))
				middleware.RespondWithStatus(c, http.StatusBadRequest, "Failed to read request body")
				return
			}
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, bytes.NewReader(bodyBytes))
		if err != nil {
			middleware.RespondWithStatus(c, http.StatusInternalServerError, "Failed to create request")
			return
		}

		for key, values := range c.Request.Header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}

		// Authorization travels with the copied headers; the console service
		// verifies the token again.
		req.Header.Set("X-Forwarded-For", c.ClientIP())
		if id := middleware.GetRequestID(c); id != "" {
			req.Header.Set(middleware.HeaderRequestID, id)
		}

		resp, err := client.Do(req)
		if err != nil {
			logger.Warn("error proxying request", zap.String("target", targetURL), zap.Error(err))
			middleware.RespondWithStatus(c, http.StatusBadGateway, "Service unavailable")
			return
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			middleware.RespondWithStatus(c, http.StatusInternalServerError, "Failed to read response")
			return
		}

		for key, values := range resp.Header {
			for _, value := range values {
				c.Header(key, value)
			}
		}

		c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		// Remove trailing slash if present
		return strings.TrimSuffix(value, "/")
	}
	return fallback
}
