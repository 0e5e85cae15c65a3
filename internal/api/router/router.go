package router

import (
	"github.com/gin-gonic/gin"

	"github.com/tunegrab/tunegrab/internal/api/handler"
)

// Options configures the router beyond handler dependencies.
type Options struct {
	RateLimiter *IPRateLimiter
}

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, opts *Options) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	conversionHandler := handler.NewConversionHandler(deps)

	// Health stays outside the rate limit so probes never get throttled.
	r.GET("/health", conversionHandler.Health)

	api := r.Group("/api")
	if opts != nil && opts.RateLimiter != nil {
		api.Use(RateLimitMiddleware(opts.RateLimiter))
	}
	{
		api.POST("/download", conversionHandler.Submit)
		api.GET("/download/:filename", conversionHandler.Retrieve)
		api.GET("/status/:jobId", conversionHandler.Status)
		api.GET("/stats", conversionHandler.Stats)
	}

	return r
}
