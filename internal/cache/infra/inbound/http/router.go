package http

import "github.com/gin-gonic/gin"

func RegisterCacheRoutes(r *gin.Engine, handler *CacheHandler) {
	entries := r.Group("/cache")
	{
		entries.GET("", handler.ListIDs)
		entries.POST("/clean", handler.Clean)
		entries.GET("/:id", handler.Load)
		entries.HEAD("/:id", handler.Test)
		entries.PUT("/:id", handler.Save)
		entries.DELETE("/:id", handler.Remove)
		entries.GET("/:id/metadata", handler.Metadata)
		entries.POST("/:id/touch", handler.Touch)
	}

	r.GET("/capabilities", handler.Capabilities)
	r.GET("/filling-percentage", handler.FillingPercentage)
	r.GET("/health", handler.Health)
}
