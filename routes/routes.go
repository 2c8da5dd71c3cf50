package routes

import (
	"context"
	"time"

	"nearlink/controllers"
	"nearlink/database"
	"nearlink/linking"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

func SetupRoutes(r *gin.Engine, service *linking.Service) {
	db := database.GetDB()

	linkController := controllers.NewLinkController(service)
	postController := controllers.NewPostController(service)
	adminController := controllers.NewAdminController(db)

	r.Use(SecurityHeadersMiddleware())

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(503, gin.H{
				"status":    "unhealthy",
				"error":     "database connection error",
				"timestamp": time.Now().Unix(),
			})
			return
		}

		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := sqlDB.PingContext(pingCtx); err != nil {
			c.JSON(503, gin.H{
				"status":    "unhealthy",
				"error":     "database ping failed",
				"timestamp": time.Now().Unix(),
			})
			return
		}

		c.JSON(200, gin.H{
			"status":    "healthy",
			"database":  "connected",
			"timestamp": time.Now().Unix(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api/link/request-auth-url", linkController.RequestAuthURL)
	r.POST("/api/link/complete", linkController.CompleteLink)
	r.GET("/api/link/:account_id", linkController.GetLinkage)

	r.POST("/api/posts", postController.CreatePost)

	r.GET("/api/audit/logs", adminController.GetAuditLogs)
	r.POST("/api/audit/cleanup", adminController.CleanupAuditLogs)
	r.POST("/api/database/backup", adminController.BackupDatabase)
	r.GET("/api/database/backups", adminController.ListBackups)
}
