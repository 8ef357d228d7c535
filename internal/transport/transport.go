package transport

import (
	"net/http"
	"time"

	"freshkeeper/internal/transport/middleware"

	"github.com/gin-gonic/gin"
)

func InitRoutes(
	itemHandler *ItemHandler,
	userHandler *UserHandler,
	notificationHandler *NotificationHandler,
	adminHandler *AdminHandler,
) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30 * time.Second))

	// API routes
	api := router.Group("/api/v1")
	{
		// Item routes
		items := api.Group("/items")
		{
			items.POST("", itemHandler.CreateItem)
			items.GET("/:id", itemHandler.GetItem)
			items.PUT("/:id", itemHandler.UpdateItem)
			items.PATCH("/:id/status", itemHandler.UpdateItemStatus)
			items.DELETE("/:id", itemHandler.DeleteItem)
		}

		// User routes
		users := api.Group("/users")
		{
			users.POST("/register", userHandler.RegisterUser)
			users.GET("", userHandler.GetAllUsers)
			users.GET("/:user_id", userHandler.GetUser)
			users.PUT("/:user_id/preferences", userHandler.UpdatePreferences)
			users.DELETE("/:user_id", userHandler.DeleteUser)
			users.GET("/:user_id/items", itemHandler.GetUserItems)

			// Notification feed, scoped to its owner
			notifications := users.Group("/:user_id/notifications")
			{
				notifications.GET("", notificationHandler.GetUserNotifications)
				notifications.GET("/unread-count", notificationHandler.CountUnread)
				notifications.POST("/:id/read", notificationHandler.MarkRead)
				notifications.POST("/read-all", notificationHandler.MarkAllRead)
				notifications.DELETE("/:id", notificationHandler.DeleteNotification)
			}
		}

		// Admin routes
		admin := api.Group("/admin")
		{
			admin.POST("/scan", adminHandler.TriggerScan)
			admin.GET("/dlq", adminHandler.GetFailedTasks)
			admin.GET("/dlq/stats", adminHandler.GetDLQStats)
			admin.POST("/dlq/:id/requeue", adminHandler.RequeueFailedTask)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	return router
}
