package approuters

import (
	"github.com/gin-gonic/gin"
	"github.com/manumay1962/CHAT-APP/internal/configuration"
	"github.com/manumay1962/CHAT-APP/internal/middleware"
)

func MessageRouters(router *gin.Engine, container *configuration.Container) {
	messageRoute := router.Group("/api/messages")
	messageRoute.Use(middleware.RateLimit(container.RateLimiter))
	messageRoute.Use(container.Auth.RequireUser())
	{
		messageRoute.GET("/users", container.MessageHandler.GetUsersForSidebar)
		messageRoute.GET("/:id", container.MessageHandler.GetMessages)
		messageRoute.PUT("/mark/:id", container.MessageHandler.MarkMessageSeen)
		messageRoute.POST("/send/:id", container.MessageHandler.SendMessage)
	}
}
