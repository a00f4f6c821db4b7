package routes

import (
	"amur/api/handlers"
	"amur/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func PublicApi(router *gin.Engine) {
	router.Use(middleware.PrometheusMiddleware("chat-api"))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("auth/register", handlers.Register)
		api.POST("auth/login", handlers.Login)
		api.POST("auth/logout", middleware.AuthMiddleware(), handlers.Logout)

		// Публичная витрина: токен не обязателен, но залогиненный
		// пользователь опознается
		api.GET("users/public", middleware.OptionalAuthMiddleware(), handlers.PublicProfiles)
	}

	authorized := router.Group("/api", middleware.AuthMiddleware())
	{
		authorized.GET("users/recommended", handlers.RecommendedUsers)
		authorized.GET("users/:userId", handlers.GetUser)

		// Свайпы
		authorized.POST("matches", handlers.CreateMatch)
		authorized.GET("matches", handlers.ListMatches)

		// Чат
		authorized.GET("chat/rooms", handlers.ListChatRooms)
		authorized.GET("chat/unread", handlers.UnreadBadge)
		authorized.GET("chat/:otherUserId/messages", handlers.GetChatMessages)
		authorized.POST("chat/messages", handlers.SendChatMessage)
		authorized.POST("chat/messages/image", handlers.SendChatImage)
		authorized.PUT("chat/:otherUserId/read", handlers.MarkChatRead)
	}

	// Личность сокета устанавливает кадр identify, не HTTP-заголовки
	router.GET("/ws", handlers.WSChatHandler)
}
