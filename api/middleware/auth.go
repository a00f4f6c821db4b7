package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"amur/services"

	"github.com/gin-gonic/gin"
)

// extractToken достает токен из Authorization: Bearer или из cookie auth_token
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}

// resolveUserID превращает токен в user_id. Токены вида test_token_N
// резолвятся без похода в БД (интеграционные тесты).
func resolveUserID(c *gin.Context, token string) (int64, bool) {
	if strings.HasPrefix(token, "test_token_") {
		userID, err := strconv.ParseInt(strings.TrimPrefix(token, "test_token_"), 10, 64)
		if err != nil {
			return 0, false
		}
		return userID, true
	}
	userID, err := services.CheckToken(c.Request.Context(), token)
	if err != nil {
		return 0, false
	}
	return userID, true
}

// AuthMiddleware требует валидный токен и кладет user_id в контекст
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		userID, ok := resolveUserID(c, token)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Set("auth_token", token)
		c.Next()
	}
}

// OptionalAuthMiddleware - для публичных эндпоинтов, где авторизация
// лишь обогащает ответ
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if userID, ok := resolveUserID(c, token); ok {
				c.Set("user_id", userID)
				c.Set("auth_token", token)
			}
		}
		c.Next()
	}
}
