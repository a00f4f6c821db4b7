package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"amur/services"

	"github.com/gin-gonic/gin"
)

// PublicProfiles - витрина escort-анкет, доступна без авторизации
func PublicProfiles(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	city := c.Query("city")

	userService := services.NewUserService()
	users, err := userService.PublicProfiles(c.Request.Context(), city, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// RecommendedUsers - персональная лента кандидатов для свайпа
func RecommendedUsers(c *gin.Context) {
	userID := c.GetInt64("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	matchService := services.NewMatchService()
	users, err := matchService.RecommendationFeed(c.Request.Context(), userID, limit)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetUser возвращает одну анкету по id
func GetUser(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	userService := services.NewUserService()
	user, err := userService.GetUserByID(c.Request.Context(), targetID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, user)
}
