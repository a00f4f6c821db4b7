package handlers

import (
	"errors"
	"net/http"

	"amur/services"

	"github.com/gin-gonic/gin"
)

type SwipeRequest struct {
	TargetUserID int64 `json:"targetUserId" binding:"required"`
	IsLike       *bool `json:"isLike" binding:"required"`
}

// CreateMatch записывает решение лайк/пасс и возвращает сохраненное ребро
func CreateMatch(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var swipeRequest SwipeRequest
	if err := c.ShouldBindJSON(&swipeRequest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	matchService := services.NewMatchService()
	match, err := matchService.Swipe(c.Request.Context(), userID, swipeRequest.TargetUserID, *swipeRequest.IsLike)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Target user not found"})
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}
	c.JSON(http.StatusCreated, match)
}

// ListMatches возвращает лайки пользователя вместе с анкетами
func ListMatches(c *gin.Context) {
	userID := c.GetInt64("user_id")

	matchService := services.NewMatchService()
	matches, err := matchService.ListLikes(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
