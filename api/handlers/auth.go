package handlers

import (
	"errors"
	"net/http"

	"amur/models"
	"amur/services"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	City     string `json:"city"`
	UserType string `json:"user_type" binding:"required"`
}

type LoginRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Register(c *gin.Context) {
	var registerRequest RegisterRequest
	if err := c.ShouldBindJSON(&registerRequest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	newUser := models.User{
		Nickname: registerRequest.Nickname,
		Name:     registerRequest.Name,
		Bio:      registerRequest.Bio,
		City:     registerRequest.City,
		UserType: models.UserType(registerRequest.UserType),
	}

	userService := services.NewUserService()
	token, err := userService.Register(c.Request.Context(), &newUser, registerRequest.Password)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id": newUser.ID,
		"token":   token,
	})
}

func Login(c *gin.Context) {
	var loginRequest LoginRequest
	if err := c.ShouldBindJSON(&loginRequest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userService := services.NewUserService()
	user, token, err := userService.Login(c.Request.Context(), loginRequest.Nickname, loginRequest.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if errors.Is(err, services.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is blocked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.SetCookie("auth_token", token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user_id": user.ID,
		"token":   token,
	})
}

func Logout(c *gin.Context) {
	userID := c.GetInt64("user_id")
	token := c.GetString("auth_token")

	userService := services.NewUserService()
	if err := userService.Logout(c.Request.Context(), userID, token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
