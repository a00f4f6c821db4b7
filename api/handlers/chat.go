package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"amur/api/middleware"
	"amur/config"
	"amur/models"
	"amur/services"

	"github.com/gin-gonic/gin"
)

type SendMessageRequest struct {
	ReceiverID int64  `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

func chatErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ListChatRooms - список комнат со вторым участником, последним сообщением
// и счетчиком непрочитанных
func ListChatRooms(c *gin.Context) {
	userID := c.GetInt64("user_id")

	messageService := services.NewMessageService()
	rooms, err := messageService.ListRooms(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// GetChatMessages - переписка с собеседником в хронологическом порядке
func GetChatMessages(c *gin.Context) {
	userID := c.GetInt64("user_id")
	otherUserID, err := strconv.ParseInt(c.Param("otherUserId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messageService := services.NewMessageService()
	messages, err := messageService.GetMessages(c.Request.Context(), userID, otherUserID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendChatMessage - durable-путь отправки: сохраняем через MessageService,
// рассылаем по сокетам только после успешного коммита
func SendChatMessage(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var sendRequest SendMessageRequest
	if err := c.ShouldBindJSON(&sendRequest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	start := time.Now()
	messageService := services.NewMessageService()
	msg, err := messageService.SendMessage(c.Request.Context(), userID, sendRequest.ReceiverID,
		sendRequest.Content, models.MessageTypeText, "")
	if err != nil {
		middleware.RecordChatOperation("send", "error", "chat-api", time.Since(start))
		chatErrorResponse(c, err)
		return
	}
	middleware.RecordChatOperation("send", "success", "chat-api", time.Since(start))

	services.NotifyNewMessage(c.Request.Context(), msg)
	c.JSON(http.StatusCreated, msg)
}

// SendChatImage - вариант с картинкой: multipart-файл сохраняется в каталог
// загрузок под случайным именем, в сообщение попадает URL
func SendChatImage(c *gin.Context) {
	userID := c.GetInt64("user_id")

	receiverID, err := strconv.ParseInt(c.PostForm("receiverId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid receiverId"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}

	// Случайное имя: не раскрываем оригинальное и исключаем коллизии
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".gif" && ext != ".webp" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image format"})
		return
	}
	filename := hex.EncodeToString(raw) + ext

	uploadDir := "uploads"
	baseURL := "/uploads"
	if config.AppConfig != nil && config.AppConfig.Uploads.Dir != "" {
		uploadDir = config.AppConfig.Uploads.Dir
		baseURL = config.AppConfig.Uploads.BaseURL
	}
	if err := c.SaveUploadedFile(file, filepath.Join(uploadDir, filename)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return
	}
	imageURL := fmt.Sprintf("%s/%s", strings.TrimRight(baseURL, "/"), filename)

	start := time.Now()
	messageService := services.NewMessageService()
	msg, err := messageService.SendMessage(c.Request.Context(), userID, receiverID,
		c.PostForm("content"), models.MessageTypeImage, imageURL)
	if err != nil {
		middleware.RecordChatOperation("send_image", "error", "chat-api", time.Since(start))
		chatErrorResponse(c, err)
		return
	}
	middleware.RecordChatOperation("send_image", "success", "chat-api", time.Since(start))

	services.NotifyNewMessage(c.Request.Context(), msg)
	c.JSON(http.StatusCreated, msg)
}

// MarkChatRead помечает прочитанными все сообщения от собеседника
func MarkChatRead(c *gin.Context) {
	userID := c.GetInt64("user_id")
	senderID, err := strconv.ParseInt(c.Param("otherUserId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sender id"})
		return
	}

	start := time.Now()
	messageService := services.NewMessageService()
	marked, err := messageService.MarkRead(c.Request.Context(), userID, senderID)
	if err != nil {
		middleware.RecordChatOperation("mark_read", "error", "chat-api", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	middleware.RecordChatOperation("mark_read", "success", "chat-api", time.Since(start))

	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// UnreadBadge - суммарное число непрочитанных по всем диалогам
func UnreadBadge(c *gin.Context) {
	userID := c.GetInt64("user_id")

	total, err := services.GetCounterService().GetTotalUnread(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": total})
}
