package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"amur/db"
	"amur/models"

	"gorm.io/gorm"
)

const DefaultDialogLimit = 50

type MessageService struct {
	rooms *RoomService
}

func NewMessageService() *MessageService {
	return &MessageService{rooms: NewRoomService()}
}

// SendMessage - единственная точка записи сообщений: и REST-хендлер, и
// WebSocket-фрейм message проходят здесь. Сообщение, комната и указатель
// last_message_id пишутся в одной транзакции; рассылка по сокетам
// выполняется вызывающим кодом строго после успешного коммита.
func (ms *MessageService) SendMessage(ctx context.Context, senderID, receiverID int64, content string, msgType models.MessageType, imageURL string) (*models.Message, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrValidation)
	}

	switch msgType {
	case models.MessageTypeText:
		if strings.TrimSpace(content) == "" {
			return nil, fmt.Errorf("%w: message text is empty", ErrValidation)
		}
	case models.MessageTypeImage:
		if imageURL == "" {
			return nil, fmt.Errorf("%w: image message requires image url", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", ErrValidation, msgType)
	}

	// Проверяем получателя и блокировки (контракт с модерацией)
	var sender, receiver models.User
	if err := db.GetReadOnlyDB(ctx).First(&receiver, receiverID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: receiver %d", ErrNotFound, receiverID)
		}
		return nil, fmt.Errorf("failed to check receiver: %w", err)
	}
	if err := db.GetReadOnlyDB(ctx).First(&sender, senderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: sender %d", ErrNotFound, senderID)
		}
		return nil, fmt.Errorf("failed to check sender: %w", err)
	}
	if sender.IsBlocked || receiver.IsBlocked {
		return nil, fmt.Errorf("%w: sender is blocked from contacting receiver", ErrForbidden)
	}

	msg := &models.Message{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     content,
		MessageType: msgType,
		ImageURL:    imageURL,
		IsRead:      false,
		CreatedAt:   time.Now(),
	}

	err := db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}
		room, err := ms.rooms.getOrCreateRoomTx(tx, senderID, receiverID)
		if err != nil {
			return err
		}
		return tx.Model(&models.ChatRoom{}).
			Where("id = ?", room.ID).
			Updates(map[string]interface{}{
				"last_message_id": msg.ID,
				"updated_at":      msg.CreatedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	// Кеш непрочитанных - best effort, БД остается источником истины
	if RedisClient != nil {
		GetCounterService().IncrUnread(ctx, receiverID, senderID)
	}

	return msg, nil
}

// GetMessages возвращает не более limit последних сообщений между двумя
// пользователями в хронологическом порядке (старые первыми). Запрос в
// хранилище идет newest-first, поэтому результат разворачивается.
func (ms *MessageService) GetMessages(ctx context.Context, userID, otherUserID int64, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = DefaultDialogLimit
	}

	var messages []models.Message
	err := db.GetReadOnlyDB(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherUserID, otherUserID, userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list dialog: %w", err)
	}

	// Разворачиваем newest-first -> хронологический порядок
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkRead помечает прочитанными все сообщения senderID -> userID.
// Идемпотентна: повторный вызов ничего не меняет, is_read не откатывается.
func (ms *MessageService) MarkRead(ctx context.Context, userID, senderID int64) (int64, error) {
	result := db.GetWriteDB(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", userID, senderID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", result.Error)
	}

	if RedisClient != nil {
		GetCounterService().ResetUnread(ctx, userID, senderID)
	}
	return result.RowsAffected, nil
}

// UnreadCount - число непрочитанных сообщений от otherUserID с точки зрения
// viewerID. Считается по-комнатно и независимо для каждой из сторон.
func (ms *MessageService) UnreadCount(ctx context.Context, viewerID, otherUserID int64) (int64, error) {
	var count int64
	err := db.GetReadOnlyDB(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", viewerID, otherUserID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return count, nil
}

// ListRooms возвращает комнаты пользователя со вторым участником, последним
// сообщением и счетчиком непрочитанных, свежие переписки первыми.
func (ms *MessageService) ListRooms(ctx context.Context, userID int64) ([]models.RoomView, error) {
	var rooms []models.ChatRoom
	err := db.GetReadOnlyDB(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("updated_at DESC, id DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	views := make([]models.RoomView, 0, len(rooms))
	for _, room := range rooms {
		otherID := room.Other(userID)

		var other models.User
		if err := db.GetReadOnlyDB(ctx).First(&other, otherID).Error; err != nil {
			// Участник мог быть удален модерацией - комнату не показываем
			continue
		}

		view := models.RoomView{Room: room, OtherUser: other}

		if room.LastMessageID > 0 {
			var last models.Message
			if err := db.GetReadOnlyDB(ctx).First(&last, room.LastMessageID).Error; err == nil {
				view.LastMessage = &last
			}
		}

		unread, err := ms.UnreadCount(ctx, userID, otherID)
		if err != nil {
			return nil, err
		}
		view.UnreadCount = unread

		views = append(views, view)
	}
	return views, nil
}
