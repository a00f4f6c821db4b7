package services

import (
	"context"
	"encoding/json"
	"log"

	"amur/models"
)

// Кадры server -> client WebSocket-протокола
type WSFrame struct {
	Type       string          `json:"type"`
	Message    *models.Message `json:"message,omitempty"`
	SenderID   int64           `json:"senderId,omitempty"`
	ChatRoomID int64           `json:"chatRoomId,omitempty"`
	IsTyping   bool            `json:"isTyping,omitempty"`
	UserID     int64           `json:"userId,omitempty"`
}

// ErrorFrame - кадр {type:"error", message}: текст под тем же ключом
// message, что и объект сообщения в new_message (протокол клиента)
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func MarshalErrorFrame(text string) []byte {
	data, _ := json.Marshal(ErrorFrame{Type: "error", Message: text})
	return data
}

func marshalFrame(frame WSFrame) []byte {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Println("Failed to marshal ws frame:", err)
		return nil
	}
	return data
}

// NotifyNewMessage доставляет сохраненное сообщение получателю. Сначала
// публикуем в RabbitMQ (доставка на все инстансы), при недоступности
// брокера шлем напрямую в локальные сокеты. Доставка best-effort,
// at-most-once: без сокета сообщение догоняется durable-фетчем.
func NotifyNewMessage(ctx context.Context, msg *models.Message) {
	if ChatEventsEnabled() {
		if err := PublishChatEvent(ctx, ChatEvent{
			Type:       EventNewMessage,
			ReceiverID: msg.ReceiverID,
			Message:    msg,
		}); err == nil {
			return
		} else {
			log.Println("Failed to publish chat event, falling back to local push:", err)
		}
	}
	PushNewMessageLocal(msg)
}

// PushNewMessageLocal шлет фрейм new_message в локально привязанные сокеты
func PushNewMessageLocal(msg *models.Message) {
	data := marshalFrame(WSFrame{
		Type:     "new_message",
		Message:  msg,
		SenderID: msg.SenderID,
	})
	if data != nil {
		GlobalWSConnManager.Send(msg.ReceiverID, data)
	}
}

// NotifyTyping пересылает индикатор набора второму участнику комнаты.
// Эфемерно: без открытого сокета просто теряется.
func NotifyTyping(peerID, roomID, typistID int64, isTyping bool) {
	data := marshalFrame(WSFrame{
		Type:       "typing_indicator",
		ChatRoomID: roomID,
		IsTyping:   isTyping,
		UserID:     typistID,
	})
	if data != nil {
		GlobalWSConnManager.Send(peerID, data)
	}
}
