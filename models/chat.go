package models

import "time"

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
)

// ChatRoom - долговременная идентичность переписки для неупорядоченной пары.
// Пара хранится канонически: User1ID < User2ID, уникальный индекс защищает
// от гонки при одновременном первом контакте.
type ChatRoom struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	User1ID       int64     `gorm:"index:room_pair_idx,unique" json:"user1_id"`
	User2ID       int64     `gorm:"index:room_pair_idx,unique" json:"user2_id"`
	LastMessageID int64     `json:"last_message_id"`
	UpdatedAt     time.Time `json:"updated_at"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ChatRoom) TableName() string {
	return "chat_rooms"
}

// Other возвращает id второго участника комнаты
func (r *ChatRoom) Other(userID int64) int64 {
	if r.User1ID == userID {
		return r.User2ID
	}
	return r.User1ID
}

// Message - сообщение между пользователями. Неизменяемо после создания,
// кроме перехода IsRead false -> true (только получателем, без отката).
type Message struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID    int64       `gorm:"column:sender_id;index:msg_pair_idx" json:"sender_id"`
	ReceiverID  int64       `gorm:"column:receiver_id;index:msg_pair_idx" json:"receiver_id"`
	Content     string      `gorm:"type:text" json:"content"`
	MessageType MessageType `gorm:"type:message_type;default:text" json:"message_type"`
	ImageURL    string      `gorm:"size:512" json:"image_url,omitempty"`
	IsRead      bool        `gorm:"default:false" json:"is_read"`
	CreatedAt   time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

// RoomView - комната для списка /api/chat/rooms: второй участник,
// последнее сообщение и число непрочитанных с точки зрения смотрящего.
type RoomView struct {
	Room        ChatRoom `json:"room"`
	OtherUser   User     `json:"other_user"`
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int64    `json:"unread_count"`
}
