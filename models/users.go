package models

import (
	"time"
)

type UserType string

const (
	ESCORT   UserType = "escort"
	CUSTOMER UserType = "customer"
)

// User - анкета пользователя. Поля присутствия (IsOnline, LastSeenAt)
// обновляются WebSocket-шлюзом и REST login/logout.
type User struct {
	ID        int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Nickname  string   `gorm:"size:60;uniqueIndex" json:"nickname"`
	Name      string   `gorm:"size:255" json:"name"`
	Bio       string   `gorm:"type:text" json:"bio"`
	Images    string   `gorm:"type:text" json:"images"` // JSON-массив URL, контент-модерация вне этого сервиса
	Services  string   `gorm:"type:text" json:"services"`
	Rate      int64    `json:"rate"`
	City      string   `gorm:"size:255" json:"city"`
	Password  string   `gorm:"size:255" json:"-"`
	UserType  UserType `gorm:"type:user_type;index" json:"user_type"`
	IsPremium bool     `gorm:"default:false" json:"is_premium"`
	IsOnline  bool     `gorm:"default:false" json:"is_online"`
	IsBlocked bool     `gorm:"default:false" json:"is_blocked"`
	IsAdmin   bool     `gorm:"default:false" json:"-"`

	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type UserTokens struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64  `gorm:"index:user_token_idx,unique" json:"user_id"`
	Token  string `gorm:"size:255;index:user_token_idx,unique" json:"token"`
}

func (UserTokens) TableName() string {
	return "user_tokens"
}
