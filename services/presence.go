package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"amur/db"
	"amur/models"
)

const (
	PRESENCE_KEY_PREFIX = "online:"
	PRESENCE_TTL        = 5 * time.Minute
)

// SetOnline помечает пользователя онлайн: флаг в БД плюс ключ в Redis с TTL.
// TTL ограничивает окно ложного "онлайн", если транспорт умер без close.
func SetOnline(ctx context.Context, userID int64) {
	err := db.GetWriteDB(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_online", true).Error
	if err != nil {
		log.Printf("Failed to mark user %d online: %v", userID, err)
	}

	if RedisClient != nil {
		key := fmt.Sprintf("%s%d", PRESENCE_KEY_PREFIX, userID)
		if err := RedisClient.Set(ctx, key, 1, PRESENCE_TTL).Err(); err != nil {
			log.Printf("Failed to set presence key for user %d: %v", userID, err)
		}
	}
}

// SetOffline снимает флаг и фиксирует last_seen_at
func SetOffline(ctx context.Context, userID int64) {
	err := db.GetWriteDB(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_online":    false,
			"last_seen_at": time.Now(),
		}).Error
	if err != nil {
		log.Printf("Failed to mark user %d offline: %v", userID, err)
	}

	if RedisClient != nil {
		key := fmt.Sprintf("%s%d", PRESENCE_KEY_PREFIX, userID)
		if err := RedisClient.Del(ctx, key).Err(); err != nil {
			log.Printf("Failed to drop presence key for user %d: %v", userID, err)
		}
	}
}
