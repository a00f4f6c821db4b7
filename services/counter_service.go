package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"amur/db"
	"amur/models"

	"github.com/go-redis/redis/v8"
)

const COUNTER_TTL = 24 * time.Hour

// CounterService - кеш счетчиков непрочитанных по диалогам. Ключ держится
// на упорядоченную пару (смотрящий, собеседник): счетчики двух сторон одной
// комнаты независимы. Источник истины - БД; кеш сходится через Reconcile.
type CounterService struct {
	redisClient *redis.Client
}

var (
	counterServiceInstance *CounterService
	counterServiceOnce     sync.Once
)

// GetCounterService возвращает singleton инстанс CounterService
func GetCounterService() *CounterService {
	counterServiceOnce.Do(func() {
		counterServiceInstance = NewCounterService(RedisClient)
	})
	return counterServiceInstance
}

func NewCounterService(redisClient *redis.Client) *CounterService {
	return &CounterService{redisClient: redisClient}
}

// getCounterKey - ключ счетчика непрочитанных от peerID к viewerID
func (s *CounterService) getCounterKey(viewerID, peerID int64) string {
	return fmt.Sprintf("counter:unread:%d:%d", viewerID, peerID)
}

// IncrUnread увеличивает счетчик при новом сообщении peer -> viewer
func (s *CounterService) IncrUnread(ctx context.Context, viewerID, peerID int64) {
	if s.redisClient == nil {
		return
	}
	key := s.getCounterKey(viewerID, peerID)
	if err := s.redisClient.Incr(ctx, key).Err(); err != nil {
		log.Printf("Failed to increment unread counter %s: %v", key, err)
		return
	}
	_ = s.redisClient.Expire(ctx, key, COUNTER_TTL).Err()
}

// ResetUnread обнуляет счетчик после прочтения диалога
func (s *CounterService) ResetUnread(ctx context.Context, viewerID, peerID int64) {
	if s.redisClient == nil {
		return
	}
	key := s.getCounterKey(viewerID, peerID)
	if err := s.redisClient.Del(ctx, key).Err(); err != nil {
		log.Printf("Failed to reset unread counter %s: %v", key, err)
	}
}

// GetUnread возвращает кешированный счетчик; при промахе пересчитывает из БД
// и прогревает кеш (сверка устраняет накопившийся дрейф)
func (s *CounterService) GetUnread(ctx context.Context, viewerID, peerID int64) (int64, error) {
	if s.redisClient == nil {
		return s.Reconcile(ctx, viewerID, peerID)
	}
	key := s.getCounterKey(viewerID, peerID)

	val, err := s.redisClient.Get(ctx, key).Result()
	if err == nil {
		if count, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil {
			_ = s.redisClient.Expire(ctx, key, COUNTER_TTL).Err()
			return count, nil
		}
	} else if err != redis.Nil {
		return 0, fmt.Errorf("failed to read counter: %w", err)
	}

	return s.Reconcile(ctx, viewerID, peerID)
}

// Reconcile сверяет счетчик с БД и перезаписывает кеш точным значением
func (s *CounterService) Reconcile(ctx context.Context, viewerID, peerID int64) (int64, error) {
	var actual int64
	err := db.GetReadOnlyDB(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", viewerID, peerID, false).
		Count(&actual).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread from db: %w", err)
	}

	if s.redisClient != nil {
		key := s.getCounterKey(viewerID, peerID)
		if err := s.redisClient.Set(ctx, key, actual, COUNTER_TTL).Err(); err != nil {
			log.Printf("Failed to warm unread counter %s: %v", key, err)
		}
	}
	return actual, nil
}

// GetTotalUnread - суммарный бейдж по всем диалогам пользователя.
// Считается пайплайном по собеседникам из списка комнат.
func (s *CounterService) GetTotalUnread(ctx context.Context, viewerID int64) (int64, error) {
	var rooms []models.ChatRoom
	err := db.GetReadOnlyDB(ctx).
		Where("user1_id = ? OR user2_id = ?", viewerID, viewerID).
		Find(&rooms).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list rooms for badge: %w", err)
	}

	var total int64
	for _, room := range rooms {
		count, err := s.GetUnread(ctx, viewerID, room.Other(viewerID))
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}
