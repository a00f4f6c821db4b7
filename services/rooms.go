package services

import (
	"context"
	"fmt"

	"amur/db"
	"amur/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomService struct{}

func NewRoomService() *RoomService {
	return &RoomService{}
}

// canonicalPair приводит пару id к каноническому виду (min, max),
// чтобы (A,B) и (B,A) указывали на одну и ту же комнату.
func canonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// GetOrCreateRoom возвращает комнату для неупорядоченной пары пользователей,
// создавая ее при первом обращении. Идемпотентна: повторные вызовы с любым
// порядком аргументов возвращают ту же строку. Гонку одновременного первого
// контакта разрешает уникальный индекс по канонической паре: проигравший
// Create перечитывает созданную победителем комнату.
func (rs *RoomService) GetOrCreateRoom(ctx context.Context, a, b int64) (*models.ChatRoom, error) {
	if a == b {
		return nil, fmt.Errorf("%w: cannot open room with yourself", ErrValidation)
	}
	return rs.getOrCreateRoomTx(db.GetWriteDB(ctx), a, b)
}

func (rs *RoomService) getOrCreateRoomTx(tx *gorm.DB, a, b int64) (*models.ChatRoom, error) {
	u1, u2 := canonicalPair(a, b)

	var room models.ChatRoom
	err := tx.Where("user1_id = ? AND user2_id = ?", u1, u2).First(&room).Error
	if err == nil {
		return &room, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to lookup room: %w", err)
	}

	// DO NOTHING вместо голого INSERT: нарушение уникального индекса
	// отравило бы транзакцию на postgres, и проигравший гонку первого
	// контакта не смог бы ничего перечитать до отката
	room = models.ChatRoom{User1ID: u1, User2ID: u2}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
		DoNothing: true,
	}).Create(&room).Error; err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	if room.ID != 0 {
		return &room, nil
	}

	// Вставка пропущена - комнату успел создать второй участник гонки
	var existing models.ChatRoom
	if err := tx.Where("user1_id = ? AND user2_id = ?", u1, u2).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("%w: lost room race but found no room: %v", ErrConflict, err)
	}
	return &existing, nil
}

// GetRoomByID возвращает комнату с проверкой, что userID - ее участник
func (rs *RoomService) GetRoomByID(ctx context.Context, roomID, userID int64) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := db.GetReadOnlyDB(ctx).First(&room, roomID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: room %d", ErrNotFound, roomID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room.User1ID != userID && room.User2ID != userID {
		return nil, fmt.Errorf("%w: not a room participant", ErrForbidden)
	}
	return &room, nil
}
