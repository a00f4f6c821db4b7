package services

import (
	"context"
	"fmt"
	"time"

	"amur/db"
	"amur/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultFeedLimit = 20

type MatchService struct {
	rooms *RoomService
}

func NewMatchService() *MatchService {
	return &MatchService{rooms: NewRoomService()}
}

// Swipe записывает решение actor -> target. На упорядоченную пару существует
// не более одного ребра: повторный свайп перезаписывает прежнее решение
// (upsert по уникальному индексу). Взаимность вычисляется в той же
// транзакции, что и запись ребра: если обе стороны лайкнули, is_mutual
// выставляется на обоих ребрах и создается комната. Перезапись лайка на
// pass снимает is_mutual с обоих ребер; комната при этом не удаляется.
func (s *MatchService) Swipe(ctx context.Context, actorID, targetID int64, isLike bool) (*models.Match, error) {
	if actorID == targetID {
		return nil, fmt.Errorf("%w: cannot swipe yourself", ErrValidation)
	}

	var actor, target models.User
	if err := db.GetReadOnlyDB(ctx).First(&target, targetID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: target user %d", ErrNotFound, targetID)
		}
		return nil, fmt.Errorf("failed to check target: %w", err)
	}
	if err := db.GetReadOnlyDB(ctx).First(&actor, actorID).Error; err != nil {
		return nil, fmt.Errorf("failed to check actor: %w", err)
	}
	if target.IsBlocked {
		return nil, fmt.Errorf("%w: target is not available", ErrForbidden)
	}
	// Видимость односторонняя: customer видит и свайпает только escort-анкеты
	if actor.UserType == models.CUSTOMER && target.UserType != models.ESCORT {
		return nil, fmt.Errorf("%w: target is not available for this account type", ErrForbidden)
	}

	now := time.Now()
	edge := models.Match{
		ActorID:   actorID,
		TargetID:  targetID,
		IsLike:    isLike,
		IsMutual:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_like":    isLike,
				"is_mutual":  false,
				"updated_at": now,
			}),
		}).Create(&edge).Error; err != nil {
			return fmt.Errorf("failed to save decision: %w", err)
		}

		var reciprocal models.Match
		err := tx.Where("actor_id = ? AND target_id = ?", targetID, actorID).First(&reciprocal).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to check reciprocal decision: %w", err)
		}

		if isLike && reciprocal.IsLike {
			// Взаимный лайк: флаг ставится на обоих ребрах атомарно,
			// комната создается заранее, до первого сообщения
			if err := tx.Model(&models.Match{}).
				Where("(actor_id = ? AND target_id = ?) OR (actor_id = ? AND target_id = ?)",
					actorID, targetID, targetID, actorID).
				Update("is_mutual", true).Error; err != nil {
				return fmt.Errorf("failed to flag mutual match: %w", err)
			}
			if _, err := s.rooms.getOrCreateRoomTx(tx, actorID, targetID); err != nil {
				return err
			}
		} else if reciprocal.IsMutual {
			// Лайк перезаписан на pass - снимаем взаимность со встречного ребра
			if err := tx.Model(&models.Match{}).
				Where("actor_id = ? AND target_id = ?", targetID, actorID).
				Update("is_mutual", false).Error; err != nil {
				return fmt.Errorf("failed to clear mutual flag: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Перечитываем ребро: после upsert и пересчета взаимности
	var saved models.Match
	if err := db.GetReadOnlyDB(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		First(&saved).Error; err != nil {
		return nil, fmt.Errorf("failed to reload decision: %w", err)
	}
	return &saved, nil
}

// ListLikes возвращает лайки пользователя вместе с анкетами второй стороны
func (s *MatchService) ListLikes(ctx context.Context, userID int64) ([]models.MatchWithUser, error) {
	var edges []models.Match
	err := db.GetReadOnlyDB(ctx).
		Where("actor_id = ? AND is_like = ?", userID, true).
		Order("updated_at DESC, id DESC").
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	result := make([]models.MatchWithUser, 0, len(edges))
	for _, edge := range edges {
		var user models.User
		if err := db.GetReadOnlyDB(ctx).First(&user, edge.TargetID).Error; err != nil {
			continue
		}
		result = append(result, models.MatchWithUser{Match: edge, User: user})
	}
	return result, nil
}

// RecommendationFeed - лента кандидатов для свайпа. Для customer кандидаты
// ограничены escort-анкетами (односторонняя видимость), для escort
// ограничений по типу нет. Уже решенные кандидаты исключаются. Порядок
// детерминированный: премиум, затем онлайн, затем последняя активность.
func (s *MatchService) RecommendationFeed(ctx context.Context, viewerID int64, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultFeedLimit
	}

	var viewer models.User
	if err := db.GetReadOnlyDB(ctx).First(&viewer, viewerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, viewerID)
		}
		return nil, fmt.Errorf("failed to load viewer: %w", err)
	}

	decided := db.GetReadOnlyDB(ctx).
		Model(&models.Match{}).
		Select("target_id").
		Where("actor_id = ?", viewerID)

	query := db.GetReadOnlyDB(ctx).
		Model(&models.User{}).
		Where("id != ?", viewerID).
		Where("is_blocked = ?", false).
		Where("id NOT IN (?)", decided)

	if viewer.UserType == models.CUSTOMER {
		query = query.Where("user_type = ?", models.ESCORT)
	}

	var candidates []models.User
	err := query.
		Order("is_premium DESC, is_online DESC, last_seen_at DESC, id ASC").
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build feed: %w", err)
	}
	return candidates, nil
}
