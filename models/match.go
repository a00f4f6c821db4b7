package models

import "time"

// Match - направленное ребро свайпа actor -> target.
// Уникальность по упорядоченной паре: повторный свайп перезаписывает решение.
// IsMutual выставляется в true на обоих ребрах в одной транзакции,
// как только обе стороны поставили лайк.
type Match struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID   int64     `gorm:"index:match_pair_idx,unique;index" json:"actor_id"`
	TargetID  int64     `gorm:"index:match_pair_idx,unique;index" json:"target_id"`
	IsLike    bool      `gorm:"not null" json:"is_like"`
	IsMutual  bool      `gorm:"default:false" json:"is_mutual"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Match) TableName() string {
	return "matches"
}

// MatchWithUser - лайк вместе с анкетой второй стороны (для GET /api/matches)
type MatchWithUser struct {
	Match Match `json:"match"`
	User  User  `json:"user"`
}
