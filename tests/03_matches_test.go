package tests

import (
	"context"
	"errors"
	"testing"

	"amur/db"
	"amur/models"
	"amur/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwipeRecordsDecision(t *testing.T) {
	SetupTestDB(t)
	ctx := context.Background()
	matchService := services.NewMatchService()

	a := createTestUser(t, models.CUSTOMER)
	b := createTestUser(t, models.ESCORT)

	match, err := matchService.Swipe(ctx, a, b, true)
	require.NoError(t, err)
	assert.Equal(t, a, match.ActorID)
	assert.Equal(t, b, match.TargetID)
	assert.True(t, match.IsLike)
	assert.False(t, match.IsMutual)

	// Односторонний лайк комнату не создает
	var roomCount int64
	u1, u2 := a, b
	if u1 > u2 {
		u1, u2 = u2, u1
	}
	require.NoError(t, db.ORM.Model(&models.ChatRoom{}).
		Where("user1_id = ? AND user2_id = ?", u1, u2).Count(&roomCount).Error)
	assert.Equal(t, int64(0), roomCount)
}

func TestSwipeOverwritesPriorDecision(t *testing.T) {
	SetupTestDB(t)
	ctx := context.Background()
	matchService := services.NewMatchService()

	a := createTestUser(t, models.CUSTOMER)
	b := createTestUser(t, models.ESCORT)

	first, err := matchService.Swipe(ctx, a, b, false)
	require.NoError(t, err)

	second, err := matchService.Swipe(ctx, a, b, true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsLike)

	// По упорядоченной паре не более одного ребра
	var edgeCount int64
	require.NoError(t, db.ORM.Model(&models.Match{}).
		Where("actor_id = ? AND target_id = ?", a, b).Count(&edgeCount).Error)
	assert.Equal(t, int64(1), edgeCount)
}

func TestMutualLikeCreatesRoom(t *testing.T) {
	SetupTestDB(t)
	ctx := context.Background()
	matchService := services.NewMatchService()

	a := createTestUser(t, models.CUSTOMER)
	b := createTestUser(t, models.ESCORT)

	_, err := matchService.Swipe(ctx, a, b, true)
	require.NoError(t, err)

	back, err := matchService.Swipe(ctx, b, a, true)
	require.NoError(t, err)
	assert.True(t, back.IsMutual)

	// Флаг стоит на обоих ребрах
	var forward models.Match
	require.NoError(t, db.ORM.Where("actor_id = ? AND target_id = ?", a, b).First(&forward).Error)
	assert.True(t, forward.IsMutual)

	// Комната создана заранее, до первого сообщения
	u1, u2 := a, b
	if u1 > u2 {
		u1, u2 = u2, u1
	}
	var room models.ChatRoom
	require.NoError(t, db.ORM.Where("user1_id = ? AND user2_id = ?", u1, u2).First(&room).Error)

	// И видна обеим сторонам в списке комнат
	messageService := services.NewMessageService()
	roomsA, err := messageService.ListRooms(ctx, a)
	require.NoError(t, err)
	roomsB, err := messageService.ListRooms(ctx, b)
	require.NoError(t, err)
	assert.Len(t, roomsA, 1)
	assert.Len(t, roomsB, 1)
	assert.Equal(t, roomsA[0].Room.ID, roomsB[0].Room.ID)
}

func TestUnlikeClearsMutualFlag(t *testing.T) {
	SetupTestDB(t)
	ctx := context.Background()
	matchService := services.NewMatchService()

	a := createTestUser(t, models.CUSTOMER)
	b := createTestUser(t, models.ESCORT)

	_, err := matchService.Swipe(ctx, a, b, true)
	require.NoError(t, err)
	_, err = matchService.Swipe(ctx, b, a, true)
	require.NoError(t, err)

	// Перезапись лайка на pass снимает взаимность с обоих ребер
	updated, err := matchService.Swipe(ctx, a, b, false)
	require.NoError(t, err)
	assert.False(t, updated.IsLike)
	assert.False(t, updated.IsMutual)

	var reciprocal models.Match
	require.NoError(t, db.ORM.Where("actor_id = ? AND target_id = ?", b, a).First(&reciprocal).Error)
	assert.False(t, reciprocal.IsMutual)
	assert.True(t, reciprocal.IsLike)
}

func TestSwipeRestrictions(t *testing.T) {
	SetupTestDB(t)
	ctx := context.Background()
	matchService := services.NewMatchService()

	customer1 := createTestUser(t, models.CUSTOMER)
	customer2 := createTestUser(t, models.CUSTOMER)
	escort := createTestUser(t, models.ESCORT)

	_, err := matchService.Swipe(ctx, customer1, customer1, true)
	assert.True(t, errors.Is(err, services.ErrValidation))

	_, err = matchService.Swipe(ctx, customer1, 999999, true)
	assert.True(t, errors.Is(err, services.ErrNotFound))

	// customer видит и свайпает только escort-анкеты
	_, err = matchService.Swipe(ctx, customer1, customer2, true)
	assert.True(t, errors.Is(err, services.ErrForbidden))

	require.NoError(t, db.ORM.Model(&models.User{}).Where("id = ?", escort).Update("is_blocked", true).Error)
	_, err = matchService.Swipe(ctx, customer1, escort, true)
	assert.True(t, errors.Is(err, services.ErrForbidden))
}

func TestListLikes(t *testing.T) {
	SetupTestDB(t)
	ctx := context.Background()
	matchService := services.NewMatchService()

	a := createTestUser(t, models.CUSTOMER)
	b := createTestUser(t, models.ESCORT)
	c := createTestUser(t, models.ESCORT)

	_, err := matchService.Swipe(ctx, a, b, true)
	require.NoError(t, err)
	_, err = matchService.Swipe(ctx, a, c, false)
	require.NoError(t, err)

	likes, err := matchService.ListLikes(ctx, a)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, b, likes[0].User.ID)
	assert.True(t, likes[0].Match.IsLike)
}

func TestRecommendationFeedForCustomer(t *testing.T) {
	SetupTestDB(t)
	ctx := context.Background()
	matchService := services.NewMatchService()

	viewer := createTestUser(t, models.CUSTOMER)
	escort1 := createTestUser(t, models.ESCORT)
	escort2 := createTestUser(t, models.ESCORT)
	escort3 := createTestUser(t, models.ESCORT)
	otherCustomer := createTestUser(t, models.CUSTOMER)
	blocked := createTestUser(t, models.ESCORT)

	require.NoError(t, db.ORM.Model(&models.User{}).Where("id = ?", escort2).Update("is_premium", true).Error)
	require.NoError(t, db.ORM.Model(&models.User{}).Where("id = ?", blocked).Update("is_blocked", true).Error)

	// Уже решенные кандидаты исключаются
	_, err := matchService.Swipe(ctx, viewer, escort3, false)
	require.NoError(t, err)

	feed, err := matchService.RecommendationFeed(ctx, viewer, 50)
	require.NoError(t, err)

	ids := make(map[int64]bool)
	for _, user := range feed {
		ids[user.ID] = true
		// customer никогда не видит customer-анкет
		assert.Equal(t, models.ESCORT, user.UserType)
	}
	assert.True(t, ids[escort1])
	assert.True(t, ids[escort2])
	assert.False(t, ids[escort3])
	assert.False(t, ids[otherCustomer])
	assert.False(t, ids[blocked])
	assert.False(t, ids[viewer])

	// Премиум-анкеты идут первыми
	require.GreaterOrEqual(t, len(feed), 2)
	assert.Equal(t, escort2, feed[0].ID)
}
