package tests

import (
	"context"
	"testing"

	"amur/models"
	"amur/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterIncrementAndReset(t *testing.T) {
	SetupTestDB(t)
	ctx := context.Background()
	counters := services.GetCounterService()

	viewer := createTestUser(t, models.ESCORT)
	peer := createTestUser(t, models.CUSTOMER)

	counters.IncrUnread(ctx, viewer, peer)
	counters.IncrUnread(ctx, viewer, peer)

	count, err := counters.GetUnread(ctx, viewer, peer)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	counters.ResetUnread(ctx, viewer, peer)

	// После сброса промах кеша сверяется с БД: сообщений нет, счетчик ноль
	count, err = counters.GetUnread(ctx, viewer, peer)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCounterReconcileFromDB(t *testing.T) {
	SetupTestDB(t)
	ctx := context.Background()
	counters := services.GetCounterService()
	messageService := services.NewMessageService()

	viewer := createTestUser(t, models.ESCORT)
	peer := createTestUser(t, models.CUSTOMER)

	for i := 0; i < 3; i++ {
		_, err := messageService.SendMessage(ctx, peer, viewer, "unread", models.MessageTypeText, "")
		require.NoError(t, err)
	}

	// Дрейф кеша: затираем накопленное значение и сверяемся с БД
	counters.ResetUnread(ctx, viewer, peer)
	count, err := counters.Reconcile(ctx, viewer, peer)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// Кеш прогрет точным значением
	count, err = counters.GetUnread(ctx, viewer, peer)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestCounterFollowsMessageFlow(t *testing.T) {
	SetupTestDB(t)
	ctx := context.Background()
	counters := services.GetCounterService()
	messageService := services.NewMessageService()

	viewer := createTestUser(t, models.ESCORT)
	peer := createTestUser(t, models.CUSTOMER)

	_, err := messageService.SendMessage(ctx, peer, viewer, "ping", models.MessageTypeText, "")
	require.NoError(t, err)

	count, err := counters.GetUnread(ctx, viewer, peer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = messageService.MarkRead(ctx, viewer, peer)
	require.NoError(t, err)

	count, err = counters.GetUnread(ctx, viewer, peer)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestTotalUnreadBadge(t *testing.T) {
	SetupTestDB(t)
	ctx := context.Background()
	counters := services.GetCounterService()
	messageService := services.NewMessageService()

	viewer := createTestUser(t, models.ESCORT)
	peer1 := createTestUser(t, models.CUSTOMER)
	peer2 := createTestUser(t, models.CUSTOMER)

	_, err := messageService.SendMessage(ctx, peer1, viewer, "one", models.MessageTypeText, "")
	require.NoError(t, err)
	_, err = messageService.SendMessage(ctx, peer2, viewer, "two", models.MessageTypeText, "")
	require.NoError(t, err)
	_, err = messageService.SendMessage(ctx, peer2, viewer, "three", models.MessageTypeText, "")
	require.NoError(t, err)

	total, err := counters.GetTotalUnread(ctx, viewer)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}
