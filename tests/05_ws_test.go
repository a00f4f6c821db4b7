package tests

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"amur/api/handlers"
	"amur/models"
	"amur/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWSServer(t *testing.T) *httptest.Server {
	SetupTestDB(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", handlers.WSChatHandler)
	return httptest.NewServer(r)
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + ts.URL[4:] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func identifyAs(t *testing.T, conn *websocket.Conn, userID int64) {
	t.Helper()
	frame := map[string]interface{}{
		"type":  "identify",
		"token": fmt.Sprintf("test_token_%d", userID),
	}
	require.NoError(t, conn.WriteJSON(frame))

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Equal(t, "auth_success", resp["type"])
}

func TestWSIdentifyAndMessageDelivery(t *testing.T) {
	ts := setupWSServer(t)
	defer ts.Close()

	sender := createTestUser(t, models.CUSTOMER)
	receiver := createTestUser(t, models.ESCORT)

	receiverConn := dialWS(t, ts)
	defer receiverConn.Close()
	identifyAs(t, receiverConn, receiver)

	senderConn := dialWS(t, ts)
	defer senderConn.Close()
	identifyAs(t, senderConn, sender)

	// message-кадр проходит через тот же путь записи, что и REST
	require.NoError(t, senderConn.WriteJSON(map[string]interface{}{
		"type":       "message",
		"receiverId": receiver,
		"content":    "hello over ws",
	}))

	_, raw, err := receiverConn.ReadMessage()
	require.NoError(t, err)

	var frame struct {
		Type     string          `json:"type"`
		Message  *models.Message `json:"message"`
		SenderID int64           `json:"senderId"`
	}
	require.NoError(t, json.Unmarshal(raw, &frame))
	assert.Equal(t, "new_message", frame.Type)
	assert.Equal(t, sender, frame.SenderID)
	require.NotNil(t, frame.Message)
	assert.Equal(t, "hello over ws", frame.Message.Content)
	assert.NotZero(t, frame.Message.ID)

	// Сообщение сохранилось durable-путем, а не только ушло в сокет
	messageService := services.NewMessageService()
	messages, err := messageService.GetMessages(t.Context(), receiver, sender, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello over ws", messages[0].Content)
}

func TestWSErrorFrameKeepsSocketOpen(t *testing.T) {
	ts := setupWSServer(t)
	defer ts.Close()

	user := createTestUser(t, models.CUSTOMER)

	conn := dialWS(t, ts)
	defer conn.Close()

	// Кадр до identify - ошибка, но сокет живет
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "message", "receiverId": user, "content": "early",
	}))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var errFrame struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(raw, &errFrame))
	assert.Equal(t, "error", errFrame.Type)

	// После ошибки тот же сокет успешно идентифицируется
	identifyAs(t, conn, user)

	// Невалидное сообщение - снова кадр error, соединение не рвется
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "message", "receiverId": user, "content": "to myself",
	}))
	_, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &errFrame))
	assert.Equal(t, "error", errFrame.Type)
}

func TestWSMultiSocketBroadcast(t *testing.T) {
	ts := setupWSServer(t)
	defer ts.Close()

	sender := createTestUser(t, models.CUSTOMER)
	receiver := createTestUser(t, models.ESCORT)

	// Две вкладки одного получателя - рассылка во все сокеты
	tab1 := dialWS(t, ts)
	defer tab1.Close()
	identifyAs(t, tab1, receiver)

	tab2 := dialWS(t, ts)
	defer tab2.Close()
	identifyAs(t, tab2, receiver)

	senderConn := dialWS(t, ts)
	defer senderConn.Close()
	identifyAs(t, senderConn, sender)

	require.NoError(t, senderConn.WriteJSON(map[string]interface{}{
		"type":       "message",
		"receiverId": receiver,
		"content":    "to all tabs",
	}))

	for _, tab := range []*websocket.Conn{tab1, tab2} {
		_, raw, err := tab.ReadMessage()
		require.NoError(t, err)
		var frame struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(raw, &frame))
		assert.Equal(t, "new_message", frame.Type)
	}
}

func TestWSTypingIndicator(t *testing.T) {
	ts := setupWSServer(t)
	defer ts.Close()

	a := createTestUser(t, models.CUSTOMER)
	b := createTestUser(t, models.ESCORT)

	roomService := services.NewRoomService()
	room, err := roomService.GetOrCreateRoom(t.Context(), a, b)
	require.NoError(t, err)

	peerConn := dialWS(t, ts)
	defer peerConn.Close()
	identifyAs(t, peerConn, b)

	typistConn := dialWS(t, ts)
	defer typistConn.Close()
	identifyAs(t, typistConn, a)

	require.NoError(t, typistConn.WriteJSON(map[string]interface{}{
		"type":       "typing_indicator",
		"chatRoomId": room.ID,
		"isTyping":   true,
	}))

	_, raw, err := peerConn.ReadMessage()
	require.NoError(t, err)

	var frame struct {
		Type       string `json:"type"`
		ChatRoomID int64  `json:"chatRoomId"`
		IsTyping   bool   `json:"isTyping"`
		UserID     int64  `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(raw, &frame))
	assert.Equal(t, "typing_indicator", frame.Type)
	assert.Equal(t, room.ID, frame.ChatRoomID)
	assert.True(t, frame.IsTyping)
	assert.Equal(t, a, frame.UserID)

	// Индикатор в чужую комнату отклоняется кадром error
	stranger := createTestUser(t, models.CUSTOMER)
	strangerConn := dialWS(t, ts)
	defer strangerConn.Close()
	identifyAs(t, strangerConn, stranger)

	require.NoError(t, strangerConn.WriteJSON(map[string]interface{}{
		"type":       "typing_indicator",
		"chatRoomId": room.ID,
		"isTyping":   true,
	}))
	_, raw, err = strangerConn.ReadMessage()
	require.NoError(t, err)
	var errFrame struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(raw, &errFrame))
	assert.Equal(t, "error", errFrame.Type)
}

func TestWSConnManagerBindings(t *testing.T) {
	manager := services.NewWSConnManager()

	assert.False(t, manager.IsConnected(42))
	assert.False(t, manager.Send(42, []byte("nobody home")))

	sock := services.NewWSocket(nil)
	manager.Add(42, sock)
	assert.True(t, manager.IsConnected(42))
	manager.Remove(42, sock)
	assert.False(t, manager.IsConnected(42))
}

func TestWSConcurrentBroadcastsToOneSocket(t *testing.T) {
	ts := setupWSServer(t)
	defer ts.Close()

	receiver := createTestUser(t, models.ESCORT)

	conn := dialWS(t, ts)
	defer conn.Close()
	identifyAs(t, conn, receiver)

	// Параллельные рассылки в один сокет: запись сериализуется оберткой,
	// у gorilla/websocket одновременные писатели роняют процесс
	const writers = 16
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			services.GlobalWSConnManager.Send(receiver, []byte(`{"type":"new_message"}`))
		}()
	}
	wg.Wait()

	// Все кадры дошли целыми
	for i := 0; i < writers; i++ {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var frame struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(raw, &frame))
		assert.Equal(t, "new_message", frame.Type)
	}
}
