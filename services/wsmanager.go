package services

import (
	"sync"

	"github.com/gorilla/websocket"
)

// WSocket - сокет с сериализацией записи. gorilla/websocket допускает только
// одного пишущего: без мьютекса две одновременные рассылки одному получателю
// (или рассылка поверх ответа read-цикла) роняют процесс паникой.
// Все записи в соединение идут через Write.
type WSocket struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWSocket(conn *websocket.Conn) *WSocket {
	return &WSocket{conn: conn}
}

func (s *WSocket) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// WSConnManager - карта userId -> живые сокеты. Единственное разделяемое
// изменяемое состояние шлюза; держит множество сокетов на пользователя
// (мульти-вкладка) и рассылает во все. Карта живет в памяти одного процесса,
// межпроцессную доставку обеспечивает RabbitMQ-консьюмер.
type WSConnManager struct {
	mu    sync.RWMutex
	users map[int64][]*WSocket
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{
		users: make(map[int64][]*WSocket),
	}
}

func (m *WSConnManager) Add(userID int64, sock *WSocket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = append(m.users[userID], sock)
}

func (m *WSConnManager) Remove(userID int64, sock *WSocket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	socks := m.users[userID]
	for i, s := range socks {
		if s == sock {
			m.users[userID] = append(socks[:i], socks[i+1:]...)
			break
		}
	}
	if len(m.users[userID]) == 0 {
		delete(m.users, userID)
	}
}

// Send - best-effort доставка во все сокеты пользователя.
// Возвращает true, если был хотя бы один привязанный сокет.
func (m *WSConnManager) Send(userID int64, message []byte) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	socks := m.users[userID]
	for _, sock := range socks {
		_ = sock.Write(message)
	}
	return len(socks) > 0
}

// IsConnected - есть ли у пользователя хотя бы один привязанный сокет
func (m *WSConnManager) IsConnected(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users[userID]) > 0
}

var GlobalWSConnManager = NewWSConnManager()
