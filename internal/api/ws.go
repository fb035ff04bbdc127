package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"quantdash/internal/models"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// Event - сообщение, отправляемое клиенту по WebSocket
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub раздает события по открытым WebSocket соединениям пользователей.
// У одного пользователя может быть несколько вкладок, каждая со своим
// соединением
type Hub struct {
	connections map[int]map[*websocket.Conn]bool
	mu          sync.RWMutex
	logger      *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		connections: make(map[int]map[*websocket.Conn]bool),
		logger:      logger,
	}
}

func (hub *Hub) add(userID int, conn *websocket.Conn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if hub.connections[userID] == nil {
		hub.connections[userID] = make(map[*websocket.Conn]bool)
	}

	hub.connections[userID][conn] = true
}

func (hub *Hub) remove(userID int, conn *websocket.Conn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	delete(hub.connections[userID], conn)
	if len(hub.connections[userID]) == 0 {
		delete(hub.connections, userID)
	}
}

// Send отправляет событие во все соединения пользователя
func (hub *Hub) Send(userID int, event Event) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for conn := range hub.connections[userID] {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			hub.logger.Debug("WebSocket write failed", "user_id", userID, "error", err)
		}
	}
}

// NotifyAlert отправляет новое уведомление
func (hub *Hub) NotifyAlert(userID int, alert models.Alert) {
	hub.Send(userID, Event{Type: "alert", Data: alert})
}

// NotifyBacktest отправляет обновление статуса бэктеста
func (hub *Hub) NotifyBacktest(userID int, backtest *models.Backtest) {
	hub.Send(userID, Event{Type: "backtest", Data: backtest})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS уже открыт на уровне API
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket апгрейдит соединение и держит его до закрытия клиентом
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionFrom(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "user_id", session.ID, "error", err)
		return
	}

	h.hub.add(session.ID, conn)
	h.logger.Debug("WebSocket connected", "user_id", session.ID)

	defer func() {
		h.hub.remove(session.ID, conn)
		conn.Close()
		h.logger.Debug("WebSocket disconnected", "user_id", session.ID)
	}()

	// Входящие сообщения не обрабатываются, цикл чтения нужен только
	// чтобы заметить закрытие соединения
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
