package report

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub pushes job progress to subscribed report pages. One connection
// per job, a reconnect replaces the old socket.
type Hub struct {
	connections map[string]*websocket.Conn
	mutex       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*websocket.Conn),
	}
}

func (h *Hub) Register(jobID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if oldConn, exists := h.connections[jobID]; exists && oldConn != nil {
		_ = oldConn.Close()
	}

	h.connections[jobID] = conn
}

// Unregister drops the socket for a job. A conn that is no longer the
// registered one is ignored, so a replaced socket cannot evict its
// successor. Passing nil drops whatever is registered.
func (h *Hub) Unregister(jobID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	cur, exists := h.connections[jobID]
	if !exists {
		return
	}
	if conn != nil && cur != conn {
		return
	}
	if cur != nil {
		_ = cur.Close()
	}
	delete(h.connections, jobID)
}

func (h *Hub) SendToJob(jobID string, message interface{}) bool {
	h.mutex.RLock()
	conn, exists := h.connections[jobID]
	h.mutex.RUnlock()

	if !exists || conn == nil {
		return false
	}

	if err := conn.WriteJSON(message); err != nil {
		h.Unregister(jobID, conn)
		return false
	}

	return true
}

func (h *Hub) IsWatched(jobID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.connections[jobID]
	return exists
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for jobID, conn := range h.connections {
		if conn != nil {
			_ = conn.Close()
		}
		delete(h.connections, jobID)
	}
}
