package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/SkillSyncApp/SkillSyncServer/models"
	"github.com/google/uuid"
)

// EventMessageCreated is the single outbound event type: a committed message
// fanned out to every online participant of its conversation.
const EventMessageCreated = "message created"

// MessageCreatedEvent is the wire shape of the fan-out frame.
type MessageCreatedEvent struct {
	Type           string          `json:"type"`
	ConversationID uuid.UUID       `json:"conversation_id"`
	Message        *models.Message `json:"message"`
}

// Hub is the process-wide presence registry: userID -> open connections.
// Entries are added when a socket finishes its handshake and removed on
// disconnect; delivery to users with no open connection is a no-op.
type Hub struct {
	mu    sync.RWMutex
	users map[uuid.UUID]map[*Connection]struct{}
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		users: make(map[uuid.UUID]map[*Connection]struct{}),
	}
}

// Register tracks conn under its user. The caller starts the write loop.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	conns := h.users[conn.UserID]
	if conns == nil {
		conns = make(map[*Connection]struct{})
		h.users[conn.UserID] = conns
	}
	conns[conn] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes conn from the registry. No further events reach it.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	if conns, ok := h.users[conn.UserID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.users, conn.UserID)
		}
	}
	h.mu.Unlock()
}

// IsOnline reports whether the user has at least one open connection.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// DeliverToUsers pushes payload to every open connection of each listed
// user and returns the number of connections reached.
func (h *Hub) DeliverToUsers(userIDs []uuid.UUID, payload []byte) int {
	h.mu.RLock()
	targets := make([]*Connection, 0, len(userIDs))
	for _, id := range userIDs {
		for conn := range h.users[id] {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// MessageCreated implements services.MessageNotifier: it marshals the
// committed message and fans it out to all online participants, the
// originator included so clients can ack and order locally.
func (h *Hub) MessageCreated(participants []uuid.UUID, msg *models.Message) {
	event := MessageCreatedEvent{
		Type:           EventMessageCreated,
		ConversationID: msg.ConversationID,
		Message:        msg,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: failed to encode message %s: %v", msg.ID, err)
		return
	}
	h.DeliverToUsers(participants, payload)
}

// Close terminates every tracked connection and clears the registry.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*Connection, 0)
	for _, set := range h.users {
		for conn := range set {
			conns = append(conns, conn)
		}
	}
	h.users = make(map[uuid.UUID]map[*Connection]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close(1001, "hub shutdown")
	}
}
