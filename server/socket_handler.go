package server

import (
	"encoding/json"
	goerrors "errors"
	"net/http"
	"time"

	errs "github.com/SkillSyncApp/SkillSyncServer/errors"
	"github.com/SkillSyncApp/SkillSyncServer/realtime"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const socketReadTimeout = 60 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// the handshake token is the gate, not the origin
		return true
	},
}

// sendMessageFrame is the single inbound event the gateway accepts.
type sendMessageFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// handleSocket authenticates the handshake, registers the connection with
// the hub and pumps inbound frames until the client goes away. Delivery of
// committed messages happens through the hub, driven by the chat service.
func (s *Server) handleSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = getTokenFromHeader(c)
		}
		if token == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		userID, err := s.verifyToken(token)
		if err != nil {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response
			return
		}

		conn := realtime.NewConnection(userID, ws)
		s.Hub.Register(conn)
		conn.Start()
		defer func() {
			s.Hub.Unregister(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20)
		_ = ws.SetReadDeadline(time.Now().Add(socketReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(socketReadTimeout))
		})

		s.readLoop(conn, ws, userID)
	}
}

func (s *Server) readLoop(conn *realtime.Connection, ws *websocket.Conn, userID uuid.UUID) {
	for {
		var frame sendMessageFrame
		if err := ws.ReadJSON(&frame); err != nil {
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(socketReadTimeout))

		if frame.Type != "send message" {
			s.replySocketError(conn, "unsupported_type", "unknown frame type")
			continue
		}

		conversationID, err := uuid.Parse(frame.ConversationID)
		if err != nil {
			s.replySocketError(conn, "bad_request", "invalid conversation_id")
			continue
		}

		// the canonical write path; on success the service fans the
		// committed message out through the hub, this connection included
		if _, err := s.ChatService.SendMessage(userID, conversationID, frame.Content); err != nil {
			s.replySocketError(conn, socketErrorCode(err), err.Error())
		}
	}
}

// replySocketError pushes a scoped error frame to the originating
// connection only; errors are never broadcast.
func (s *Server) replySocketError(conn *realtime.Connection, code, message string) {
	payload, err := json.Marshal(errorFrame{Type: "error", Code: code, Error: message})
	if err != nil {
		return
	}
	_ = conn.Send(payload)
}

func socketErrorCode(err error) string {
	var apiErr *errs.Error
	if !goerrors.As(err, &apiErr) {
		return "internal_error"
	}
	switch apiErr.Status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusForbidden:
		return "forbidden"
	default:
		return "internal_error"
	}
}
