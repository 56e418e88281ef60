package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SkillSyncApp/SkillSyncServer/config"
	apiError "github.com/SkillSyncApp/SkillSyncServer/errors"
	"github.com/SkillSyncApp/SkillSyncServer/models"
	"github.com/SkillSyncApp/SkillSyncServer/realtime"
	"github.com/SkillSyncApp/SkillSyncServer/services/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// fakeChatService drives the handlers without a database. SendMessage
// mirrors the real service: validate, authorize, then hand the message to
// the hub for fan-out.
type fakeChatService struct {
	hub  *realtime.Hub
	conv *models.Conversation
	sent []models.Message
}

func (f *fakeChatService) GetConversations(callerID uuid.UUID) ([]models.Conversation, error) {
	if f.conv != nil && f.conv.HasParticipant(callerID) {
		return []models.Conversation{*f.conv}, nil
	}
	return []models.Conversation{}, nil
}

func (f *fakeChatService) GetConversationWith(callerID, otherID uuid.UUID) (*models.Conversation, error) {
	if f.conv != nil && f.conv.HasParticipant(callerID) && f.conv.HasParticipant(otherID) {
		return f.conv, nil
	}
	return nil, apiError.New("conversation not found", http.StatusNotFound)
}

func (f *fakeChatService) GetOrCreateConversationWith(callerID, otherID uuid.UUID) (*models.Conversation, bool, error) {
	if callerID == otherID {
		return nil, false, apiError.New("cannot start a conversation with yourself", http.StatusBadRequest)
	}
	if f.conv != nil && f.conv.HasParticipant(callerID) && f.conv.HasParticipant(otherID) {
		return f.conv, false, nil
	}
	f.conv = &models.Conversation{ID: uuid.New(), UserOneID: callerID, UserTwoID: otherID}
	return f.conv, true, nil
}

func (f *fakeChatService) GetMessages(callerID, conversationID uuid.UUID) ([]models.Message, error) {
	if f.conv == nil || f.conv.ID != conversationID {
		return nil, apiError.New("conversation not found", http.StatusNotFound)
	}
	if !f.conv.HasParticipant(callerID) {
		return nil, apiError.New("not a participant of this conversation", http.StatusForbidden)
	}
	return f.sent, nil
}

func (f *fakeChatService) SendMessage(callerID, conversationID uuid.UUID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apiError.New("message content cannot be empty", http.StatusBadRequest)
	}
	if f.conv == nil || f.conv.ID != conversationID {
		return nil, apiError.New("conversation not found", http.StatusNotFound)
	}
	if !f.conv.HasParticipant(callerID) {
		return nil, apiError.New("not a participant of this conversation", http.StatusForbidden)
	}
	msg := &models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       callerID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
		Sender:         models.User{ID: callerID},
	}
	f.sent = append(f.sent, *msg)
	f.hub.MessageCreated(f.conv.Participants(), msg)
	return msg, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]models.User
}

func (f *fakeUserRepo) ExistsByID(id uuid.UUID) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUserRepo) FindUserByID(id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apiError.New("user not found", http.StatusNotFound)
	}
	return &user, nil
}

func newTestServer(t *testing.T) (*Server, *fakeChatService, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := realtime.NewHub()
	svc := &fakeChatService{hub: hub}
	s := &Server{
		Config:         &config.Config{JWTSecret: testSecret},
		ChatService:    svc,
		UserRepository: &fakeUserRepo{users: make(map[uuid.UUID]models.User)},
		Hub:            hub,
	}

	r := gin.New()
	s.defineRoutes(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	t.Cleanup(hub.Close)
	return s, svc, ts
}

func tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID.String(), testSecret)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestAuthorize_RejectsMissingAndInvalidTokens(t *testing.T) {
	req := require.New(t)
	_, _, ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/api/chat/conversation", "", "")
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, ts, http.MethodGet, "/api/chat/conversation", "not-a-token", "")
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, ts, http.MethodGet, "/api/chat/conversation", tokenFor(t, uuid.New()), "")
	req.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestAddConversation_CreatedFlag(t *testing.T) {
	req := require.New(t)
	_, _, ts := newTestServer(t)
	alice := uuid.New()
	bob := uuid.New()
	token := tokenFor(t, alice)

	resp := doRequest(t, ts, http.MethodPost, "/api/chat/conversation/with/"+bob.String(), token, "")
	req.Equal(http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data models.ConversationResponse `json:"data"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&envelope))
	resp.Body.Close()
	req.True(envelope.Data.Created)
	firstID := envelope.Data.Conversation.ID

	// idempotent: second call returns the same conversation, created=false
	resp = doRequest(t, ts, http.MethodPost, "/api/chat/conversation/with/"+bob.String(), token, "")
	req.Equal(http.StatusOK, resp.StatusCode)
	req.NoError(json.NewDecoder(resp.Body).Decode(&envelope))
	resp.Body.Close()
	req.False(envelope.Data.Created)
	req.Equal(firstID, envelope.Data.Conversation.ID)
}

func TestAddConversation_SelfRejected(t *testing.T) {
	req := require.New(t)
	_, _, ts := newTestServer(t)
	alice := uuid.New()

	resp := doRequest(t, ts, http.MethodPost, "/api/chat/conversation/with/"+alice.String(), tokenFor(t, alice), "")
	req.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSendMessage_HTTPPathStatusCodes(t *testing.T) {
	req := require.New(t)
	_, svc, ts := newTestServer(t)
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	svc.conv = &models.Conversation{ID: uuid.New(), UserOneID: alice, UserTwoID: bob}
	path := "/api/chat/conversation/" + svc.conv.ID.String() + "/messages"

	resp := doRequest(t, ts, http.MethodPost, path, tokenFor(t, alice), `{"content":"hi"}`)
	req.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, ts, http.MethodPost, path, tokenFor(t, carol), `{"content":"hi"}`)
	req.Equal(http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, ts, http.MethodPost, path, tokenFor(t, alice), `{}`)
	req.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	unknown := "/api/chat/conversation/" + uuid.NewString() + "/messages"
	resp = doRequest(t, ts, http.MethodPost, unknown, tokenFor(t, alice), `{"content":"hi"}`)
	req.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUserPresence(t *testing.T) {
	req := require.New(t)
	s, _, ts := newTestServer(t)
	alice := uuid.New()
	bob := uuid.New()
	s.UserRepository.(*fakeUserRepo).users[bob] = models.User{ID: bob, Name: "bob"}
	token := tokenFor(t, alice)

	// unknown user
	resp := doRequest(t, ts, http.MethodGet, "/api/chat/users/"+uuid.NewString()+"/online", token, "")
	req.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// known but offline
	resp = doRequest(t, ts, http.MethodGet, "/api/chat/users/"+bob.String()+"/online", token, "")
	req.Equal(http.StatusOK, resp.StatusCode)
	var envelope struct {
		Data struct {
			Online bool `json:"online"`
		} `json:"data"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&envelope))
	resp.Body.Close()
	req.False(envelope.Data.Online)

	// online once a socket is open
	dialSocket(t, ts, bob)
	req.Eventually(func() bool { return s.Hub.IsOnline(bob) }, 2*time.Second, 10*time.Millisecond)
	resp = doRequest(t, ts, http.MethodGet, "/api/chat/users/"+bob.String()+"/online", token, "")
	req.Equal(http.StatusOK, resp.StatusCode)
	req.NoError(json.NewDecoder(resp.Body).Decode(&envelope))
	resp.Body.Close()
	req.True(envelope.Data.Online)
}

func wsURL(ts *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + token
}

func dialSocket(t *testing.T, ts *httptest.Server, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, tokenFor(t, userID)), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) realtime.MessageCreatedEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event realtime.MessageCreatedEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestSocket_RejectsUnauthenticatedHandshake(t *testing.T) {
	req := require.New(t)
	_, _, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	req.Error(err)
	req.NotNil(resp)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestSocket_SendMessageFanOut(t *testing.T) {
	req := require.New(t)
	s, svc, ts := newTestServer(t)
	alice := uuid.New()
	bob := uuid.New()
	svc.conv = &models.Conversation{ID: uuid.New(), UserOneID: alice, UserTwoID: bob}

	aliceConn := dialSocket(t, ts, alice)
	bobConn := dialSocket(t, ts, bob)

	req.Eventually(func() bool {
		return s.Hub.IsOnline(alice) && s.Hub.IsOnline(bob)
	}, 2*time.Second, 10*time.Millisecond)

	frame := map[string]string{
		"type":            "send message",
		"conversation_id": svc.conv.ID.String(),
		"content":         "hello over the wire",
	}
	req.NoError(aliceConn.WriteJSON(frame))

	// both participants receive the committed message, originator included
	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		event := readEvent(t, conn)
		req.Equal(realtime.EventMessageCreated, event.Type)
		req.Equal(svc.conv.ID, event.ConversationID)
		req.Equal(alice, event.Message.Sender.ID)
		req.Equal("hello over the wire", event.Message.Content)
	}
}

func TestSocket_ErrorsGoToOriginatorOnly(t *testing.T) {
	req := require.New(t)
	s, svc, ts := newTestServer(t)
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	svc.conv = &models.Conversation{ID: uuid.New(), UserOneID: alice, UserTwoID: bob}

	aliceConn := dialSocket(t, ts, alice)
	carolConn := dialSocket(t, ts, carol)

	req.Eventually(func() bool {
		return s.Hub.IsOnline(alice) && s.Hub.IsOnline(carol)
	}, 2*time.Second, 10*time.Millisecond)

	frame := map[string]string{
		"type":            "send message",
		"conversation_id": svc.conv.ID.String(),
		"content":         "should not land",
	}
	req.NoError(carolConn.WriteJSON(frame))

	req.NoError(carolConn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	var errFrame struct {
		Type string `json:"type"`
		Code string `json:"code"`
	}
	req.NoError(carolConn.ReadJSON(&errFrame))
	req.Equal("error", errFrame.Type)
	req.Equal("forbidden", errFrame.Code)

	// nothing was persisted or fanned out to the participants
	req.Empty(svc.sent)
	req.NoError(aliceConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond)))
	_, _, err := aliceConn.ReadMessage()
	req.Error(err, "participant must not receive anything for a rejected send")
}
