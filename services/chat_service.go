package services

import (
	goerrors "errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/SkillSyncApp/SkillSyncServer/config"
	"github.com/SkillSyncApp/SkillSyncServer/db"
	apiError "github.com/SkillSyncApp/SkillSyncServer/errors"
	"github.com/SkillSyncApp/SkillSyncServer/models"
	"github.com/google/uuid"
)

// MessageNotifier is the delivery port the service pushes committed messages
// into. The realtime hub implements it; a nil notifier disables fan-out.
type MessageNotifier interface {
	MessageCreated(participants []uuid.UUID, msg *models.Message)
}

// ChatService enforces participant authorization and conversation
// invariants above the raw store. SendMessage is the single write path for
// both the HTTP handler and the websocket gateway.
type ChatService interface {
	GetConversations(callerID uuid.UUID) ([]models.Conversation, error)
	GetConversationWith(callerID, otherID uuid.UUID) (*models.Conversation, error)
	GetOrCreateConversationWith(callerID, otherID uuid.UUID) (*models.Conversation, bool, error)
	GetMessages(callerID, conversationID uuid.UUID) ([]models.Message, error)
	SendMessage(callerID, conversationID uuid.UUID, content string) (*models.Message, error)
}

type chatService struct {
	Config   *config.Config
	chatRepo db.ChatRepository
	userRepo db.UserRepository
	notifier MessageNotifier

	mu        sync.Mutex
	convLocks map[uuid.UUID]*sync.Mutex
}

// NewChatService instantiates a chatService
func NewChatService(chatRepo db.ChatRepository, userRepo db.UserRepository, conf *config.Config, notifier MessageNotifier) ChatService {
	return &chatService{
		Config:    conf,
		chatRepo:  chatRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		convLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *chatService) GetConversations(callerID uuid.UUID) ([]models.Conversation, error) {
	convs, err := s.chatRepo.GetConversationsForUser(callerID)
	if err != nil {
		log.Printf("GetConversations error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return convs, nil
}

func (s *chatService) GetConversationWith(callerID, otherID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.chatRepo.FindConversationBetween(callerID, otherID)
	if err != nil {
		log.Printf("GetConversationWith error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	if conv == nil {
		return nil, apiError.New("conversation not found", http.StatusNotFound)
	}
	return conv, nil
}

func (s *chatService) GetOrCreateConversationWith(callerID, otherID uuid.UUID) (*models.Conversation, bool, error) {
	if callerID == otherID {
		return nil, false, apiError.New("cannot start a conversation with yourself", http.StatusBadRequest)
	}

	exists, err := s.userRepo.ExistsByID(otherID)
	if err != nil {
		log.Printf("GetOrCreateConversationWith user lookup error: %v", err)
		return nil, false, apiError.ErrInternalServerError
	}
	if !exists {
		return nil, false, apiError.New("user not found", http.StatusNotFound)
	}

	conv, err := s.chatRepo.FindConversationBetween(callerID, otherID)
	if err != nil {
		log.Printf("GetOrCreateConversationWith find error: %v", err)
		return nil, false, apiError.ErrInternalServerError
	}
	if conv != nil {
		return conv, false, nil
	}

	conv, err = s.chatRepo.CreateConversation(callerID, otherID)
	if err != nil {
		// lost the create race: the pair now exists, return it instead of
		// surfacing the conflict
		if goerrors.Is(err, apiError.ErrConflict) {
			existing, findErr := s.chatRepo.FindConversationBetween(callerID, otherID)
			if findErr != nil || existing == nil {
				log.Printf("GetOrCreateConversationWith refetch after conflict failed: %v", findErr)
				return nil, false, apiError.ErrInternalServerError
			}
			return existing, false, nil
		}
		log.Printf("GetOrCreateConversationWith create error: %v", err)
		return nil, false, apiError.ErrInternalServerError
	}
	return conv, true, nil
}

func (s *chatService) GetMessages(callerID, conversationID uuid.UUID) ([]models.Message, error) {
	conv, err := s.chatRepo.GetConversationByID(conversationID)
	if err != nil {
		if goerrors.Is(err, apiError.ErrNotFound) {
			return nil, apiError.New("conversation not found", http.StatusNotFound)
		}
		log.Printf("GetMessages error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	if !conv.HasParticipant(callerID) {
		log.Printf("GetMessages: user %s is not a participant of conversation %s", callerID, conversationID)
		return nil, apiError.New("not a participant of this conversation", http.StatusForbidden)
	}

	msgs, err := s.chatRepo.GetMessages(conversationID)
	if err != nil {
		log.Printf("GetMessages list error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return msgs, nil
}

func (s *chatService) SendMessage(callerID, conversationID uuid.UUID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apiError.New("message content cannot be empty", http.StatusBadRequest)
	}

	// serialize appends per conversation so commit order equals fan-out
	// order for every online participant
	lock := s.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	conv, err := s.chatRepo.GetConversationByID(conversationID)
	if err != nil {
		if goerrors.Is(err, apiError.ErrNotFound) {
			return nil, apiError.New("conversation not found", http.StatusNotFound)
		}
		log.Printf("SendMessage error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	if !conv.HasParticipant(callerID) {
		log.Printf("SendMessage: user %s is not a participant of conversation %s", callerID, conversationID)
		return nil, apiError.New("not a participant of this conversation", http.StatusForbidden)
	}

	sender, err := s.userRepo.FindUserByID(callerID)
	if err != nil {
		log.Printf("SendMessage sender lookup error: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       callerID,
		Content:        content,
	}
	if err := s.chatRepo.SaveMessage(msg); err != nil {
		if goerrors.Is(err, apiError.ErrNotFound) {
			return nil, apiError.New("conversation not found", http.StatusNotFound)
		}
		log.Printf("SendMessage persist error: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	msg.Sender = *sender

	if s.notifier != nil {
		s.notifier.MessageCreated(conv.Participants(), msg)
	}
	return msg, nil
}

func (s *chatService) lockFor(conversationID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.convLocks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		s.convLocks[conversationID] = lock
	}
	return lock
}
