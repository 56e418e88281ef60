package db

import (
	goerrors "errors"
	"time"

	apiError "github.com/SkillSyncApp/SkillSyncServer/errors"
	"github.com/SkillSyncApp/SkillSyncServer/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository is the conversation store: durable, queryable persistence
// for conversations and their append-only message logs.
type ChatRepository interface {
	FindConversationBetween(userA, userB uuid.UUID) (*models.Conversation, error)
	CreateConversation(userA, userB uuid.UUID) (*models.Conversation, error)
	GetConversationByID(id uuid.UUID) (*models.Conversation, error)
	GetConversationsForUser(userID uuid.UUID) ([]models.Conversation, error)
	SaveMessage(msg *models.Message) error
	GetMessages(conversationID uuid.UUID) ([]models.Message, error)
}

type chatRepo struct {
	DB *gorm.DB
}

// NewChatRepo creates a new instance of ChatRepository
func NewChatRepo(db *GormDB) ChatRepository {
	return &chatRepo{db.DB}
}

func (r *chatRepo) FindConversationBetween(userA, userB uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.DB.
		Preload("UserOne").
		Preload("UserTwo").
		Preload("LastMessage").
		Preload("LastMessage.Sender").
		Where("pair_key = ?", models.PairKeyFor(userA, userB)).
		First(&conv).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find conversation between users")
	}
	return &conv, nil
}

func (r *chatRepo) CreateConversation(userA, userB uuid.UUID) (*models.Conversation, error) {
	conv := &models.Conversation{
		ID:        uuid.New(),
		UserOneID: userA,
		UserTwoID: userB,
		PairKey:   models.PairKeyFor(userA, userB),
	}
	if err := r.DB.Create(conv).Error; err != nil {
		// unique index on pair_key; a concurrent create for the same
		// pair lands here
		if goerrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apiError.ErrConflict
		}
		return nil, errors.Wrap(err, "create conversation")
	}
	return conv, nil
}

func (r *chatRepo) GetConversationByID(id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.DB.
		Preload("UserOne").
		Preload("UserTwo").
		Preload("LastMessage").
		Preload("LastMessage.Sender").
		First(&conv, "id = ?", id).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.ErrNotFound
		}
		return nil, errors.Wrap(err, "get conversation by id")
	}
	return &conv, nil
}

func (r *chatRepo) GetConversationsForUser(userID uuid.UUID) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.DB.
		Preload("UserOne").
		Preload("UserTwo").
		Preload("LastMessage").
		Preload("LastMessage.Sender").
		Where("user_one_id = ? OR user_two_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, errors.Wrap(err, "list conversations for user")
	}
	return convs, nil
}

// SaveMessage atomically appends msg to its conversation and moves the
// conversation's last-message reference. The row lock on the conversation
// serializes concurrent appends so created_at order equals append order.
func (r *chatRepo) SaveMessage(msg *models.Message) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&conv, "id = ?", msg.ConversationID).Error
		if err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return apiError.ErrNotFound
			}
			return errors.Wrap(err, "lock conversation for append")
		}

		if msg.ID == uuid.Nil {
			msg.ID = uuid.New()
		}
		msg.CreatedAt = time.Now().UTC()

		if err := tx.Create(msg).Error; err != nil {
			return errors.Wrap(err, "append message")
		}

		updates := map[string]interface{}{
			"last_message_id": msg.ID,
			"updated_at":      msg.CreatedAt,
		}
		if err := tx.Model(&conv).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "update conversation last message")
		}
		return nil
	})
}

func (r *chatRepo) GetMessages(conversationID uuid.UUID) ([]models.Message, error) {
	// existence check first so an unknown conversation is a 404, not an
	// empty list
	var count int64
	if err := r.DB.Model(&models.Conversation{}).Where("id = ?", conversationID).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "check conversation exists")
	}
	if count == 0 {
		return nil, apiError.ErrNotFound
	}

	var msgs []models.Message
	err := r.DB.
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	return msgs, nil
}
