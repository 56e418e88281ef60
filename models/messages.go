package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is an append-only entry in a conversation's log. Messages are
// never updated or deleted and cannot be detached from their conversation.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null" json:"-"`
	Sender         User      `gorm:"foreignKey:SenderID" json:"sender"`
	Content        string    `gorm:"not null" json:"content"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created,priority:2" json:"created_at"`
}

// SendMessageRequest is the body of the HTTP send endpoint.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// ConversationResponse wraps a conversation with the find-or-create outcome.
type ConversationResponse struct {
	Conversation *Conversation `json:"conversation"`
	Created      bool          `json:"created"`
}
