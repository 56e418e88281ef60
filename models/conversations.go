package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation is a thread between exactly two users. The pair is fixed at
// creation; PairKey is the normalized unordered pair used to enforce
// uniqueness at the database level.
type Conversation struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserOneID     uuid.UUID  `gorm:"type:uuid;not null" json:"user_one_id"`
	UserOne       User       `gorm:"foreignKey:UserOneID" json:"user_one"`
	UserTwoID     uuid.UUID  `gorm:"type:uuid;not null" json:"user_two_id"`
	UserTwo       User       `gorm:"foreignKey:UserTwoID" json:"user_two"`
	PairKey       string     `gorm:"uniqueIndex;not null" json:"-"`
	LastMessageID *uuid.UUID `gorm:"type:uuid" json:"-"`
	LastMessage   *Message   `gorm:"foreignKey:LastMessageID" json:"last_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PairKeyFor returns the normalized key for an unordered pair of user ids.
func PairKeyFor(a, b uuid.UUID) string {
	first, second := a.String(), b.String()
	if strings.Compare(first, second) > 0 {
		first, second = second, first
	}
	return first + ":" + second
}

// Participants returns the fixed two-member participant set.
func (c *Conversation) Participants() []uuid.UUID {
	return []uuid.UUID{c.UserOneID, c.UserTwoID}
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.UserOneID == userID || c.UserTwoID == userID
}

// OtherParticipant returns the peer of userID in the pair.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.UserOneID == userID {
		return c.UserTwoID
	}
	return c.UserOneID
}
