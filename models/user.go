package models

import (
	"github.com/google/uuid"
)

// User is owned by the identity subsystem; the chat core only reads the
// minimal display profile resolved onto messages and never mutates it.
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `json:"name"`
	Image string    `json:"image"`
}
