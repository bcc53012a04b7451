package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
)

// Conversation is a durable two-party thread. PairMin/PairMax hold the
// participant ids in normalized order; the unique index closes the race
// between two concurrent first contacts for the same pair.
type Conversation struct {
	gorm.Model
	PairMin uint `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"pair_min"`
	PairMax uint `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"pair_max"`
}

// ConversationParticipant carries one user's per-conversation state.
// HiddenAt is a plain column, not a gorm soft delete: a participant row is
// never removed, the timestamp only hides older messages from its owner.
type ConversationParticipant struct {
	gorm.Model
	ConversationID uint       `gorm:"not null;uniqueIndex:idx_participant_pair" json:"conversation_id"`
	UserID         uint       `gorm:"not null;uniqueIndex:idx_participant_pair" json:"user_id"`
	LastReadAt     *time.Time `json:"last_read_at"`
	HiddenAt       *time.Time `json:"hidden_at"`
}

// Message rows are immutable once written. Body and Caption hold tagged
// ciphertext (or legacy plaintext on rows predating encryption); for image
// messages Body is the encrypted upload-relative filename. Blocked is frozen
// at send time and never recomputed.
type Message struct {
	gorm.Model
	ConversationID uint   `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint   `gorm:"not null" json:"sender_id"`
	Type           string `gorm:"not null" json:"type"`
	Body           string `gorm:"not null" json:"body"`
	Caption        string `json:"caption"`
	Blocked        bool   `gorm:"not null;default:false" json:"blocked"`
}

// BlockedUser is directional. Unblocking soft-deletes the row (gorm.Model
// DeletedAt), so live-block checks see only active rows while CreatedAt keeps
// the time anchor for past messages. The pair index is not unique because a
// lifted block leaves its soft-deleted row behind.
type BlockedUser struct {
	gorm.Model
	BlockerID uint `gorm:"not null;index:idx_block_pair" json:"blocker_id"`
	BlockedID uint `gorm:"not null;index:idx_block_pair" json:"blocked_id"`
}
