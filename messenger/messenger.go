package messenger

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrInvalidInput    = errors.New("invalid message input")
	ErrNotParticipant  = errors.New("not a conversation participant")
	ErrForbidden       = errors.New("message access forbidden")
	ErrMessageNotFound = errors.New("message not found")
)

// Dispatcher delivers live events to connected clients. The store never
// depends on delivery for correctness; a nil dispatcher disables push.
type Dispatcher interface {
	Emit(room string, event string, payload any)
}

// Store is the messaging core: conversation directory, visibility rules,
// message persistence and image capability checks. It holds no mutable state
// of its own and is safe for concurrent use.
type Store struct {
	db         *gorm.DB
	dispatcher Dispatcher
}

func New(db *gorm.DB, dispatcher Dispatcher) *Store {
	return &Store{db: db, dispatcher: dispatcher}
}

// MessageView is a message with its encrypted fields opened for the caller,
// plus a fresh image capability when the message is an image.
type MessageView struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversation_id"`
	SenderID       uint      `json:"sender_id"`
	Type           string    `json:"type"`
	Body           string    `json:"body"`
	Caption        string    `json:"caption,omitempty"`
	Created        time.Time `json:"created"`
	ImageToken     string    `json:"image_token,omitempty"`
}

// Pagination describes one page of a descending-by-time listing.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

func pair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// Room names the broadcast channel for an unordered participant pair.
func Room(a, b uint) string {
	lo, hi := pair(a, b)
	return fmt.Sprintf("dm:%d:%d", lo, hi)
}

// UserRoom names a single user's own channel.
func UserRoom(id uint) string {
	return fmt.Sprintf("%d", id)
}
