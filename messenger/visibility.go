package messenger

import (
	"time"

	"marketplace-chat/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// visibleScope restricts a messages query to what the viewer may see:
//
//  1. nothing at or before the viewer's soft-delete mark, messages after it
//     resurrect the conversation;
//  2. the viewer always sees their own messages;
//  3. other senders are hidden when an active block by the viewer predates
//     the message, or when the message was frozen as blocked at send time.
//
// Blocks created after a message never hide it.
func visibleScope(viewerID uint, hiddenAt *time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if hiddenAt != nil {
			db = db.Where("messages.created_at > ?", *hiddenAt)
		}
		return db.Where(
			`messages.sender_id = ? OR (messages.blocked = ? AND NOT EXISTS (
				SELECT 1 FROM blocked_users
				WHERE blocked_users.blocker_id = ?
				  AND blocked_users.blocked_id = messages.sender_id
				  AND blocked_users.created_at <= messages.created_at
				  AND blocked_users.deleted_at IS NULL))`,
			viewerID, false, viewerID,
		)
	}
}

// MessageVisible applies the same contract as visibleScope to one message,
// including the participancy requirement. It is the authorization predicate
// for single-message image access.
func (s *Store) MessageVisible(viewerID uint, msg *model.Message) (bool, error) {
	part, err := s.Participant(msg.ConversationID, viewerID)
	if err != nil {
		return false, err
	}
	if part == nil {
		return false, nil
	}

	if part.HiddenAt != nil && !msg.CreatedAt.After(*part.HiddenAt) {
		return false, nil
	}

	if msg.SenderID == viewerID {
		return true, nil
	}
	if msg.Blocked {
		return false, nil
	}

	var count int64
	err = s.db.Model(&model.BlockedUser{}).
		Where("blocker_id = ? AND blocked_id = ? AND created_at <= ?", viewerID, msg.SenderID, msg.CreatedAt).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "messenger.MessageVisible")
	}
	return count == 0, nil
}
