package messenger

import (
	"marketplace-chat/model"
	"marketplace-chat/secure"
	"marketplace-chat/storage"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// RoleAdmin may fetch images outside its own conversations for moderation.
const RoleAdmin = "admin"

// filenameScanLimit caps the legacy lookup: only this many most recent image
// messages are decrypted while searching for a filename match.
const filenameScanLimit = 200

// ImageByToken validates an image capability end to end and returns the
// resolved file path together with the message it belongs to.
//
// The cipher's integrity tag only proves the token's internal consistency,
// so every field is cross-checked against the message row: a forged token
// carrying a valid shape but altered path or conversation is rejected.
func (s *Store) ImageByToken(viewerID uint, role string, tokenValue string) (string, *model.Message, error) {
	token, err := secure.DecodeImageToken(tokenValue)
	if err != nil {
		return "", nil, err
	}

	msg := new(model.Message)
	err = s.db.First(msg, token.MessageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrMessageNotFound
	}
	if err != nil {
		return "", nil, errors.Wrap(err, "messenger.ImageByToken")
	}

	if msg.Type != model.MessageTypeImage {
		return "", nil, secure.ErrTokenMalformed
	}
	if msg.ConversationID != token.ConversationID {
		return "", nil, ErrForbidden
	}

	stored := secure.Decrypt(msg.Body)
	if secure.IsEncrypted(stored) || stored != token.Path {
		return "", nil, ErrForbidden
	}

	return s.authorizeImage(viewerID, role, msg, stored)
}

// ImageByFilename is the token-less compatibility path: it scans the most
// recent image messages reachable by the viewer, decrypting each stored path
// until the filename matches, then applies the same authorization chain as
// the token path.
func (s *Store) ImageByFilename(viewerID uint, role string, filename string) (string, *model.Message, error) {
	if !storage.ValidFilename(filename) {
		return "", nil, storage.ErrBadFilename
	}

	query := s.db.Model(&model.Message{}).
		Where("messages.type = ?", model.MessageTypeImage)
	if role != RoleAdmin {
		query = query.
			Joins("JOIN conversation_participants p ON p.conversation_id = messages.conversation_id AND p.user_id = ?", viewerID)
	}

	var rows []model.Message
	err := query.
		Order("messages.created_at DESC, messages.id DESC").
		Limit(filenameScanLimit).
		Find(&rows).Error
	if err != nil {
		return "", nil, errors.Wrap(err, "messenger.ImageByFilename")
	}

	for i := range rows {
		stored := secure.Decrypt(rows[i].Body)
		if secure.IsEncrypted(stored) || stored != filename {
			continue
		}
		return s.authorizeImage(viewerID, role, &rows[i], stored)
	}
	return "", nil, ErrMessageNotFound
}

// authorizeImage is the shared tail of both image paths: participancy and
// visibility for ordinary users, with an admin bypass that still honors the
// sender-only rule for blocked messages.
func (s *Store) authorizeImage(viewerID uint, role string, msg *model.Message, stored string) (string, *model.Message, error) {
	if msg.Blocked && msg.SenderID != viewerID {
		return "", nil, ErrForbidden
	}

	if role != RoleAdmin {
		part, err := s.Participant(msg.ConversationID, viewerID)
		if err != nil {
			return "", nil, err
		}
		if part == nil {
			return "", nil, ErrNotParticipant
		}

		visible, err := s.MessageVisible(viewerID, msg)
		if err != nil {
			return "", nil, err
		}
		if !visible {
			return "", nil, ErrForbidden
		}
	}

	path, err := storage.Resolve(stored)
	if err != nil {
		return "", nil, err
	}
	return path, msg, nil
}
