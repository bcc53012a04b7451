package messenger

import (
	"log"
	"time"

	"marketplace-chat/model"
	"marketplace-chat/secure"
	"marketplace-chat/storage"

	"github.com/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// EventMessageCreated is pushed to the pair room on every successful send.
const EventMessageCreated = "message_created"

// Send persists one message from sender to receiver and returns it with the
// encrypted fields opened, plus an image capability when the payload is an
// image. The blocked flag is a point-in-time snapshot of the receiver's
// current block on the sender and is never recomputed.
func (s *Store) Send(senderID, receiverID uint, msgType, body, caption string) (*MessageView, error) {
	if body == "" || senderID == receiverID {
		return nil, ErrInvalidInput
	}
	switch msgType {
	case model.MessageTypeText:
	case model.MessageTypeImage:
		// Image bodies are upload-relative filenames, never raw bytes.
		if !storage.ValidFilename(body) {
			return nil, ErrInvalidInput
		}
	default:
		return nil, ErrInvalidInput
	}

	conv, err := s.FindOrCreateConversation(senderID, receiverID)
	if err != nil {
		return nil, err
	}

	blocked, err := s.IsBlocked(receiverID, senderID)
	if err != nil {
		return nil, err
	}

	encBody, err := secure.Encrypt(body)
	if err != nil {
		return nil, errors.Wrap(err, "messenger.Send.Encrypt")
	}
	encCaption := ""
	if caption != "" {
		if encCaption, err = secure.Encrypt(caption); err != nil {
			return nil, errors.Wrap(err, "messenger.Send.Encrypt")
		}
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Type:           msgType,
		Body:           encBody,
		Caption:        encCaption,
		Blocked:        blocked,
	}
	if err := s.db.Create(msg).Error; err != nil {
		return nil, errors.Wrap(err, "messenger.Send.Create")
	}

	if err := s.db.Model(conv).Update("updated_at", time.Now()).Error; err != nil {
		return nil, errors.Wrap(err, "messenger.Send.Touch")
	}

	view := &MessageView{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Type:           msg.Type,
		Body:           body,
		Caption:        caption,
		Created:        msg.CreatedAt,
	}
	if msgType == model.MessageTypeImage {
		token, err := secure.IssueImageToken(body, msg.ID, msg.ConversationID)
		if err != nil {
			return nil, err
		}
		view.ImageToken = token
	}

	s.notify(senderID, receiverID, msg.Blocked, view)
	return view, nil
}

// notify pushes the decrypted message to the live channel. A blocked message
// must not leak to its blocker, so it only reaches the sender's own room.
func (s *Store) notify(senderID, receiverID uint, blocked bool, view *MessageView) {
	if s.dispatcher == nil {
		return
	}
	if blocked {
		s.dispatcher.Emit(UserRoom(senderID), EventMessageCreated, view)
		return
	}
	s.dispatcher.Emit(Room(senderID, receiverID), EventMessageCreated, view)
}

// List returns one ascending page of the conversation with otherUserID as
// seen by the viewer. A pair that never talked yields an empty page; listing
// never creates state.
func (s *Store) List(viewerID, otherUserID uint, page, pageSize int) ([]MessageView, *Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	pagination := &Pagination{Page: page, PageSize: pageSize}

	conv, err := s.FindConversation(viewerID, otherUserID)
	if err != nil {
		return nil, nil, err
	}
	if conv == nil {
		return []MessageView{}, pagination, nil
	}

	part, err := s.Participant(conv.ID, viewerID)
	if err != nil {
		return nil, nil, err
	}
	if part == nil {
		return nil, nil, ErrNotParticipant
	}

	query := s.db.Model(&model.Message{}).
		Where("messages.conversation_id = ?", conv.ID).
		Scopes(visibleScope(viewerID, part.HiddenAt))

	if err := query.Count(&pagination.Total).Error; err != nil {
		return nil, nil, errors.Wrap(err, "messenger.List.Count")
	}

	var rows []model.Message
	err = query.
		Order("messages.created_at DESC, messages.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, nil, errors.Wrap(err, "messenger.List.Find")
	}

	// Newest page first, oldest message first within the page.
	views := make([]MessageView, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		view, err := s.open(&rows[i])
		if err != nil {
			return nil, nil, err
		}
		views = append(views, *view)
	}
	return views, pagination, nil
}

// open decrypts a stored message for output and mints a fresh image
// capability for image messages.
func (s *Store) open(msg *model.Message) (*MessageView, error) {
	body := secure.Decrypt(msg.Body)
	if secure.IsEncrypted(body) {
		log.Printf("messenger: message %d body failed to decrypt", msg.ID)
	}

	view := &MessageView{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Type:           msg.Type,
		Body:           body,
		Caption:        secure.Decrypt(msg.Caption),
		Created:        msg.CreatedAt,
	}
	if msg.Type == model.MessageTypeImage && !secure.IsEncrypted(body) {
		token, err := secure.IssueImageToken(body, msg.ID, msg.ConversationID)
		if err != nil {
			return nil, err
		}
		view.ImageToken = token
	}
	return view, nil
}

// MarkRead advances the caller's read marker to now. Like the legacy
// behavior it mirrors, calling it for a pair with no conversation creates
// one.
func (s *Store) MarkRead(viewerID, otherUserID uint) error {
	conv, err := s.FindOrCreateConversation(viewerID, otherUserID)
	if err != nil {
		return err
	}
	err = s.db.Model(&model.ConversationParticipant{}).
		Where(&model.ConversationParticipant{ConversationID: conv.ID, UserID: viewerID}).
		Update("last_read_at", time.Now()).Error
	return errors.Wrap(err, "messenger.MarkRead")
}

// SoftDelete hides the conversation on the caller's side only. Messages that
// arrive later resurrect it. Repeated calls just move the mark.
func (s *Store) SoftDelete(viewerID, otherUserID uint) (int64, error) {
	conv, err := s.FindOrCreateConversation(viewerID, otherUserID)
	if err != nil {
		return 0, err
	}
	result := s.db.Model(&model.ConversationParticipant{}).
		Where(&model.ConversationParticipant{ConversationID: conv.ID, UserID: viewerID}).
		Update("hidden_at", time.Now())
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "messenger.SoftDelete")
	}
	return result.RowsAffected, nil
}
