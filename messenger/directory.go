package messenger

import (
	"marketplace-chat/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// FindConversation looks up the conversation between two users without
// creating one. Returns (nil, nil) when the pair has never talked. The lookup
// goes through the participant rows so both orderings are always covered.
func (s *Store) FindConversation(userA, userB uint) (*model.Conversation, error) {
	conv := new(model.Conversation)
	err := s.db.
		Joins("JOIN conversation_participants pa ON pa.conversation_id = conversations.id AND pa.user_id = ?", userA).
		Joins("JOIN conversation_participants pb ON pb.conversation_id = conversations.id AND pb.user_id = ?", userB).
		First(conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "messenger.FindConversation")
	}
	return conv, nil
}

// FindOrCreateConversation resolves the durable conversation for a pair,
// creating it with both participant rows on first contact. The normalized
// pair unique index makes concurrent first contacts converge on one row: the
// loser's insert fails and the winner is re-queried.
func (s *Store) FindOrCreateConversation(userA, userB uint) (*model.Conversation, error) {
	if userA == userB || userA == 0 || userB == 0 {
		return nil, ErrInvalidInput
	}

	if conv, err := s.FindConversation(userA, userB); err != nil || conv != nil {
		return conv, err
	}

	lo, hi := pair(userA, userB)
	conv := &model.Conversation{PairMin: lo, PairMax: hi}

	createErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		participants := []model.ConversationParticipant{
			{ConversationID: conv.ID, UserID: userA},
			{ConversationID: conv.ID, UserID: userB},
		}
		return tx.Create(&participants).Error
	})
	if createErr == nil {
		return conv, nil
	}

	// Lost the first-contact race: the unique pair index rejected the insert,
	// so the winner's row must exist now.
	if conv, err := s.FindConversation(userA, userB); err == nil && conv != nil {
		return conv, nil
	}
	return nil, errors.Wrap(createErr, "messenger.FindOrCreateConversation")
}

// Participant fetches one side's per-conversation state. Returns (nil, nil)
// when the user is not part of the conversation.
func (s *Store) Participant(conversationID, userID uint) (*model.ConversationParticipant, error) {
	part := new(model.ConversationParticipant)
	err := s.db.
		Where(&model.ConversationParticipant{ConversationID: conversationID, UserID: userID}).
		First(part).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "messenger.Participant")
	}
	return part, nil
}
