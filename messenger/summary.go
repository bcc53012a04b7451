package messenger

import (
	"sort"
	"time"

	"marketplace-chat/model"
	"marketplace-chat/secure"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PublicProfile is the subset of a user shown to conversation partners.
type PublicProfile struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// ConversationSummary is one row of a user's conversation list.
type ConversationSummary struct {
	ConversationID uint          `json:"conversation_id"`
	User           PublicProfile `json:"user"`
	LastType       string        `json:"last_type"`
	LastBody       string        `json:"last_body"`
	LastAt         time.Time     `json:"last_at"`
	Unread         int64         `json:"unread"`
}

// Summaries lists the viewer's conversations newest-activity-first. A
// conversation only appears when at least one message is visible to the
// viewer, which excludes empty threads, fully soft-deleted threads with no
// newer traffic, and threads where blocking hides everything.
func (s *Store) Summaries(viewerID uint) ([]ConversationSummary, error) {
	var participations []model.ConversationParticipant
	err := s.db.
		Where(&model.ConversationParticipant{UserID: viewerID}).
		Find(&participations).Error
	if err != nil {
		return nil, errors.Wrap(err, "messenger.Summaries.Participations")
	}

	summaries := make([]ConversationSummary, 0, len(participations))
	for i := range participations {
		summary, err := s.summarize(viewerID, &participations[i])
		if err != nil {
			return nil, err
		}
		if summary != nil {
			summaries = append(summaries, *summary)
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastAt.After(summaries[j].LastAt)
	})
	return summaries, nil
}

func (s *Store) summarize(viewerID uint, part *model.ConversationParticipant) (*ConversationSummary, error) {
	last := new(model.Message)
	err := s.db.Model(&model.Message{}).
		Where("messages.conversation_id = ?", part.ConversationID).
		Scopes(visibleScope(viewerID, part.HiddenAt)).
		Order("messages.created_at DESC, messages.id DESC").
		First(last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "messenger.Summaries.Last")
	}

	other := new(model.ConversationParticipant)
	err = s.db.
		Where("conversation_id = ? AND user_id <> ?", part.ConversationID, viewerID).
		First(other).Error
	if err != nil {
		return nil, errors.Wrap(err, "messenger.Summaries.Other")
	}

	profile := new(model.User)
	if err := s.db.First(profile, other.UserID).Error; err != nil {
		return nil, errors.Wrap(err, "messenger.Summaries.Profile")
	}

	unread, err := s.unreadCount(viewerID, part, other.UserID)
	if err != nil {
		return nil, err
	}

	// Image paths stay private; the caption stands in for the preview.
	preview := ""
	switch last.Type {
	case model.MessageTypeText:
		preview = secure.Decrypt(last.Body)
	case model.MessageTypeImage:
		preview = secure.Decrypt(last.Caption)
	}

	return &ConversationSummary{
		ConversationID: part.ConversationID,
		User: PublicProfile{
			ID:       profile.ID,
			Username: profile.Username,
			Avatar:   profile.Avatar,
		},
		LastType: last.Type,
		LastBody: preview,
		LastAt:   last.CreatedAt,
		Unread:   unread,
	}, nil
}

// unreadCount counts the other side's visible messages newer than the
// viewer's read marker; an unset marker counts from the epoch.
func (s *Store) unreadCount(viewerID uint, part *model.ConversationParticipant, otherUserID uint) (int64, error) {
	since := time.Time{}
	if part.LastReadAt != nil {
		since = *part.LastReadAt
	}

	var unread int64
	err := s.db.Model(&model.Message{}).
		Where("messages.conversation_id = ? AND messages.sender_id = ? AND messages.created_at > ?",
			part.ConversationID, otherUserID, since).
		Scopes(visibleScope(viewerID, part.HiddenAt)).
		Count(&unread).Error
	if err != nil {
		return 0, errors.Wrap(err, "messenger.Summaries.Unread")
	}
	return unread, nil
}
