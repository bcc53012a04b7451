package messenger

import (
	"marketplace-chat/model"

	"github.com/pkg/errors"
)

// IsBlocked reports whether blocker currently has an active block on blocked.
func (s *Store) IsBlocked(blockerID, blockedID uint) (bool, error) {
	var count int64
	err := s.db.Model(&model.BlockedUser{}).
		Where(&model.BlockedUser{BlockerID: blockerID, BlockedID: blockedID}).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "messenger.IsBlocked")
	}
	return count > 0, nil
}

// Block makes messages sent by blocked to blocker invisible from now on.
// Messages already delivered keep their visibility; the relation's CreatedAt
// is the time anchor. Re-blocking while a block is active is a no-op so the
// anchor never moves.
func (s *Store) Block(blockerID, blockedID uint) error {
	if blockerID == blockedID || blockerID == 0 || blockedID == 0 {
		return ErrInvalidInput
	}

	active, err := s.IsBlocked(blockerID, blockedID)
	if err != nil {
		return err
	}
	if active {
		return nil
	}

	relation := &model.BlockedUser{BlockerID: blockerID, BlockedID: blockedID}
	return errors.Wrap(s.db.Create(relation).Error, "messenger.Block")
}

// Unblock lifts an active block. The row is soft-deleted: future messages
// become visible, while messages frozen as blocked at send time stay hidden.
func (s *Store) Unblock(blockerID, blockedID uint) error {
	err := s.db.
		Where(&model.BlockedUser{BlockerID: blockerID, BlockedID: blockedID}).
		Delete(&model.BlockedUser{}).Error
	return errors.Wrap(err, "messenger.Unblock")
}
