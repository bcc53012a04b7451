package messenger_test

import (
	"testing"

	"marketplace-chat/messenger"
	"marketplace-chat/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateConversationIdempotent(t *testing.T) {
	store, db, _ := newTestStore(t)
	ids := seedUsers(t, db, 2)

	first, err := store.FindOrCreateConversation(ids[0], ids[1])
	require.NoError(t, err)
	require.NotNil(t, first)

	again, err := store.FindOrCreateConversation(ids[0], ids[1])
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	// Reversed ordering resolves to the same conversation.
	swapped, err := store.FindOrCreateConversation(ids[1], ids[0])
	require.NoError(t, err)
	assert.Equal(t, first.ID, swapped.ID)

	var convCount int64
	require.NoError(t, db.Model(&model.Conversation{}).Count(&convCount).Error)
	assert.EqualValues(t, 1, convCount)

	var partCount int64
	require.NoError(t, db.Model(&model.ConversationParticipant{}).
		Where("conversation_id = ?", first.ID).Count(&partCount).Error)
	assert.EqualValues(t, 2, partCount)
}

func TestFindConversationReadOnly(t *testing.T) {
	store, db, _ := newTestStore(t)
	ids := seedUsers(t, db, 2)

	conv, err := store.FindConversation(ids[0], ids[1])
	require.NoError(t, err)
	assert.Nil(t, conv, "lookup must not create a conversation")

	var count int64
	require.NoError(t, db.Model(&model.Conversation{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestFindOrCreateConversationRejectsSelf(t *testing.T) {
	store, db, _ := newTestStore(t)
	ids := seedUsers(t, db, 1)

	_, err := store.FindOrCreateConversation(ids[0], ids[0])
	assert.ErrorIs(t, err, messenger.ErrInvalidInput)
}

func TestPairUniqueIndexClosesRace(t *testing.T) {
	store, db, _ := newTestStore(t)
	ids := seedUsers(t, db, 2)

	conv, err := store.FindOrCreateConversation(ids[0], ids[1])
	require.NoError(t, err)

	// A racing insert for the same normalized pair must hit the index.
	duplicate := &model.Conversation{PairMin: conv.PairMin, PairMax: conv.PairMax}
	assert.Error(t, db.Create(duplicate).Error)
}
