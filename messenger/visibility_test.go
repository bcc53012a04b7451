package messenger_test

import (
	"testing"
	"time"

	"marketplace-chat/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Blocking is time-anchored: a block hides messages sent at or after its
// creation, never messages that came before, and lifting it neither restores
// frozen messages nor hides new ones.
func TestBlockTimeAnchoring(t *testing.T) {
	store, db, _ := newTestStore(t)
	ids := seedUsers(t, db, 2)
	alice, bob := ids[0], ids[1]

	_, err := store.Send(alice, bob, model.MessageTypeText, "before block", "")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	require.NoError(t, store.Block(bob, alice))
	time.Sleep(2 * time.Millisecond)

	_, err = store.Send(alice, bob, model.MessageTypeText, "while blocked", "")
	require.NoError(t, err)

	// Bob sees only the earlier message.
	views, _, err := store.List(bob, alice, 1, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "before block", views[0].Body)

	// Alice always sees her own messages.
	views, _, err = store.List(alice, bob, 1, 0)
	require.NoError(t, err)
	assert.Len(t, views, 2)

	// Unblocking does not resurrect the frozen message.
	require.NoError(t, store.Unblock(bob, alice))
	time.Sleep(2 * time.Millisecond)

	views, _, err = store.List(bob, alice, 1, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "before block", views[0].Body)

	// New traffic after the unblock is visible again.
	_, err = store.Send(alice, bob, model.MessageTypeText, "after unblock", "")
	require.NoError(t, err)

	views, _, err = store.List(bob, alice, 1, 0)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "before block", views[0].Body)
	assert.Equal(t, "after unblock", views[1].Body)
}

func TestBlockedFlagFrozenAtSendTime(t *testing.T) {
	store, db, _ := newTestStore(t)
	ids := seedUsers(t, db, 2)
	alice, bob := ids[0], ids[1]

	require.NoError(t, store.Block(bob, alice))
	time.Sleep(2 * time.Millisecond)

	view, err := store.Send(alice, bob, model.MessageTypeText, "frozen", "")
	require.NoError(t, err)

	raw := new(model.Message)
	require.NoError(t, db.First(raw, view.ID).Error)
	assert.True(t, raw.Blocked)

	require.NoError(t, store.Unblock(bob, alice))

	// Flag never gets recomputed.
	require.NoError(t, db.First(raw, view.ID).Error)
	assert.True(t, raw.Blocked)
}

func TestMessageVisiblePredicate(t *testing.T) {
	store, db, _ := newTestStore(t)
	ids := seedUsers(t, db, 3)
	alice, bob, carol := ids[0], ids[1], ids[2]

	view, err := store.Send(alice, bob, model.MessageTypeText, "hi", "")
	require.NoError(t, err)

	msg := new(model.Message)
	require.NoError(t, db.First(msg, view.ID).Error)

	visible, err := store.MessageVisible(bob, msg)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = store.MessageVisible(alice, msg)
	require.NoError(t, err)
	assert.True(t, visible)

	// Outsiders are not participants.
	visible, err = store.MessageVisible(carol, msg)
	require.NoError(t, err)
	assert.False(t, visible)

	// A later block does not hide the earlier message.
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, store.Block(bob, alice))

	visible, err = store.MessageVisible(bob, msg)
	require.NoError(t, err)
	assert.True(t, visible)

	// Soft delete hides it until newer traffic arrives.
	_, err = store.SoftDelete(bob, alice)
	require.NoError(t, err)

	visible, err = store.MessageVisible(bob, msg)
	require.NoError(t, err)
	assert.False(t, visible)

	// The sender's own view survives both block and soft delete.
	visible, err = store.MessageVisible(alice, msg)
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestSummariesSkipFullyBlockedConversations(t *testing.T) {
	store, db, _ := newTestStore(t)
	ids := seedUsers(t, db, 2)
	alice, bob := ids[0], ids[1]

	require.NoError(t, store.Block(bob, alice))
	time.Sleep(2 * time.Millisecond)

	_, err := store.Send(alice, bob, model.MessageTypeText, "unseen", "")
	require.NoError(t, err)

	// Every message in the thread is hidden from Bob, so the thread itself
	// does not show up for him; Alice still lists it.
	summaries, err := store.Summaries(bob)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	summaries, err = store.Summaries(alice)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}
