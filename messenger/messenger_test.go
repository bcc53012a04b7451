package messenger_test

import (
	"fmt"
	"sync"
	"testing"

	"marketplace-chat/messenger"
	"marketplace-chat/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type emitted struct {
	Room    string
	Event   string
	Payload any
}

// recorder is a Dispatcher capturing broadcasts for assertions.
type recorder struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recorder) Emit(room string, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{Room: room, Event: event, Payload: payload})
}

func (r *recorder) all() []emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]emitted(nil), r.events...)
}

func newTestStore(t *testing.T) (*messenger.Store, *gorm.DB, *recorder) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Conversation{},
		&model.ConversationParticipant{},
		&model.Message{},
		&model.BlockedUser{},
	))

	rec := &recorder{}
	return messenger.New(db, rec), db, rec
}

// seedUsers creates n users and returns their ids in creation order.
func seedUsers(t *testing.T, db *gorm.DB, n int) []uint {
	t.Helper()

	ids := make([]uint, 0, n)
	for i := 0; i < n; i++ {
		user := &model.User{
			Username: fmt.Sprintf("user%d", i+1),
			Email:    fmt.Sprintf("user%d@example.com", i+1),
			Password: "hash",
			Role:     "user",
		}
		require.NoError(t, db.Create(user).Error)
		ids = append(ids, user.ID)
	}
	return ids
}
