package listener

import (
	"encoding/json"
	"log"

	"marketplace-chat/event"
	"marketplace-chat/messenger"
)

var BackofficeChannel = make(chan event.EventChannelData)

type blockEvent struct {
	Blocker uint `json:"blocker"`
	Blocked uint `json:"blocked"`
}

// Backoffice consumes moderation events from the backoffice service and
// keeps the block relations in sync. Message visibility then follows from
// the relation's own timestamps.
func Backoffice(store *messenger.Store) {
	for evt := range BackofficeChannel {
		switch evt.Action {
		case event.ActionUserBlocked, event.ActionUserUnblocked:
		default:
			continue
		}

		data := new(blockEvent)
		if err := json.Unmarshal(evt.Data, data); err != nil {
			log.Printf("backoffice listener: undecodable %s event: %v", evt.Action, err)
			continue
		}

		var err error
		if evt.Action == event.ActionUserBlocked {
			err = store.Block(data.Blocker, data.Blocked)
		} else {
			err = store.Unblock(data.Blocker, data.Blocked)
		}
		if err != nil {
			log.Printf("backoffice listener: %s failed: %v", evt.Action, err)
		}
	}
}
