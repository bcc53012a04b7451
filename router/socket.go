package router

import (
	"strconv"

	"marketplace-chat/messenger"
	"marketplace-chat/utils"

	"github.com/zishang520/socket.io/v2/socket"
)

func clientUser(client *socket.Socket) (uint, bool) {
	claims, ok := client.Data().(*utils.TokenMetadata)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(claims.Id, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func Socket(server *socket.Server, store *messenger.Store) {
	server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		// Conversation list with unread counts, pushed on connect.
		client.On("init", func(args ...interface{}) {
			viewer, ok := clientUser(client)
			if !ok {
				return
			}

			summaries, err := store.Summaries(viewer)
			if err != nil {
				return
			}
			client.Emit("init", summaries)
		})

		// Join the pair room for live message_created events. Only
		// participants of an existing conversation get in.
		client.On("conversation_join", func(args ...interface{}) {
			viewer, ok := clientUser(client)
			if !ok || len(args) == 0 {
				return
			}
			other, err := strconv.ParseUint(args[0].(string), 10, 64)
			if err != nil || uint(other) == viewer {
				return
			}

			conv, err := store.FindConversation(viewer, uint(other))
			if err != nil || conv == nil {
				return
			}
			client.Join(socket.Room(messenger.Room(viewer, uint(other))))
		})

		client.On("conversation_read", func(args ...interface{}) {
			viewer, ok := clientUser(client)
			if !ok || len(args) == 0 {
				return
			}
			other, err := strconv.ParseUint(args[0].(string), 10, 64)
			if err != nil {
				return
			}
			store.MarkRead(viewer, uint(other))
		})
	})
}
