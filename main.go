package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"marketplace-chat/config"
	"marketplace-chat/controller"
	"marketplace-chat/database"
	"marketplace-chat/event"
	"marketplace-chat/event/listener"
	"marketplace-chat/messenger"
	"marketplace-chat/router"
	"marketplace-chat/socketio"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	log.SetPrefix("marketplace-chat: ")

	rest := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		AppName:               "marketplace-chat",
	})

	rest.Use(cors.New())

	database.RedisConnect()
	database.PostgresConnect()

	event.RabbitMQConnect([]string{
		"notifications",
		"backoffice",
	})

	socket := socketio.Init(rest)

	store := messenger.New(database.Postgres, socketio.Dispatcher{})
	controller.Messenger = store

	// Moderation events (block/unblock) arrive from the backoffice service.
	go listener.Backoffice(store)
	event.RabbitMQSubscribe([]event.RabbitMQSubscribeListener{
		{
			Queue:   "backoffice",
			Channel: listener.BackofficeChannel,
		},
	})

	router.Rest(rest)
	router.Socket(socket, store)

	go rest.Listen(fmt.Sprintf(":%s", config.Config("SERVER_PORT")))

	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	socket.Close(nil)
	event.RabbitMQChannel.Close()
	event.RabbitMQConnection.Close()
	event.InLogFile.Close()
	event.OutLogFile.Close()
	os.Exit(0)
}
