package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"marketplace-chat/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Actions carried in the x-action header.
const (
	ActionMessageCreated = "messenger_message_created"
	ActionUserBlocked    = "user_blocked"
	ActionUserUnblocked  = "user_unblocked"
)

type EventChannelData struct {
	Action string
	Data   []byte
}

type RabbitMQSubscribeListener struct {
	Queue   string
	Channel chan EventChannelData
}

type EventLogData struct {
	Time    int64  `json:"time"`
	Service string `json:"service"`
	Action  string `json:"action"`
	Data    string `json:"data"`
}

const RabbitMQActionHeader string = "x-action"
const RabbitMQInLogFile string = "log/in.log"
const RabbitMQOutLogFile string = "log/out.log"

var (
	RabbitMQConnection *amqp.Connection
	RabbitMQChannel    *amqp.Channel
	RabbitMQQueue      = make(map[string]amqp.Queue)

	InLogFile  *os.File
	OutLogFile *os.File
	err        error
)

func RabbitMQConnect(queues []string) {
	// Connect to RabbitMQ server
	RabbitMQConnection, err = amqp.Dial(fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		config.Config("RABBITMQ_USER"),
		config.Config("RABBITMQ_PASSWORD"),
		config.Config("RABBITMQ_HOST"),
		config.Config("RABBITMQ_PORT"),
	))
	if err != nil {
		panic("failed to connect to RabbitMQ")
	}
	log.Printf("connection opened to RabbitMQ server")

	// Open a RabbitMQ channel
	RabbitMQChannel, err = RabbitMQConnection.Channel()
	if err != nil {
		panic("failed to open a RabbitMQ channel")
	}
	log.Printf("opened a RabbitMQ channel")

	// Declare the queues
	for _, name := range queues {
		queue, err := RabbitMQChannel.QueueDeclare(
			name,  // name
			false, // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			panic("failed to declare a RabbitMQ queue")
		}

		RabbitMQQueue[name] = queue
		log.Printf("success declare a RabbitMQ queue: %s", name)
	}

	// Open event log files
	InLogFile, err = os.OpenFile(RabbitMQInLogFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		panic(err)
	}
	OutLogFile, err = os.OpenFile(RabbitMQOutLogFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		panic(err)
	}
}

func RabbitMQSubscribe(queues []RabbitMQSubscribeListener) {
	for _, queue := range queues {
		msgs, err := RabbitMQChannel.Consume(
			queue.Queue, // queue
			"",          // consumer
			false,       // auto-ack
			false,       // exclusive
			false,       // no-local
			false,       // no-wait
			nil,         // args
		)
		if err != nil {
			panic("failed to register a consumer")
		}
		log.Printf("success subscribe to RabbitMQ [%s] queue", queue.Queue)

		go func(queue RabbitMQSubscribeListener) {
			for msg := range msgs {
				action, _ := msg.Headers[RabbitMQActionHeader].(string)

				if config.Config("EVENT_MODE") != "DISABLE" {
					InLog(EventLogData{
						Time:    time.Now().UnixMicro(),
						Service: queue.Queue,
						Action:  action,
						Data:    string(msg.Body[:]),
					})
				}

				msg.Ack(false)

				queue.Channel <- EventChannelData{
					Action: action,
					Data:   msg.Body,
				}
			}
		}(queue)
	}
}

func Emit(service string, action string, data []byte, logEvent bool) {
	if RabbitMQChannel == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := RabbitMQChannel.PublishWithContext(
		ctx,
		"",      // exchange
		service, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Headers: amqp.Table{
				RabbitMQActionHeader: action,
			},
			Body: data,
		},
	)
	if err != nil {
		log.Printf("failed to publish a message: %v", err)
		return
	}

	if logEvent && config.Config("EVENT_MODE") != "DISABLE" {
		OutLog(EventLogData{
			Time:    time.Now().UnixMicro(),
			Service: service,
			Action:  action,
			Data:    string(data[:]),
		})
	}
}

func InLog(data EventLogData) {
	eventJson, _ := json.Marshal(data)
	if _, err = InLogFile.WriteString(string(eventJson) + "\n"); err != nil {
		log.Printf("failed to append event log: %v", err)
	}
}

func OutLog(data EventLogData) {
	eventJson, _ := json.Marshal(data)
	if _, err = OutLogFile.WriteString(string(eventJson) + "\n"); err != nil {
		log.Printf("failed to append event log: %v", err)
	}
}
