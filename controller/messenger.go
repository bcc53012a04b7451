package controller

import (
	"encoding/json"
	"errors"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"marketplace-chat/event"
	"marketplace-chat/messenger"
	"marketplace-chat/secure"
	"marketplace-chat/storage"

	"github.com/gofiber/fiber/v2"
)

// Messenger is the messaging core, wired in main with the database handle and
// the socket.io dispatcher.
var Messenger *messenger.Store

type MessengerSendInput struct {
	Type    string `json:"type"`
	Body    string `json:"body"`
	Caption string `json:"caption"`
}

// messengerError maps the core's error taxonomy onto the response envelope.
func messengerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, messenger.ErrInvalidInput),
		errors.Is(err, secure.ErrTokenMalformed),
		errors.Is(err, storage.ErrBadFilename):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Review your input",
			"data":    nil,
		})
	case errors.Is(err, messenger.ErrNotParticipant),
		errors.Is(err, messenger.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  "error",
			"message": "Forbidden",
			"data":    nil,
		})
	case errors.Is(err, messenger.ErrMessageNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "Not found",
			"data":    nil,
		})
	case errors.Is(err, secure.ErrTokenExpired):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"status":  "error",
			"message": "Image token expired",
			"data":    nil,
		})
	default:
		log.Printf("messenger: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Internal server error",
			"data":    nil,
		})
	}
}

func otherUserParam(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("user"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func MessengerConversations(c *fiber.Ctx) error {
	viewer, _ := principal(c)

	summaries, err := Messenger.Summaries(viewer)
	if err != nil {
		return messengerError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    summaries,
	})
}

func MessengerMessages(c *fiber.Ctx) error {
	viewer, _ := principal(c)
	other, ok := otherUserParam(c)
	if !ok {
		return messengerError(c, messenger.ErrInvalidInput)
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 0)

	messages, pagination, err := Messenger.List(viewer, other, page, pageSize)
	if err != nil {
		return messengerError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"messages":   messages,
			"pagination": pagination,
		},
	})
}

func MessengerSend(c *fiber.Ctx) error {
	sender, _ := principal(c)
	receiver, ok := otherUserParam(c)
	if !ok {
		return messengerError(c, messenger.ErrInvalidInput)
	}

	input := new(MessengerSendInput)
	if err := c.BodyParser(input); err != nil {
		return messengerError(c, messenger.ErrInvalidInput)
	}

	view, err := Messenger.Send(sender, receiver, input.Type, input.Body, input.Caption)
	if err != nil {
		return messengerError(c, err)
	}

	// Let sibling services (push notifications) know about the new message.
	payload, _ := json.Marshal(fiber.Map{
		"conversation": view.ConversationID,
		"message":      view.ID,
		"sender":       view.SenderID,
		"receiver":     receiver,
		"type":         view.Type,
	})
	event.Emit("notifications", event.ActionMessageCreated, payload, true)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    view,
	})
}

func MessengerMarkRead(c *fiber.Ctx) error {
	viewer, _ := principal(c)
	other, ok := otherUserParam(c)
	if !ok {
		return messengerError(c, messenger.ErrInvalidInput)
	}

	if err := Messenger.MarkRead(viewer, other); err != nil {
		return messengerError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    nil,
	})
}

func MessengerDelete(c *fiber.Ctx) error {
	viewer, _ := principal(c)
	other, ok := otherUserParam(c)
	if !ok {
		return messengerError(c, messenger.ErrInvalidInput)
	}

	deleted, err := Messenger.SoftDelete(viewer, other)
	if err != nil {
		return messengerError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"deleted": deleted,
		},
	})
}

func MessengerBlock(c *fiber.Ctx) error {
	blocker, _ := principal(c)
	blocked, ok := otherUserParam(c)
	if !ok {
		return messengerError(c, messenger.ErrInvalidInput)
	}

	if err := Messenger.Block(blocker, blocked); err != nil {
		return messengerError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    nil,
	})
}

func MessengerUnblock(c *fiber.Ctx) error {
	blocker, _ := principal(c)
	blocked, ok := otherUserParam(c)
	if !ok {
		return messengerError(c, messenger.ErrInvalidInput)
	}

	if err := Messenger.Unblock(blocker, blocked); err != nil {
		return messengerError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    nil,
	})
}

func MessengerUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return messengerError(c, messenger.ErrInvalidInput)
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return messengerError(c, messenger.ErrInvalidInput)
	}

	src, err := file.Open()
	if err != nil {
		return messengerError(c, err)
	}
	defer src.Close()

	name, err := storage.Save(src, filepath.Ext(file.Filename))
	if err != nil {
		return messengerError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"filename": name,
		},
	})
}

func MessengerImageByFilename(c *fiber.Ctx) error {
	viewer, role := principal(c)

	path, msg, err := Messenger.ImageByFilename(viewer, role, c.Params("filename"))
	if err != nil {
		return messengerError(c, err)
	}

	c.Set("X-Message-Id", strconv.FormatUint(uint64(msg.ID), 10))
	return c.SendFile(path)
}

func MessengerImageByToken(c *fiber.Ctx) error {
	viewer, role := principal(c)

	token := c.Query("token")
	if token == "" {
		return messengerError(c, secure.ErrTokenMalformed)
	}

	path, msg, err := Messenger.ImageByToken(viewer, role, token)
	if err != nil {
		return messengerError(c, err)
	}

	c.Set("X-Message-Id", strconv.FormatUint(uint64(msg.ID), 10))
	return c.SendFile(path)
}
