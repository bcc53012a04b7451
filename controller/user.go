package controller

import (
	"marketplace-chat/database"
	"marketplace-chat/model"

	"github.com/gofiber/fiber/v2"
)

func UserProfile(c *fiber.Ctx) error {
	id, _ := principal(c)

	userModel := new(model.User)
	if err := database.Postgres.First(&userModel, id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Internal server error",
			"data":    nil,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"id":       userModel.ID,
			"created":  userModel.CreatedAt.Unix(),
			"username": userModel.Username,
			"email":    userModel.Email,
			"role":     userModel.Role,
			"avatar":   userModel.Avatar,
		},
	})
}
