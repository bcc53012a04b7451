package router

import (
	"marketplace-chat/controller"
	"marketplace-chat/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func Rest(app *fiber.App) {
	api := app.Group("/v1", logger.New())

	// Auth
	auth := api.Group("/auth")
	auth.Post("/signup", controller.AuthSignup)
	auth.Post("/signin", controller.AuthSignin)
	auth.Post("/token/renew", controller.AuthTokenRenew)

	// User
	user := api.Group("/user", middleware.JWT())
	user.Get("/profile", controller.UserProfile)

	// Messenger
	messenger := api.Group("/messenger", middleware.JWT())
	messenger.Get("/conversations", controller.MessengerConversations)
	messenger.Delete("/conversations/:user", controller.MessengerDelete)
	messenger.Get("/messages/:user", controller.MessengerMessages)
	messenger.Post("/messages/:user", controller.MessengerSend)
	messenger.Post("/read/:user", controller.MessengerMarkRead)
	messenger.Post("/block/:user", controller.MessengerBlock)
	messenger.Delete("/block/:user", controller.MessengerUnblock)
	messenger.Post("/image", controller.MessengerUpload)
	messenger.Get("/image/token", controller.MessengerImageByToken)
	messenger.Get("/image/:filename", controller.MessengerImageByFilename)

	// Admin moderation surface, casbin-gated
	admin := api.Group("/admin", middleware.JWT(), middleware.RBAC())
	admin.Get("/messenger/image/token", controller.MessengerImageByToken)
	admin.Get("/messenger/image/:filename", controller.MessengerImageByFilename)
}
