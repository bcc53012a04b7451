package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// principal extracts the authenticated user's id and role from the JWT the
// auth middleware validated.
func principal(c *fiber.Ctx) (uint, string) {
	user := c.Locals("user").(*jwt.Token)
	claims := user.Claims.(jwt.MapClaims)

	id, _ := strconv.ParseUint(claims["id"].(string), 10, 64)

	role := ""
	if r, ok := claims["role"].(string); ok {
		role = r
	}
	return uint(id), role
}
