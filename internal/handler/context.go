package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ownerID pulls the authenticated user's id out of the request context
// (set by the auth middleware). The zero UUID only shows up on routes that
// skipped the middleware, which is a wiring bug.
func ownerID(c *fiber.Ctx) uuid.UUID {
	raw := c.Locals("user_id")
	if raw == nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw.(string))
	if err != nil {
		return uuid.Nil
	}
	return id
}
