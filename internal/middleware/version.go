package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const currentAPIVersion = "1.0.0"

// VersionMiddleware parses the X-Api-Version header and stores it in context
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := c.Get("X-Api-Version", currentAPIVersion)

		// Support version aliases
		switch version {
		case "1", "1.0":
			version = currentAPIVersion
		}

		c.Locals("apiVersion", version)

		return c.Next()
	}
}
