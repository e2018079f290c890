package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/store"
)

// userLocalKey is where the middleware stashes the authenticated user.
const userLocalKey = "auth_user"

// Middleware returns a fiber handler that authenticates requests via a
// Bearer session token and loads the user into request locals.
func Middleware(jwtSecret string, users *store.UserStore, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "No token, authorization denied",
			})
		}

		userID, err := ParseToken(jwtSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			logger.Debug("Rejected invalid session token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token is not valid",
			})
		}

		user, err := users.FindByID(c.UserContext(), userID)
		if err != nil {
			logger.Error("Failed to load user for token", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to authenticate",
			})
		}
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// CurrentUser returns the authenticated user set by Middleware, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalKey).(*models.User)
	return user
}
