package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/handlers"
)

// Handlers bundles every route handler so SetupRoutes stays a single
// signature as endpoints grow.
type Handlers struct {
	Health    *handlers.HealthHandler
	Webhooks  *handlers.WebhookHandler
	Auth      *handlers.AuthHandler
	Airtable  *handlers.AirtableHandler
	Forms     *handlers.FormsHandler
	Responses *handlers.ResponsesHandler
}

// SetupRoutes configures all application routes with dependencies
func SetupRoutes(app *fiber.App, h *Handlers, authMiddleware fiber.Handler) {
	// Health check endpoint
	app.Get("/health", h.Health.HealthCheck)

	// Airtable notifies this endpoint on every change; it must stay
	// outside the auth group and always answer 200.
	app.Post("/webhooks/airtable", h.Webhooks.HandlePing)

	// OAuth login flow
	app.Get("/auth/airtable/login", h.Auth.Login)
	app.Get("/auth/airtable/callback", h.Auth.Callback)

	api := app.Group("/api", authMiddleware)
	{
		// Airtable schema browsing and webhook registration
		api.Get("/airtable/bases", h.Airtable.GetBases)
		api.Get("/airtable/tables", h.Airtable.GetTables)
		api.Get("/airtable/fields", h.Airtable.GetFields)
		api.Post("/airtable/webhooks", h.Airtable.CreateWebhook)

		// Forms and their responses
		api.Post("/forms", h.Forms.Create)
		api.Get("/forms", h.Forms.List)
		api.Get("/forms/:formId", h.Forms.Get)
		api.Post("/forms/:formId/responses", h.Responses.Submit)
		api.Get("/forms/:formId/responses", h.Responses.List)
	}
}
