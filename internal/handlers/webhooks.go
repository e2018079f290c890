package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/ingest"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
)

// macHeader carries the HMAC Airtable computes over the ping body.
const macHeader = "X-Airtable-Content-Mac"

// RegistrationResolver resolves the registration (secret included) that
// an incoming ping should be verified against.
type RegistrationResolver interface {
	FindActiveWithSecret(ctx context.Context, notificationURL string) (*models.WebhookRegistration, error)
}

// WebhookHandler receives Airtable change pings. The ping carries no
// change data; it only tells us to go fetch payloads.
type WebhookHandler struct {
	Registrations   RegistrationResolver
	Dispatcher      ingest.Dispatcher
	NotificationURL string
	Logger          *zap.Logger
}

func NewWebhookHandler(registrations RegistrationResolver, dispatcher ingest.Dispatcher, notificationURL string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		Registrations:   registrations,
		Dispatcher:      dispatcher,
		NotificationURL: notificationURL,
		Logger:          logger,
	}
}

// HandlePing handles POST /webhooks/airtable. Whatever happens, the
// provider gets a 200: surfacing an error would trip Airtable's
// retry-then-disable behavior, and a rejected ping is our problem, not
// theirs. Verification uses the raw body bytes exactly as received.
func (h *WebhookHandler) HandlePing(c *fiber.Ctx) error {
	h.Logger.Info("Airtable ping received")

	reg, err := h.Registrations.FindActiveWithSecret(c.UserContext(), h.NotificationURL)
	if err != nil {
		h.Logger.Error("Failed to resolve webhook registration", zap.Error(err))
		return c.SendStatus(fiber.StatusOK)
	}
	if reg == nil {
		h.Logger.Warn("No webhook registration found, ignoring ping")
		return c.SendStatus(fiber.StatusOK)
	}

	body := c.Body()
	header := c.Get(macHeader)
	if header == "" {
		h.Logger.Warn("Ping carried no MAC header, accepting without verification")
	}
	if !ingest.VerifySignature(reg.MACSecret(), body, header) {
		h.Logger.Warn("Ping MAC mismatch, discarding",
			zap.String("webhook_id", reg.WebhookID),
		)
		return c.SendStatus(fiber.StatusOK)
	}

	// Acknowledge before processing: ingestion latency must not feed
	// back into the provider's delivery timing.
	if err := h.Dispatcher.Dispatch(ingest.Task{WebhookID: reg.WebhookID}); err != nil {
		h.Logger.Error("Failed to dispatch ingest task",
			zap.String("webhook_id", reg.WebhookID),
			zap.Error(err),
		)
	}

	return c.SendStatus(fiber.StatusOK)
}
