package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/airtable"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/auth"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/config"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/store"
)

// AirtableHandler exposes Airtable schema metadata to the form builder
// and manages the webhook registration.
type AirtableHandler struct {
	Client        *airtable.Client
	Registrations *store.RegistrationStore
	Cfg           *config.AirtableConfig
	Logger        *zap.Logger
}

func NewAirtableHandler(client *airtable.Client, registrations *store.RegistrationStore, cfg *config.AirtableConfig, logger *zap.Logger) *AirtableHandler {
	return &AirtableHandler{
		Client:        client,
		Registrations: registrations,
		Cfg:           cfg,
		Logger:        logger,
	}
}

// mapFieldType maps an Airtable field type to a question type. Types
// outside this set cannot be rendered as questions and are filtered out.
func mapFieldType(airtableType string) string {
	switch airtableType {
	case "singleLineText", "url":
		return models.QuestionShortText
	case "multilineText":
		return models.QuestionLongText
	case "singleSelect":
		return models.QuestionSingleSelect
	case "multipleSelects":
		return models.QuestionMultiSelect
	case "multipleAttachments":
		return models.QuestionAttachment
	default:
		return ""
	}
}

// GetBases handles GET /api/airtable/bases
func (h *AirtableHandler) GetBases(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	bases, err := h.Client.ListBases(c.UserContext(), user.AccessToken)
	if err != nil {
		h.Logger.Error("Failed to fetch bases", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to fetch bases",
		})
	}

	out := make([]fiber.Map, 0, len(bases))
	for _, b := range bases {
		out = append(out, fiber.Map{
			"id":               b.ID,
			"name":             b.Name,
			"permission_level": b.PermissionLevel,
		})
	}
	return c.JSON(fiber.Map{"bases": out})
}

// GetTables handles GET /api/airtable/tables?baseId=...
func (h *AirtableHandler) GetTables(c *fiber.Ctx) error {
	baseID := c.Query("baseId")
	if baseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "baseId is required",
		})
	}

	user := auth.CurrentUser(c)
	tables, err := h.Client.ListTables(c.UserContext(), baseID, user.AccessToken)
	if err != nil {
		h.Logger.Error("Failed to fetch tables",
			zap.String("base_id", baseID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to fetch tables",
		})
	}

	out := make([]fiber.Map, 0, len(tables))
	for _, t := range tables {
		out = append(out, fiber.Map{"id": t.ID, "name": t.Name})
	}
	return c.JSON(fiber.Map{"tables": out})
}

// GetFields handles GET /api/airtable/fields?baseId=...&tableId=...
// Only fields whose type maps to a question type are returned.
func (h *AirtableHandler) GetFields(c *fiber.Ctx) error {
	baseID := c.Query("baseId")
	tableID := c.Query("tableId")
	if baseID == "" || tableID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "baseId & tableId required",
		})
	}

	user := auth.CurrentUser(c)
	fields, err := h.Client.ListFields(c.UserContext(), baseID, tableID, user.AccessToken)
	if err != nil {
		h.Logger.Error("Failed to fetch fields",
			zap.String("base_id", baseID),
			zap.String("table_id", tableID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to fetch fields",
		})
	}

	out := make([]fiber.Map, 0, len(fields))
	for _, f := range fields {
		mapped := mapFieldType(f.Type)
		if mapped == "" {
			continue
		}
		out = append(out, fiber.Map{
			"id":            f.ID,
			"name":          f.Name,
			"type":          mapped,
			"airtable_type": f.Type,
			"options":       f.Options,
		})
	}
	return c.JSON(fiber.Map{"fields": out})
}

// CreateWebhook handles POST /api/airtable/webhooks/create: register the
// webhook with Airtable and upsert the local registration record.
func (h *AirtableHandler) CreateWebhook(c *fiber.Ctx) error {
	created, err := h.Client.CreateWebhook(c.UserContext(), h.Cfg.BaseID, h.Cfg.WebhookPublicURL, h.Cfg.TableID)
	if err != nil {
		h.Logger.Error("Failed to create Airtable webhook", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create webhook",
		})
	}

	var expiration *time.Time
	if created.ExpirationTime != "" {
		if t, parseErr := time.Parse(time.RFC3339, created.ExpirationTime); parseErr == nil {
			expiration = &t
		}
	}

	reg, err := h.Registrations.UpsertFromCreate(c.UserContext(),
		created.ID, created.MACSecretBase64, h.Cfg.WebhookPublicURL, h.Cfg.BaseID, expiration,
	)
	if err != nil {
		h.Logger.Error("Failed to store webhook registration",
			zap.String("webhook_id", created.ID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Webhook created but could not be stored",
		})
	}

	h.Logger.Info("Webhook registered",
		zap.String("webhook_id", created.ID),
		zap.String("notification_url", h.Cfg.WebhookPublicURL),
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"webhook_id":      created.ID,
		"expiration_time": created.ExpirationTime,
		"saved_in_db":     true,
		"db_id":           reg.ID,
	})
}
