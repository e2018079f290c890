package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/auth"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/store"
)

type FormsHandler struct {
	Forms    *store.FormStore
	Validate *validator.Validate
	Logger   *zap.Logger
}

func NewFormsHandler(forms *store.FormStore, logger *zap.Logger) *FormsHandler {
	return &FormsHandler{
		Forms:    forms,
		Validate: validator.New(),
		Logger:   logger,
	}
}

type createFormRequest struct {
	AirtableBaseID  string                  `json:"airtable_base_id" validate:"required"`
	AirtableTableID string                  `json:"airtable_table_id" validate:"required"`
	Title           string                  `json:"title"`
	Questions       []createQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

type createQuestionRequest struct {
	QuestionKey      string         `json:"question_key" validate:"required"`
	AirtableFieldID  string         `json:"airtable_field_id" validate:"required"`
	Label            string         `json:"label" validate:"required"`
	Type             string         `json:"type" validate:"required,oneof=shortText longText singleSelect multiSelect attachment"`
	Required         bool           `json:"required"`
	ConditionalRules datatypes.JSON `json:"conditional_rules"`
}

// Create handles POST /api/forms
func (h *FormsHandler) Create(c *fiber.Ctx) error {
	var req createFormRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.Validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed: " + err.Error(),
		})
	}

	user := auth.CurrentUser(c)
	form := models.Form{
		OwnerID:         user.ID,
		AirtableBaseID:  req.AirtableBaseID,
		AirtableTableID: req.AirtableTableID,
		Title:           req.Title,
	}
	for i, q := range req.Questions {
		form.Questions = append(form.Questions, models.FormQuestion{
			Position:         i,
			QuestionKey:      q.QuestionKey,
			AirtableFieldID:  q.AirtableFieldID,
			Label:            q.Label,
			Type:             q.Type,
			Required:         q.Required,
			ConditionalRules: q.ConditionalRules,
		})
	}

	if err := h.Forms.Create(c.UserContext(), &form); err != nil {
		h.Logger.Error("Failed to create form", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create form",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"form": form})
}

// Get handles GET /api/forms/:formId
func (h *FormsHandler) Get(c *fiber.Ctx) error {
	formID, err := uuid.Parse(c.Params("formId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid form id",
		})
	}

	user := auth.CurrentUser(c)
	form, err := h.Forms.FindForOwner(c.UserContext(), formID, user.ID)
	if err != nil {
		h.Logger.Error("Failed to fetch form", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch form",
		})
	}
	if form == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Form not found",
		})
	}

	return c.JSON(fiber.Map{"form": form})
}

// List handles GET /api/forms
func (h *FormsHandler) List(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	forms, err := h.Forms.ListByOwner(c.UserContext(), user.ID)
	if err != nil {
		h.Logger.Error("Failed to list forms", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch forms",
		})
	}
	return c.JSON(fiber.Map{"forms": forms})
}
