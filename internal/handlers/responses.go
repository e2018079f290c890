package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/airtable"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/auth"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/store"
)

type ResponsesHandler struct {
	Forms     *store.FormStore
	Responses *store.ResponseStore
	Airtable  *airtable.Client
	Logger    *zap.Logger
}

func NewResponsesHandler(forms *store.FormStore, responses *store.ResponseStore, client *airtable.Client, logger *zap.Logger) *ResponsesHandler {
	return &ResponsesHandler{
		Forms:     forms,
		Responses: responses,
		Airtable:  client,
		Logger:    logger,
	}
}

type submitRequest struct {
	Answers map[string]interface{} `json:"answers"`
}

// validateAnswers checks required questions are answered.
func validateAnswers(form *models.Form, answers map[string]interface{}) []string {
	var errs []string
	for _, q := range form.Questions {
		if !q.Required {
			continue
		}
		value, ok := answers[q.QuestionKey]
		if !ok || value == nil {
			errs = append(errs, "Missing required answer for question key: "+q.QuestionKey)
			continue
		}
		if s, isStr := value.(string); isStr && strings.TrimSpace(s) == "" {
			errs = append(errs, "Missing required answer for question key: "+q.QuestionKey)
		}
	}
	return errs
}

// Submit handles POST /api/forms/:formId/responses: validate, write the
// record to Airtable, then store the local response keyed by the new
// record id.
func (h *ResponsesHandler) Submit(c *fiber.Ctx) error {
	formID, err := uuid.Parse(c.Params("formId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid form id",
		})
	}

	var req submitRequest
	if err := c.BodyParser(&req); err != nil || req.Answers == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "answers must be an object",
		})
	}

	user := auth.CurrentUser(c)
	form, err := h.Forms.FindForOwner(c.UserContext(), formID, user.ID)
	if err != nil {
		h.Logger.Error("Failed to fetch form", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to submit response",
		})
	}
	if form == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Form not found",
		})
	}

	if errs := validateAnswers(form, req.Answers); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"errors": errs,
		})
	}

	// Translate question keys back to Airtable field ids. Attachments
	// and empty values are not written; attachments need an upload
	// flow Airtable's create endpoint does not provide.
	airtableFields := make(map[string]interface{})
	for _, q := range form.Questions {
		value, ok := req.Answers[q.QuestionKey]
		if !ok || value == nil {
			continue
		}
		if s, isStr := value.(string); isStr && s == "" {
			continue
		}
		if q.Type == models.QuestionAttachment {
			continue
		}
		airtableFields[q.AirtableFieldID] = value
	}

	record, err := h.Airtable.CreateRecord(c.UserContext(), form.AirtableBaseID, form.AirtableTableID, airtableFields, user.AccessToken)
	if err != nil {
		h.Logger.Error("Airtable rejected record create",
			zap.String("form_id", form.ID.String()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Airtable rejected the data",
		})
	}

	response := models.Response{
		FormID:           form.ID,
		AirtableRecordID: record.ID,
		Answers:          datatypes.JSONMap(req.Answers),
	}
	if err := h.Responses.Create(c.UserContext(), &response); err != nil {
		h.Logger.Error("Failed to store response",
			zap.String("record_id", record.ID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store response",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"response": response})
}

// ResponseDTO is one response row in the listing.
type ResponseDTO struct {
	ID                string                 `json:"id"`
	AirtableRecordID  string                 `json:"airtable_record_id"`
	DeletedInAirtable bool                   `json:"deleted_in_airtable"`
	Answers           map[string]interface{} `json:"answers"`
	CreatedAt         string                 `json:"created_at"`
}

type ListResponsesResponse struct {
	Responses []ResponseDTO `json:"responses"`
	HasMore   bool          `json:"has_more"`
}

// List handles GET /api/forms/:formId/responses
// Query parameters:
//   - limit (optional, default 25)
//   - offset (optional, default 0)
func (h *ResponsesHandler) List(c *fiber.Ctx) error {
	formID, err := uuid.Parse(c.Params("formId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid form id",
		})
	}

	limit := 25
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a positive integer",
			})
		}
		limit = parsed
	}

	offset := 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil || parsed < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "offset must be a non-negative integer",
			})
		}
		offset = parsed
	}

	user := auth.CurrentUser(c)
	form, err := h.Forms.FindForOwner(c.UserContext(), formID, user.ID)
	if err != nil {
		h.Logger.Error("Failed to fetch form", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch responses",
		})
	}
	if form == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Form not found",
		})
	}

	responses, hasMore, err := h.Responses.ListByForm(c.UserContext(), form.ID, limit, offset)
	if err != nil {
		h.Logger.Error("Failed to list responses",
			zap.String("form_id", form.ID.String()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch responses",
		})
	}

	dtos := make([]ResponseDTO, 0, len(responses))
	for _, r := range responses {
		dtos = append(dtos, ResponseDTO{
			ID:                r.ID.String(),
			AirtableRecordID:  r.AirtableRecordID,
			DeletedInAirtable: r.DeletedInAirtable,
			Answers:           r.Answers,
			CreatedAt:         r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(ListResponsesResponse{Responses: dtos, HasMore: hasMore})
}
