package ingest

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
)

// FormStore is the read-only form collaborator the mapper needs.
type FormStore interface {
	// FindByTableID returns the form bound to an Airtable table, or
	// (nil, nil) when no form matches.
	FindByTableID(ctx context.Context, tableID string) (*models.Form, error)
	// FindAny returns any existing form, or (nil, nil) when none exist.
	FindAny(ctx context.Context) (*models.Form, error)
}

// MappedRecord is a ChangedRecord translated into form terms: answers
// keyed by question key instead of Airtable field id.
type MappedRecord struct {
	FormID   uuid.UUID
	RecordID string
	Answers  map[string]interface{}
}

// Mapper translates Airtable field ids into question keys using a
// form's question list.
type Mapper struct {
	forms  FormStore
	logger *zap.Logger
}

func NewMapper(forms FormStore, logger *zap.Logger) *Mapper {
	return &Mapper{forms: forms, logger: logger}
}

// Map resolves the owning form for a changed record and rewrites its
// field values under question keys. Returns (nil, nil) when the record
// belongs to no known form; that is a drop, not an error.
//
// Fields without a matching question are ignored: they were not selected
// into the form. Null and empty-string values are kept so that explicit
// clears reach the upserter.
func (m *Mapper) Map(ctx context.Context, rec ChangedRecord) (*MappedRecord, error) {
	form, err := m.resolveForm(ctx, rec.TableID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		m.logger.Info("No form for changed record, dropping",
			zap.String("record_id", rec.ID),
			zap.String("table_id", rec.TableID),
		)
		return nil, nil
	}

	// One-shot reverse lookup: Airtable field id -> question key.
	keyByFieldID := make(map[string]string, len(form.Questions))
	for _, q := range form.Questions {
		keyByFieldID[q.AirtableFieldID] = q.QuestionKey
	}

	answers := make(map[string]interface{}, len(rec.Fields))
	for fieldID, value := range rec.Fields {
		key, ok := keyByFieldID[fieldID]
		if !ok {
			continue
		}
		answers[key] = value
	}

	return &MappedRecord{
		FormID:   form.ID,
		RecordID: rec.ID,
		Answers:  answers,
	}, nil
}

// resolveForm looks the form up by table id. List-shape payloads can
// omit table ids entirely; those records fall back to any existing form,
// matching the single-form deployments this started from. A table id
// that is present but unknown is somebody else's table.
func (m *Mapper) resolveForm(ctx context.Context, tableID string) (*models.Form, error) {
	if tableID == "" {
		return m.forms.FindAny(ctx)
	}
	return m.forms.FindByTableID(ctx, tableID)
}
