package ingest

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
)

// ResponseStore is the read/write response collaborator.
type ResponseStore interface {
	// FindByRecordID returns (nil, nil) when no response matches.
	FindByRecordID(ctx context.Context, recordID string) (*models.Response, error)
	Create(ctx context.Context, r *models.Response) error
	// UpdateAnswers replaces the answers of a response and sets the
	// tombstone flag.
	UpdateAnswers(ctx context.Context, id uuid.UUID, answers map[string]interface{}, deletedInAirtable bool) error
	// MarkDeleted sets the tombstone on the response for a record.
	// Reports whether a response matched.
	MarkDeleted(ctx context.Context, recordID string) (bool, error)
}

// Upserter applies normalized, mapped records to the response store.
// Every operation is idempotent: replaying a page after a crash must
// converge to the same state.
type Upserter struct {
	responses ResponseStore
	logger    *zap.Logger
}

func NewUpserter(responses ResponseStore, logger *zap.Logger) *Upserter {
	return &Upserter{responses: responses, logger: logger}
}

// Delete sets the tombstone for a record. A delete ping for a record
// never seen locally is a no-op.
func (u *Upserter) Delete(ctx context.Context, recordID string) error {
	found, err := u.responses.MarkDeleted(ctx, recordID)
	if err != nil {
		return err
	}
	if found {
		u.logger.Info("Marked response deleted", zap.String("record_id", recordID))
	} else {
		u.logger.Info("Delete ping for unknown record, skipping", zap.String("record_id", recordID))
	}
	return nil
}

// Apply upserts a mapped record: create on first sighting, key-by-key
// merge afterwards. An edit clears the tombstone; Airtable reports edits
// and un-deletes as the same event.
func (u *Upserter) Apply(ctx context.Context, rec *MappedRecord) error {
	existing, err := u.responses.FindByRecordID(ctx, rec.RecordID)
	if err != nil {
		return err
	}

	if existing == nil {
		if rec.FormID == uuid.Nil {
			u.logger.Warn("Skipping create, record has no resolvable form",
				zap.String("record_id", rec.RecordID),
			)
			return nil
		}
		answers := make(map[string]interface{}, len(rec.Answers))
		for key, value := range rec.Answers {
			if isEmptyValue(value) {
				continue
			}
			answers[key] = value
		}
		if err := u.responses.Create(ctx, &models.Response{
			FormID:            rec.FormID,
			AirtableRecordID:  rec.RecordID,
			Answers:           answers,
			DeletedInAirtable: false,
		}); err != nil {
			return err
		}
		u.logger.Info("Created response from change event", zap.String("record_id", rec.RecordID))
		return nil
	}

	merged := MergeAnswers(existing.Answers, rec.Answers)
	if err := u.responses.UpdateAnswers(ctx, existing.ID, merged, false); err != nil {
		return err
	}
	u.logger.Info("Updated response from change event", zap.String("record_id", rec.RecordID))
	return nil
}

// MergeAnswers merges incoming answers into existing ones key by key.
// A null or empty-string value removes the key (explicit clear), any
// other value overwrites, and keys absent from incoming stay untouched:
// partial updates must not erase unrelated answers.
func MergeAnswers(existing, incoming map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(existing)+len(incoming))
	for key, value := range existing {
		merged[key] = value
	}
	for key, value := range incoming {
		if isEmptyValue(value) {
			delete(merged, key)
			continue
		}
		merged[key] = value
	}
	return merged
}

func isEmptyValue(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
