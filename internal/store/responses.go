package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
)

type ResponseStore struct {
	db *gorm.DB
}

func NewResponseStore(db *gorm.DB) *ResponseStore {
	return &ResponseStore{db: db}
}

func (s *ResponseStore) Create(ctx context.Context, r *models.Response) error {
	if r.Answers == nil {
		r.Answers = datatypes.JSONMap{}
	}
	return s.db.WithContext(ctx).Create(r).Error
}

// FindByRecordID returns (nil, nil) when no response matches the
// Airtable record id.
func (s *ResponseStore) FindByRecordID(ctx context.Context, recordID string) (*models.Response, error) {
	var r models.Response
	err := s.db.WithContext(ctx).
		Where("airtable_record_id = ?", recordID).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateAnswers replaces the stored answers and tombstone flag of a
// response. Last write wins; form table mutation rates make optimistic
// locking not worth its cost here.
func (s *ResponseStore) UpdateAnswers(ctx context.Context, id uuid.UUID, answers map[string]interface{}, deletedInAirtable bool) error {
	return s.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"answers":             datatypes.JSONMap(answers),
			"deleted_in_airtable": deletedInAirtable,
			"updated_at":          time.Now().UTC(),
		}).Error
}

// MarkDeleted sets the tombstone on the response for a record. Reports
// whether any row matched; a miss is expected for records never seen
// locally.
func (s *ResponseStore) MarkDeleted(ctx context.Context, recordID string) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("airtable_record_id = ?", recordID).
		Updates(map[string]interface{}{
			"deleted_in_airtable": true,
			"updated_at":          time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListByForm returns up to limit responses for a form, newest first,
// plus whether more remain past the offset.
func (s *ResponseStore) ListByForm(ctx context.Context, formID uuid.UUID, limit, offset int) ([]models.Response, bool, error) {
	var responses []models.Response
	err := s.db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("created_at DESC").
		Limit(limit + 1). // fetch one extra to determine has_more
		Offset(offset).
		Find(&responses).Error
	if err != nil {
		return nil, false, err
	}

	hasMore := len(responses) > limit
	if hasMore {
		responses = responses[:limit]
	}
	return responses, hasMore, nil
}
