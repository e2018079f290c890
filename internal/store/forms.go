package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
)

type FormStore struct {
	db *gorm.DB
}

func NewFormStore(db *gorm.DB) *FormStore {
	return &FormStore{db: db}
}

func (s *FormStore) Create(ctx context.Context, form *models.Form) error {
	return s.db.WithContext(ctx).Create(form).Error
}

// FindByTableID returns the form bound to an Airtable table, questions
// preloaded, or (nil, nil) when no form matches.
func (s *FormStore) FindByTableID(ctx context.Context, tableID string) (*models.Form, error) {
	var form models.Form
	err := s.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("form_questions.position ASC")
		}).
		Where("airtable_table_id = ?", tableID).
		First(&form).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// FindAny returns any form at all, or (nil, nil) when none exist. Used
// as the fallback owner for change events that carry no table id.
func (s *FormStore) FindAny(ctx context.Context) (*models.Form, error) {
	var form models.Form
	err := s.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("form_questions.position ASC")
		}).
		Order("created_at ASC").
		First(&form).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// FindForOwner returns a form only if the given user owns it.
func (s *FormStore) FindForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Form, error) {
	var form models.Form
	err := s.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("form_questions.position ASC")
		}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&form).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (s *FormStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Form, error) {
	var forms []models.Form
	err := s.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("form_questions.position ASC")
		}).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&forms).Error
	if err != nil {
		return nil, err
	}
	return forms, nil
}
