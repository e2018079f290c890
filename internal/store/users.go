package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// UpsertFromOAuth stores or refreshes a user after an OAuth callback.
func (s *UserStore) UpsertFromOAuth(ctx context.Context, airtableUserID, email, name, accessToken, refreshToken string, expiresAt time.Time) (*models.User, error) {
	var existing models.User
	err := s.db.WithContext(ctx).
		Where("airtable_user_id = ?", airtableUserID).
		First(&existing).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		user := models.User{
			AirtableUserID: airtableUserID,
			Email:          email,
			Name:           name,
			AccessToken:    accessToken,
			RefreshToken:   refreshToken,
			TokenExpiresAt: expiresAt,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}

	updates := map[string]interface{}{
		"email":            email,
		"name":             name,
		"access_token":     accessToken,
		"refresh_token":    refreshToken,
		"token_expires_at": expiresAt,
		"updated_at":       time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
