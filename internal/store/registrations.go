package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
)

// registrationColumns are the columns returned by default reads. The MAC
// secret is deliberately absent; callers that need it use the
// *WithSecret variants.
var registrationColumns = []string{
	"id", "webhook_id", "notification_url", "base_id",
	"cursor_for_next_payload", "notifications_enabled", "hook_enabled",
	"expiration_time", "last_payload_fetch_time", "deleted",
	"created_at", "updated_at",
}

type RegistrationStore struct {
	db *gorm.DB
}

func NewRegistrationStore(db *gorm.DB) *RegistrationStore {
	return &RegistrationStore{db: db}
}

// FindActive resolves the registration for an incoming ping: prefer the
// enabled registration for the expected notification URL, fall back to
// any non-deleted registration. Returns (nil, nil) when none exist. The
// secret is not loaded; see FindActiveWithSecret.
func (s *RegistrationStore) FindActive(ctx context.Context, notificationURL string) (*models.WebhookRegistration, error) {
	return s.findActive(ctx, notificationURL, registrationColumns)
}

// FindActiveWithSecret is FindActive including the MAC secret, for
// signature verification only.
func (s *RegistrationStore) FindActiveWithSecret(ctx context.Context, notificationURL string) (*models.WebhookRegistration, error) {
	return s.findActive(ctx, notificationURL, append([]string{"mac_secret_base64"}, registrationColumns...))
}

func (s *RegistrationStore) findActive(ctx context.Context, notificationURL string, columns []string) (*models.WebhookRegistration, error) {
	var reg models.WebhookRegistration
	err := s.db.WithContext(ctx).
		Select(columns).
		Where("notification_url = ? AND deleted = ? AND hook_enabled = ?", notificationURL, false, true).
		First(&reg).Error
	if err == nil {
		return &reg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Select(columns).
		Where("deleted = ?", false).
		First(&reg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// UpsertFromCreate stores or refreshes a registration from an Airtable
// webhook-create response.
func (s *RegistrationStore) UpsertFromCreate(ctx context.Context, webhookID, macSecretBase64, notificationURL, baseID string, expiration *time.Time) (*models.WebhookRegistration, error) {
	var existing models.WebhookRegistration
	err := s.db.WithContext(ctx).
		Where("webhook_id = ?", webhookID).
		First(&existing).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		reg := models.WebhookRegistration{
			WebhookID:            webhookID,
			MACSecretBase64:      macSecretBase64,
			NotificationURL:      notificationURL,
			BaseID:               baseID,
			CursorForNextPayload: 1,
			NotificationsEnabled: true,
			HookEnabled:          true,
			ExpirationTime:       expiration,
		}
		if err := s.db.WithContext(ctx).Create(&reg).Error; err != nil {
			return nil, err
		}
		return &reg, nil
	}

	updates := map[string]interface{}{
		"mac_secret_base64": macSecretBase64,
		"notification_url":  notificationURL,
		"base_id":           baseID,
		"expiration_time":   expiration,
		"deleted":           false,
		"hook_enabled":      true,
		"updated_at":        time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// AdvanceCursor persists a fetched page's next cursor and the fetch
// timestamp. The cursor update is guarded so it can only move forward;
// overlapping runs racing on the same registration settle on the
// furthest cursor without locking.
func (s *RegistrationStore) AdvanceCursor(ctx context.Context, id uuid.UUID, cursor int, fetchedAt time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&models.WebhookRegistration{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_payload_fetch_time": fetchedAt,
			"updated_at":              time.Now().UTC(),
		}).Error
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).
		Model(&models.WebhookRegistration{}).
		Where("id = ? AND cursor_for_next_payload < ?", id, cursor).
		Update("cursor_for_next_payload", cursor).Error
}

// Deactivate soft-deletes a registration. Rows are never removed.
func (s *RegistrationStore) Deactivate(ctx context.Context, webhookID string) error {
	return s.db.WithContext(ctx).
		Model(&models.WebhookRegistration{}).
		Where("webhook_id = ?", webhookID).
		Updates(map[string]interface{}{
			"deleted":    true,
			"updated_at": time.Now().UTC(),
		}).Error
}
