package models

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebhookRegistration mirrors one Airtable-side webhook subscription.
// The MAC secret is excluded from default reads (see the registration
// store); the cursor starts at 1 and only ever moves forward. Rows are
// never deleted physically, only deactivated via the Deleted flag.
type WebhookRegistration struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	WebhookID             string     `gorm:"uniqueIndex;not null" json:"webhook_id"`
	MACSecretBase64       string     `gorm:"column:mac_secret_base64" json:"-"`
	NotificationURL       string     `gorm:"not null" json:"notification_url"`
	BaseID                string     `json:"base_id"`
	CursorForNextPayload  int        `gorm:"not null;default:1" json:"cursor_for_next_payload"`
	NotificationsEnabled  bool       `gorm:"default:true" json:"notifications_enabled"`
	HookEnabled           bool       `gorm:"default:true" json:"hook_enabled"`
	ExpirationTime        *time.Time `json:"expiration_time"`
	LastPayloadFetchTime  *time.Time `json:"last_payload_fetch_time"`
	Deleted               bool       `gorm:"default:false;index" json:"deleted"`
	CreatedAt             time.Time  `gorm:"default:now()" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"default:now()" json:"updated_at"`
}

func (WebhookRegistration) TableName() string {
	return "webhook_registrations"
}

func (w *WebhookRegistration) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// MACSecret decodes the stored base64 secret. Returns nil when no secret
// is stored or the stored value is not valid base64.
func (w *WebhookRegistration) MACSecret() []byte {
	if w.MACSecretBase64 == "" {
		return nil
	}
	secret, err := base64.StdEncoding.DecodeString(w.MACSecretBase64)
	if err != nil {
		return nil
	}
	return secret
}
