package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an Airtable account connected through the OAuth flow.
// Access and refresh tokens are stored so form submissions can write
// records on the user's behalf.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AirtableUserID string    `gorm:"uniqueIndex;not null" json:"airtable_user_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	AccessToken    string    `gorm:"not null" json:"-"`
	RefreshToken   string    `gorm:"not null" json:"-"`
	TokenExpiresAt time.Time `gorm:"not null" json:"token_expires_at"`
	CreatedAt      time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
