package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Response is the durable record of one form submission, kept in sync
// with the Airtable row it came from. Answers are keyed by question key,
// not by Airtable field id. DeletedInAirtable is a tombstone: once the
// source row is deleted the local copy is retained for audit but marked
// inert.
type Response struct {
	ID                uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FormID            uuid.UUID         `gorm:"type:uuid;not null;index" json:"form_id"`
	Form              Form              `gorm:"foreignKey:FormID" json:"-"`
	AirtableRecordID  string            `gorm:"uniqueIndex;not null" json:"airtable_record_id"`
	Answers           datatypes.JSONMap `gorm:"type:jsonb;not null" json:"answers"`
	DeletedInAirtable bool              `gorm:"default:false" json:"deleted_in_airtable"`
	CreatedAt         time.Time         `gorm:"default:now()" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"default:now()" json:"updated_at"`
}

func (Response) TableName() string {
	return "responses"
}

func (r *Response) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
