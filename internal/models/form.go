package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Question types supported by the form builder. Airtable field types
// outside this set are not offered as questions.
const (
	QuestionShortText    = "shortText"
	QuestionLongText     = "longText"
	QuestionSingleSelect = "singleSelect"
	QuestionMultiSelect  = "multiSelect"
	QuestionAttachment   = "attachment"
)

type Form struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OwnerID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner           User           `gorm:"foreignKey:OwnerID" json:"-"`
	AirtableBaseID  string         `gorm:"not null" json:"airtable_base_id"`
	AirtableTableID string         `gorm:"not null;index" json:"airtable_table_id"`
	Title           string         `json:"title"`
	Questions       []FormQuestion `gorm:"foreignKey:FormID" json:"questions"`
	CreatedAt       time.Time      `gorm:"default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"default:now()" json:"updated_at"`
}

func (Form) TableName() string {
	return "forms"
}

func (f *Form) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// FormQuestion binds one Airtable field to one question key. The
// question key is the form-local stable identifier for an answer slot;
// the Airtable field id is the provider-side identifier.
type FormQuestion struct {
	ID               int64          `gorm:"primary_key;autoIncrement" json:"-"`
	FormID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"-"`
	Position         int            `gorm:"not null" json:"position"`
	QuestionKey      string         `gorm:"not null" json:"question_key"`
	AirtableFieldID  string         `gorm:"not null" json:"airtable_field_id"`
	Label            string         `gorm:"not null" json:"label"`
	Type             string         `gorm:"not null" json:"type"`
	Required         bool           `gorm:"default:false" json:"required"`
	ConditionalRules datatypes.JSON `gorm:"type:jsonb" json:"conditional_rules,omitempty"`
}

func (FormQuestion) TableName() string {
	return "form_questions"
}
