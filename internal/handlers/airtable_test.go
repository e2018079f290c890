package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
)

func TestMapFieldType(t *testing.T) {
	tests := []struct {
		airtableType string
		want         string
	}{
		{"singleLineText", models.QuestionShortText},
		{"url", models.QuestionShortText},
		{"multilineText", models.QuestionLongText},
		{"singleSelect", models.QuestionSingleSelect},
		{"multipleSelects", models.QuestionMultiSelect},
		{"multipleAttachments", models.QuestionAttachment},
		// Unsupported field types are filtered out of question lists.
		{"formula", ""},
		{"number", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mapFieldType(tt.airtableType), tt.airtableType)
	}
}
