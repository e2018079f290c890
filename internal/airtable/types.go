package airtable

import "encoding/json"

// Base is one Airtable base the authenticated user can see.
type Base struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PermissionLevel string `json:"permissionLevel"`
}

type Table struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

type Field struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Options json.RawMessage `json:"options,omitempty"`
}

// UserProfile is the /meta/whoami response.
type UserProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreatedRecord is the response to a record create call.
type CreatedRecord struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

// WebhookCreated is the response to a webhook registration call.
type WebhookCreated struct {
	ID              string `json:"id"`
	MACSecretBase64 string `json:"macSecretBase64"`
	ExpirationTime  string `json:"expirationTime"`
}

// PayloadsPage is one page of the cursor-paginated webhook payloads
// endpoint. Cursor is the next unread position; MightHaveMore signals
// that another page should be fetched with that cursor.
type PayloadsPage struct {
	Cursor        int       `json:"cursor"`
	MightHaveMore bool      `json:"mightHaveMore"`
	Payloads      []Payload `json:"payloads"`
}

// Payload is one change notification payload. Depending on API version
// and table configuration Airtable reports changes either as a list of
// changed tables with full record snapshots (ChangedTables) or as nested
// maps keyed by table and record id (ChangedTablesByID). Both may appear.
type Payload struct {
	Timestamp             string                  `json:"timestamp,omitempty"`
	BaseTransactionNumber int                     `json:"baseTransactionNumber,omitempty"`
	ChangedTables         []ChangedTable          `json:"changedTables,omitempty"`
	ChangedTablesByID     map[string]TableChanges `json:"changedTablesById,omitempty"`
}

type ChangedTable struct {
	ID      string          `json:"id"`
	Records []ChangedRecord `json:"records"`
}

// ChangedRecord is a record entry in the list shape: a full snapshot
// plus an optional deletion marker.
type ChangedRecord struct {
	ID string `json:"id"`
	RecordSnapshot
	Deleted    bool   `json:"deleted,omitempty"`
	ChangeType string `json:"changeType,omitempty"`
}

type TableChanges struct {
	ChangedRecordsByID map[string]RecordChange `json:"changedRecordsById"`
}

// RecordChange is a change entry in the map shape. Current carries the
// snapshot for creates and updates and is absent for deletions; some
// payload variants flatten the snapshot into the change object itself.
type RecordChange struct {
	Current *RecordSnapshot `json:"current,omitempty"`
	RecordSnapshot
	Deleted    bool   `json:"deleted,omitempty"`
	ChangeType string `json:"changeType,omitempty"`
}

// RecordSnapshot holds a record's field values in whichever of the three
// wire representations the payload used. Field-id keys are stable;
// display-name keys are not.
type RecordSnapshot struct {
	CellValuesByFieldID map[string]interface{} `json:"cellValuesByFieldId,omitempty"`
	CellValues          map[string]interface{} `json:"cellValues,omitempty"`
	Fields              map[string]interface{} `json:"fields,omitempty"`
}

// Values returns the preferred field-value representation:
// field-id-keyed over name-keyed, never nil.
func (s *RecordSnapshot) Values() map[string]interface{} {
	switch {
	case s.CellValuesByFieldID != nil:
		return s.CellValuesByFieldID
	case s.CellValues != nil:
		return s.CellValues
	case s.Fields != nil:
		return s.Fields
	default:
		return map[string]interface{}{}
	}
}

// Empty reports whether the snapshot carries no field values in any
// representation.
func (s *RecordSnapshot) Empty() bool {
	return s.CellValuesByFieldID == nil && s.CellValues == nil && s.Fields == nil
}
