package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/airtable"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
)

// fakeFormStore serves a fixed set of forms keyed by Airtable table id.
type fakeFormStore struct {
	byTableID map[string]*models.Form
	any       *models.Form
}

func (f *fakeFormStore) FindByTableID(ctx context.Context, tableID string) (*models.Form, error) {
	return f.byTableID[tableID], nil
}

func (f *fakeFormStore) FindAny(ctx context.Context) (*models.Form, error) {
	return f.any, nil
}

// memResponseStore is an in-memory ResponseStore keyed by Airtable
// record id.
type memResponseStore struct {
	byRecordID map[string]*models.Response
	failCreate bool
}

func newMemResponseStore() *memResponseStore {
	return &memResponseStore{byRecordID: map[string]*models.Response{}}
}

func (m *memResponseStore) FindByRecordID(ctx context.Context, recordID string) (*models.Response, error) {
	r, ok := m.byRecordID[recordID]
	if !ok {
		return nil, nil
	}
	clone := *r
	cloneAnswers := make(map[string]interface{}, len(r.Answers))
	for k, v := range r.Answers {
		cloneAnswers[k] = v
	}
	clone.Answers = cloneAnswers
	return &clone, nil
}

func (m *memResponseStore) Create(ctx context.Context, r *models.Response) error {
	if m.failCreate {
		return fmt.Errorf("create rejected")
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	clone := *r
	m.byRecordID[r.AirtableRecordID] = &clone
	return nil
}

func (m *memResponseStore) UpdateAnswers(ctx context.Context, id uuid.UUID, answers map[string]interface{}, deletedInAirtable bool) error {
	for _, r := range m.byRecordID {
		if r.ID == id {
			r.Answers = answers
			r.DeletedInAirtable = deletedInAirtable
			return nil
		}
	}
	return fmt.Errorf("no response with id %s", id)
}

func (m *memResponseStore) MarkDeleted(ctx context.Context, recordID string) (bool, error) {
	r, ok := m.byRecordID[recordID]
	if !ok {
		return false, nil
	}
	r.DeletedInAirtable = true
	return true, nil
}

// fakeRegistrationStore records cursor advances for a single
// registration.
type fakeRegistrationStore struct {
	reg     *models.WebhookRegistration
	cursors []int
}

func (f *fakeRegistrationStore) FindActive(ctx context.Context, notificationURL string) (*models.WebhookRegistration, error) {
	return f.reg, nil
}

func (f *fakeRegistrationStore) AdvanceCursor(ctx context.Context, id uuid.UUID, cursor int, fetchedAt time.Time) error {
	f.cursors = append(f.cursors, cursor)
	if f.reg != nil && cursor > f.reg.CursorForNextPayload {
		f.reg.CursorForNextPayload = cursor
	}
	return nil
}

// scriptedFetcher serves pages keyed by the cursor they are requested
// with, and records the cursors it saw.
type scriptedFetcher struct {
	pages   map[int]*airtable.PayloadsPage
	fetched []int
	err     error
}

func (s *scriptedFetcher) ListWebhookPayloads(ctx context.Context, baseID, webhookID string, cursor int) (*airtable.PayloadsPage, error) {
	s.fetched = append(s.fetched, cursor)
	if s.err != nil {
		return nil, s.err
	}
	page, ok := s.pages[cursor]
	if !ok {
		return nil, fmt.Errorf("no payloads at cursor %d", cursor)
	}
	return page, nil
}
