package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/airtable"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
)

func testRegistration(cursor int) *models.WebhookRegistration {
	return &models.WebhookRegistration{
		ID:                   uuid.New(),
		WebhookID:            "achTest",
		BaseID:               "appTest",
		NotificationURL:      "https://example.com/webhooks/airtable",
		CursorForNextPayload: cursor,
		HookEnabled:          true,
	}
}

func newTestOrchestrator(regs *fakeRegistrationStore, fetcher *scriptedFetcher, forms *fakeFormStore, responses *memResponseStore, maxPages int) *Orchestrator {
	logger := zap.NewNop()
	return NewOrchestrator(
		regs,
		fetcher,
		NewMapper(forms, logger),
		NewUpserter(responses, logger),
		"https://example.com/webhooks/airtable",
		"appFallback",
		maxPages,
		logger,
	)
}

func changePage(cursor int, mightHaveMore bool, recordID, fieldID string, value interface{}) *airtable.PayloadsPage {
	return &airtable.PayloadsPage{
		Cursor:        cursor,
		MightHaveMore: mightHaveMore,
		Payloads: []airtable.Payload{{
			ChangedTablesByID: map[string]airtable.TableChanges{
				"tblA": {ChangedRecordsByID: map[string]airtable.RecordChange{
					recordID: {Current: &airtable.RecordSnapshot{
						CellValuesByFieldID: map[string]interface{}{fieldID: value},
					}},
				}},
			},
		}},
	}
}

func TestRunWalksAllPagesAndApplies(t *testing.T) {
	form := testForm("tblA")
	regs := &fakeRegistrationStore{reg: testRegistration(5)}
	fetcher := &scriptedFetcher{pages: map[int]*airtable.PayloadsPage{
		5: changePage(7, true, "rec1", "fld1", "first"),
		7: changePage(9, false, "rec1", "fld1", "x"),
	}}
	responses := newMemResponseStore()
	orch := newTestOrchestrator(regs, fetcher, &fakeFormStore{byTableID: map[string]*models.Form{"tblA": form}}, responses, 50)

	require.NoError(t, orch.Run(context.Background()))

	assert.Equal(t, []int{5, 7}, fetcher.fetched)
	// Every fetched page's cursor was persisted, in order.
	assert.Equal(t, []int{7, 9}, regs.cursors)
	assert.Equal(t, 9, regs.reg.CursorForNextPayload)

	r := responses.byRecordID["rec1"]
	require.NotNil(t, r)
	assert.Equal(t, "x", r.Answers["q1"])
}

func TestRunFetchFailureLeavesCursorUntouched(t *testing.T) {
	regs := &fakeRegistrationStore{reg: testRegistration(5)}
	fetcher := &scriptedFetcher{err: fmt.Errorf("upstream 503")}
	orch := newTestOrchestrator(regs, fetcher, &fakeFormStore{}, newMemResponseStore(), 50)

	// Transient upstream failures end the run without surfacing an
	// error; the next ping retries from the same cursor.
	require.NoError(t, orch.Run(context.Background()))
	assert.Empty(t, regs.cursors)
	assert.Equal(t, 5, regs.reg.CursorForNextPayload)
}

func TestRunCursorPersistedBeforeProcessing(t *testing.T) {
	// A record whose store write fails must not roll the cursor back:
	// the page is already consumed upstream.
	form := testForm("tblA")
	regs := &fakeRegistrationStore{reg: testRegistration(5)}
	fetcher := &scriptedFetcher{pages: map[int]*airtable.PayloadsPage{
		5: changePage(6, false, "rec1", "fld1", "x"),
	}}
	responses := newMemResponseStore()
	responses.failCreate = true
	orch := newTestOrchestrator(regs, fetcher, &fakeFormStore{byTableID: map[string]*models.Form{"tblA": form}}, responses, 50)

	require.NoError(t, orch.Run(context.Background()))
	assert.Equal(t, []int{6}, regs.cursors)
	assert.Empty(t, responses.byRecordID)
}

func TestRunStopsAtPageCap(t *testing.T) {
	// A provider that never stops claiming mightHaveMore must not spin
	// the loop forever.
	regs := &fakeRegistrationStore{reg: testRegistration(1)}
	pages := map[int]*airtable.PayloadsPage{}
	for c := 1; c <= 100; c++ {
		pages[c] = &airtable.PayloadsPage{Cursor: c + 1, MightHaveMore: true}
	}
	fetcher := &scriptedFetcher{pages: pages}
	orch := newTestOrchestrator(regs, fetcher, &fakeFormStore{}, newMemResponseStore(), 3)

	require.NoError(t, orch.Run(context.Background()))
	assert.Len(t, fetcher.fetched, 3)
	// Progress made before the cap stays persisted.
	assert.Equal(t, 4, regs.reg.CursorForNextPayload)
}

func TestRunWithoutRegistrationIsNoOp(t *testing.T) {
	regs := &fakeRegistrationStore{}
	fetcher := &scriptedFetcher{}
	orch := newTestOrchestrator(regs, fetcher, &fakeFormStore{}, newMemResponseStore(), 50)

	require.NoError(t, orch.Run(context.Background()))
	assert.Empty(t, fetcher.fetched)
}

func TestRunDeletionTombstones(t *testing.T) {
	form := testForm("tblA")
	regs := &fakeRegistrationStore{reg: testRegistration(1)}
	responses := newMemResponseStore()
	responses.byRecordID["rec1"] = &models.Response{
		ID:               uuid.New(),
		AirtableRecordID: "rec1",
		Answers:          map[string]interface{}{"q1": "x"},
	}

	fetcher := &scriptedFetcher{pages: map[int]*airtable.PayloadsPage{
		1: {
			Cursor: 2,
			Payloads: []airtable.Payload{{
				ChangedTablesByID: map[string]airtable.TableChanges{
					"tblA": {ChangedRecordsByID: map[string]airtable.RecordChange{
						"rec1": {}, // no current snapshot: a deletion
					}},
				},
			}},
		},
	}}
	orch := newTestOrchestrator(regs, fetcher, &fakeFormStore{byTableID: map[string]*models.Form{"tblA": form}}, responses, 50)

	require.NoError(t, orch.Run(context.Background()))
	r := responses.byRecordID["rec1"]
	require.NotNil(t, r)
	assert.True(t, r.DeletedInAirtable)
	assert.Equal(t, "x", r.Answers["q1"])
}
