package airtable

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "pat-secret", 5*time.Second, zap.NewNop())
}

func TestListWebhookPayloadsRequest(t *testing.T) {
	var gotPath, gotAuth, gotCursor string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotCursor = r.URL.Query().Get("cursor")
		_ = json.NewEncoder(w).Encode(PayloadsPage{Cursor: 8, MightHaveMore: true})
	})

	page, err := c.ListWebhookPayloads(context.Background(), "appX", "achY", 5)
	require.NoError(t, err)

	assert.Equal(t, "/bases/appX/webhooks/achY/payloads", gotPath)
	// Payload fetches authenticate with the personal token, not a
	// user token.
	assert.Equal(t, "Bearer pat-secret", gotAuth)
	assert.Equal(t, "5", gotCursor)
	assert.Equal(t, 8, page.Cursor)
	assert.True(t, page.MightHaveMore)
}

func TestListWebhookPayloadsUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"INVALID_CURSOR"}`, http.StatusUnprocessableEntity)
	})

	_, err := c.ListWebhookPayloads(context.Background(), "appX", "achY", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "INVALID_CURSOR")
}

func TestCreateRecordUsesUserTokenAndTypecast(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(CreatedRecord{ID: "recNew"})
	})

	rec, err := c.CreateRecord(context.Background(), "appX", "tblY",
		map[string]interface{}{"fld1": "alice"}, "user-token")
	require.NoError(t, err)

	assert.Equal(t, "Bearer user-token", gotAuth)
	assert.Equal(t, true, gotBody["typecast"])
	assert.Equal(t, map[string]interface{}{"fld1": "alice"}, gotBody["fields"])
	assert.Equal(t, "recNew", rec.ID)
}

func TestCreateWebhookScopesToTable(t *testing.T) {
	var gotBody map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(WebhookCreated{
			ID:              "achNew",
			MACSecretBase64: "c2VjcmV0",
			ExpirationTime:  "2026-09-06T00:00:00.000Z",
		})
	})

	created, err := c.CreateWebhook(context.Background(), "appX", "https://forms.example.com/webhooks/airtable", "tblY")
	require.NoError(t, err)
	assert.Equal(t, "achNew", created.ID)
	assert.Equal(t, "c2VjcmV0", created.MACSecretBase64)

	assert.Equal(t, "https://forms.example.com/webhooks/airtable", gotBody["notificationUrl"])
	spec := gotBody["specification"].(map[string]interface{})
	filters := spec["options"].(map[string]interface{})["filters"].(map[string]interface{})
	assert.Equal(t, []interface{}{"tableData"}, filters["dataTypes"])
	assert.Equal(t, "tblY", filters["recordChangeScope"])
}

func TestWhoAmIRejectsMissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"email": "a@b.c"})
	})

	_, err := c.WhoAmI(context.Background(), "user-token")
	require.Error(t, err)
}

func TestListFieldsFindsTable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"tables": []Table{
				{ID: "tblA", Name: "A", Fields: []Field{{ID: "fld1", Name: "Name", Type: "singleLineText"}}},
				{ID: "tblB", Name: "B"},
			},
		})
	})

	fields, err := c.ListFields(context.Background(), "appX", "tblA", "user-token")
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "fld1", fields[0].ID)

	_, err = c.ListFields(context.Background(), "appX", "tblMissing", "user-token")
	require.Error(t, err)
}
