package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
)

const testNotificationURL = "https://forms.example.com/webhooks/airtable"

func seedRegistration(t *testing.T, s *RegistrationStore, webhookID string, cursor int) *models.WebhookRegistration {
	t.Helper()
	reg, err := s.UpsertFromCreate(context.Background(), webhookID, "c2VjcmV0", testNotificationURL, "appTest", nil)
	require.NoError(t, err)
	if cursor > 1 {
		require.NoError(t, s.AdvanceCursor(context.Background(), reg.ID, cursor, time.Now().UTC()))
	}
	return reg
}

func TestAdvanceCursorOnlyMovesForward(t *testing.T) {
	s := NewRegistrationStore(setupDB(t))
	ctx := context.Background()
	reg := seedRegistration(t, s, "achA", 5)

	require.NoError(t, s.AdvanceCursor(ctx, reg.ID, 9, time.Now().UTC()))
	got, err := s.FindActive(ctx, testNotificationURL)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 9, got.CursorForNextPayload)

	// A stale advance (an overlapping run finishing late) must not
	// roll the cursor back.
	require.NoError(t, s.AdvanceCursor(ctx, reg.ID, 7, time.Now().UTC()))
	got, err = s.FindActive(ctx, testNotificationURL)
	require.NoError(t, err)
	assert.Equal(t, 9, got.CursorForNextPayload)
}

func TestAdvanceCursorRecordsFetchTime(t *testing.T) {
	s := NewRegistrationStore(setupDB(t))
	ctx := context.Background()
	reg := seedRegistration(t, s, "achA", 1)

	fetchedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.AdvanceCursor(ctx, reg.ID, 3, fetchedAt))

	got, err := s.FindActive(ctx, testNotificationURL)
	require.NoError(t, err)
	require.NotNil(t, got.LastPayloadFetchTime)
	assert.WithinDuration(t, fetchedAt, *got.LastPayloadFetchTime, time.Second)
}

func TestFindActiveNoRegistrations(t *testing.T) {
	s := NewRegistrationStore(setupDB(t))

	got, err := s.FindActive(context.Background(), testNotificationURL)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindActiveFallsBackAcrossURLs(t *testing.T) {
	// A registration created before the public URL changed should
	// still be found.
	s := NewRegistrationStore(setupDB(t))
	ctx := context.Background()
	_, err := s.UpsertFromCreate(ctx, "achOld", "", "https://old.example.com/hook", "appTest", nil)
	require.NoError(t, err)

	got, err := s.FindActive(ctx, testNotificationURL)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "achOld", got.WebhookID)
}

func TestFindActiveOmitsSecret(t *testing.T) {
	s := NewRegistrationStore(setupDB(t))
	ctx := context.Background()
	seedRegistration(t, s, "achA", 1)

	got, err := s.FindActive(ctx, testNotificationURL)
	require.NoError(t, err)
	assert.Empty(t, got.MACSecretBase64)

	withSecret, err := s.FindActiveWithSecret(ctx, testNotificationURL)
	require.NoError(t, err)
	assert.Equal(t, "c2VjcmV0", withSecret.MACSecretBase64)
	assert.Equal(t, []byte("secret"), withSecret.MACSecret())
}

func TestUpsertFromCreateRefreshesExisting(t *testing.T) {
	s := NewRegistrationStore(setupDB(t))
	ctx := context.Background()
	first := seedRegistration(t, s, "achA", 5)

	// Re-registering the same webhook refreshes the secret but keeps
	// the row and its cursor.
	exp := time.Now().UTC().Add(7 * 24 * time.Hour)
	second, err := s.UpsertFromCreate(ctx, "achA", "bmV3", testNotificationURL, "appTest", &exp)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := s.FindActiveWithSecret(ctx, testNotificationURL)
	require.NoError(t, err)
	assert.Equal(t, "bmV3", got.MACSecretBase64)
	assert.Equal(t, 5, got.CursorForNextPayload)
}

func TestDeactivateHidesRegistration(t *testing.T) {
	s := NewRegistrationStore(setupDB(t))
	ctx := context.Background()
	seedRegistration(t, s, "achA", 1)

	require.NoError(t, s.Deactivate(ctx, "achA"))
	got, err := s.FindActive(ctx, testNotificationURL)
	require.NoError(t, err)
	assert.Nil(t, got)
}
