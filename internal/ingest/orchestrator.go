package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/airtable"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/models"
)

// Task is the queue message that triggers one ingestion run.
type Task struct {
	WebhookID string `json:"webhook_id"`
}

// RegistrationStore is the registration collaborator: resolve the active
// registration and persist cursor state.
type RegistrationStore interface {
	// FindActive returns the active registration for the notification
	// URL, falling back to any non-deleted registration. (nil, nil)
	// when none exist.
	FindActive(ctx context.Context, notificationURL string) (*models.WebhookRegistration, error)
	// AdvanceCursor persists a new cursor and fetch timestamp. The
	// stored cursor must never move backwards, whatever order
	// overlapping runs land in.
	AdvanceCursor(ctx context.Context, id uuid.UUID, cursor int, fetchedAt time.Time) error
}

// PayloadFetcher pulls one page of change payloads.
type PayloadFetcher interface {
	ListWebhookPayloads(ctx context.Context, baseID, webhookID string, cursor int) (*airtable.PayloadsPage, error)
}

// Orchestrator turns "a ping happened" into "local state matches
// Airtable", tolerating partial failure at every step. Nothing it does
// surfaces an error to the provider; failures end the current run and
// the next ping retries from the persisted cursor.
type Orchestrator struct {
	registrations   RegistrationStore
	fetcher         PayloadFetcher
	mapper          *Mapper
	upserter        *Upserter
	logger          *zap.Logger
	notificationURL string
	defaultBaseID   string
	maxPages        int
}

func NewOrchestrator(
	registrations RegistrationStore,
	fetcher PayloadFetcher,
	mapper *Mapper,
	upserter *Upserter,
	notificationURL string,
	defaultBaseID string,
	maxPages int,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		registrations:   registrations,
		fetcher:         fetcher,
		mapper:          mapper,
		upserter:        upserter,
		logger:          logger,
		notificationURL: notificationURL,
		defaultBaseID:   defaultBaseID,
		maxPages:        maxPages,
	}
}

// Run executes one ingestion invocation: resolve the registration, then
// fetch, apply and advance page by page until the provider reports no
// more, a fetch fails, or the page cap is hit.
//
// The cursor is persisted after each successful fetch and before the
// page's contents are processed. A crash mid-page therefore re-fetches
// nothing but may re-apply one already-fetched page; the upserter's
// idempotence absorbs that. At-least-once, not exactly-once.
func (o *Orchestrator) Run(ctx context.Context) error {
	reg, err := o.registrations.FindActive(ctx, o.notificationURL)
	if err != nil {
		return err
	}
	if reg == nil {
		o.logger.Warn("No webhook registration found, nothing to ingest")
		return nil
	}

	baseID := reg.BaseID
	if baseID == "" {
		baseID = o.defaultBaseID
	}

	cursor := reg.CursorForNextPayload
	for page := 0; ; page++ {
		if page >= o.maxPages {
			// Guard against a misbehaving provider chaining
			// mightHaveMore forever. Cursor stays at the last
			// persisted value; the next ping picks up from there.
			o.logger.Error("Pagination cap exceeded, aborting ingestion run",
				zap.String("webhook_id", reg.WebhookID),
				zap.Int("max_pages", o.maxPages),
				zap.Int("cursor", cursor),
			)
			return nil
		}

		resp, err := o.fetcher.ListWebhookPayloads(ctx, baseID, reg.WebhookID, cursor)
		if err != nil {
			// Transient upstream failure. The cursor is untouched,
			// so the next trigger retries this exact page.
			o.logger.Error("Failed to fetch webhook payloads",
				zap.String("webhook_id", reg.WebhookID),
				zap.Int("cursor", cursor),
				zap.Error(err),
			)
			return nil
		}

		if resp.Cursor > 0 {
			if err := o.registrations.AdvanceCursor(ctx, reg.ID, resp.Cursor, time.Now().UTC()); err != nil {
				o.logger.Error("Failed to persist webhook cursor",
					zap.String("webhook_id", reg.WebhookID),
					zap.Int("cursor", resp.Cursor),
					zap.Error(err),
				)
			}
		}

		o.processPage(ctx, resp.Payloads)

		if !resp.MightHaveMore {
			o.logger.Info("Payload sync finished",
				zap.String("webhook_id", reg.WebhookID),
				zap.Int("pages", page+1),
				zap.Int("cursor", resp.Cursor),
			)
			return nil
		}
		if resp.Cursor > 0 {
			cursor = resp.Cursor
		}
	}
}

// processPage applies every record of every payload in the page. One
// record's failure must not abort its siblings.
func (o *Orchestrator) processPage(ctx context.Context, payloads []airtable.Payload) {
	for i := range payloads {
		for _, rec := range ExtractChangedRecords(&payloads[i]) {
			if err := o.applyRecord(ctx, rec); err != nil {
				o.logger.Error("Failed to apply changed record",
					zap.String("record_id", rec.ID),
					zap.String("table_id", rec.TableID),
					zap.Error(err),
				)
			}
		}
	}
}

func (o *Orchestrator) applyRecord(ctx context.Context, rec ChangedRecord) error {
	if rec.Deleted {
		return o.upserter.Delete(ctx, rec.ID)
	}

	mapped, err := o.mapper.Map(ctx, rec)
	if err != nil {
		return err
	}
	if mapped == nil {
		return nil
	}
	return o.upserter.Apply(ctx, mapped)
}
