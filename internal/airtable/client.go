package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Client is an explicitly constructed Airtable API client. Base URL,
// credentials and timeout are fixed at construction so tests can point
// it at a double. The personal access token authenticates webhook
// management and payload fetches; per-user OAuth access tokens are
// passed per call for everything done on a user's behalf.
type Client struct {
	baseURL       string
	personalToken string
	httpClient    *http.Client
	logger        *zap.Logger
}

func NewClient(baseURL, personalToken string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:       baseURL,
		personalToken: personalToken,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

// ListBases returns the bases visible to the given user token.
func (c *Client) ListBases(ctx context.Context, accessToken string) ([]Base, error) {
	var out struct {
		Bases []Base `json:"bases"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/meta/bases", accessToken, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch bases: %w", err)
	}
	return out.Bases, nil
}

// ListTables returns the tables (with field metadata) of a base.
func (c *Client) ListTables(ctx context.Context, baseID, accessToken string) ([]Table, error) {
	var out struct {
		Tables []Table `json:"tables"`
	}
	u := fmt.Sprintf("%s/meta/bases/%s/tables", c.baseURL, url.PathEscape(baseID))
	if err := c.doJSON(ctx, http.MethodGet, u, accessToken, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch tables: %w", err)
	}
	return out.Tables, nil
}

// ListFields returns the fields of one table within a base.
func (c *Client) ListFields(ctx context.Context, baseID, tableID, accessToken string) ([]Field, error) {
	tables, err := c.ListTables(ctx, baseID, accessToken)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if t.ID == tableID {
			return t.Fields, nil
		}
	}
	return nil, fmt.Errorf("table %s not found in base %s", tableID, baseID)
}

// WhoAmI fetches the profile of the user owning the access token.
func (c *Client) WhoAmI(ctx context.Context, accessToken string) (*UserProfile, error) {
	var out UserProfile
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/meta/whoami", accessToken, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("user profile response missing id")
	}
	return &out, nil
}

// CreateRecord creates one record in a table on behalf of a user.
// typecast lets Airtable coerce string answers into select options.
func (c *Client) CreateRecord(ctx context.Context, baseID, tableID string, fields map[string]interface{}, accessToken string) (*CreatedRecord, error) {
	body := map[string]interface{}{
		"fields":   fields,
		"typecast": true,
	}
	var out CreatedRecord
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(baseID), url.PathEscape(tableID))
	if err := c.doJSON(ctx, http.MethodPost, u, accessToken, body, &out); err != nil {
		return nil, fmt.Errorf("failed to create Airtable record: %w", err)
	}
	return &out, nil
}

// CreateWebhook registers a webhook on a base watching tableData changes
// scoped to one table.
func (c *Client) CreateWebhook(ctx context.Context, baseID, notificationURL, tableID string) (*WebhookCreated, error) {
	body := map[string]interface{}{
		"notificationUrl": notificationURL,
		"specification": map[string]interface{}{
			"options": map[string]interface{}{
				"filters": map[string]interface{}{
					"dataTypes":         []string{"tableData"},
					"recordChangeScope": tableID,
				},
			},
		},
	}
	var out WebhookCreated
	u := fmt.Sprintf("%s/bases/%s/webhooks", c.baseURL, url.PathEscape(baseID))
	if err := c.doJSON(ctx, http.MethodPost, u, c.personalToken, body, &out); err != nil {
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}
	return &out, nil
}

// ListWebhookPayloads fetches one page of change payloads for a webhook
// starting at the given cursor.
func (c *Client) ListWebhookPayloads(ctx context.Context, baseID, webhookID string, cursor int) (*PayloadsPage, error) {
	u := fmt.Sprintf("%s/bases/%s/webhooks/%s/payloads?cursor=%s",
		c.baseURL, url.PathEscape(baseID), url.PathEscape(webhookID), strconv.Itoa(cursor))

	var out PayloadsPage
	if err := c.doJSON(ctx, http.MethodGet, u, c.personalToken, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch webhook payloads: %w", err)
	}
	return &out, nil
}

// doJSON performs one authenticated JSON round trip. Non-2xx responses
// are errors carrying the status and a bounded slice of the body.
func (c *Client) doJSON(ctx context.Context, method, url, token string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("airtable returned HTTP %d: %s", resp.StatusCode, string(snippet))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
