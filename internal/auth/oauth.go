package auth

import (
	"golang.org/x/oauth2"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/config"
)

// Scopes requested from Airtable: enough to read schema and read/write
// records on the user's behalf.
var oauthScopes = []string{
	"data.records:read",
	"data.records:write",
	"schema.bases:read",
}

// NewOAuthConfig builds the Airtable OAuth configuration. Airtable
// requires PKCE and authenticates the token exchange with basic client
// credentials.
func NewOAuthConfig(cfg *config.AirtableConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       oauthScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}
