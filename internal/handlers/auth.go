package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/airtable"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/auth"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/store"
)

const (
	stateCookie    = "oauth_state"
	verifierCookie = "code_verifier"
)

// AuthHandler implements the Airtable OAuth login flow (authorization
// code + PKCE) and issues session tokens.
type AuthHandler struct {
	OAuth     *oauth2.Config
	JWTSecret string
	Users     *store.UserStore
	Airtable  *airtable.Client
	Logger    *zap.Logger
}

func NewAuthHandler(oauthCfg *oauth2.Config, jwtSecret string, users *store.UserStore, client *airtable.Client, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		OAuth:     oauthCfg,
		JWTSecret: jwtSecret,
		Users:     users,
		Airtable:  client,
		Logger:    logger,
	}
}

// Login handles GET /auth/airtable/login: generate state and PKCE
// verifier, park both in cookies, redirect to Airtable.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	c.Cookie(&fiber.Cookie{Name: stateCookie, Value: state, HTTPOnly: true})
	c.Cookie(&fiber.Cookie{Name: verifierCookie, Value: verifier, HTTPOnly: true})

	url := h.OAuth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return c.Redirect(url, fiber.StatusFound)
}

// Callback handles GET /auth/airtable/callback: exchange the code,
// fetch the user profile, upsert the user, issue a session token.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	if errParam := c.Query("error"); errParam != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Airtable error: " + errParam + " - " + c.Query("error_description"),
		})
	}

	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing ?code from Airtable",
		})
	}

	if state := c.Query("state"); state == "" || state != c.Cookies(stateCookie) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "OAuth state mismatch",
		})
	}

	verifier := c.Cookies(verifierCookie)
	if verifier == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing code_verifier cookie for PKCE",
		})
	}

	token, err := h.OAuth.Exchange(c.UserContext(), code, oauth2.VerifierOption(verifier))
	if err != nil {
		h.Logger.Error("OAuth token exchange failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to exchange authorization code",
		})
	}

	profile, err := h.Airtable.WhoAmI(c.UserContext(), token.AccessToken)
	if err != nil {
		h.Logger.Error("Failed to fetch Airtable user profile", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch Airtable user profile",
		})
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().UTC().Add(time.Hour)
	}

	user, err := h.Users.UpsertFromOAuth(c.UserContext(),
		profile.ID, profile.Email, profile.Name,
		token.AccessToken, token.RefreshToken, expiresAt,
	)
	if err != nil {
		h.Logger.Error("Failed to upsert user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store user",
		})
	}

	sessionToken, err := auth.MintToken(h.JWTSecret, user.ID)
	if err != nil {
		h.Logger.Error("Failed to mint session token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}

	return c.JSON(fiber.Map{
		"token": sessionToken,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}
