package ingest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const macPrefix = "hmac-sha256="

// SignBody computes the MAC Airtable attaches to ping deliveries:
// HMAC-SHA256 over the exact raw body bytes, hex encoded, prefixed with
// the algorithm tag.
func SignBody(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return macPrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a claimed MAC header against the raw request
// body using a constant-time comparison. The body must be the exact
// bytes received, not re-serialized JSON.
//
// When no secret is stored or the request carries no MAC header the
// check is skipped and treated as passing. That is a compatibility
// concession carried over from the original registration flow, not a
// hardening decision.
func VerifySignature(secret, body []byte, header string) bool {
	if len(secret) == 0 || header == "" {
		return true
	}
	expected := SignBody(secret, body)
	return hmac.Equal([]byte(expected), []byte(header))
}
