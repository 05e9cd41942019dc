/*
 * Webhook payload authentication.
 *
 * Incoming webhook events carry an HMAC-SHA256 signature over the raw
 * request body, computed with a shared secret identified by secret ID.
 * Signature format: v1=<secret_id>:<hex_mac>. Secrets load from the
 * environment at startup; multiple registered secrets allow rotation
 * without a deploy window.
 */
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Verifier checks webhook signatures against a set of registered secrets.
type Verifier struct {
	secrets map[string][]byte
}

// NewVerifier builds a verifier over secret_id -> secret bytes.
func NewVerifier(secrets map[string][]byte) *Verifier {
	return &Verifier{secrets: secrets}
}

// HasSecrets reports whether any secrets are registered.
func (v *Verifier) HasSecrets() bool {
	return len(v.secrets) > 0
}

// Verify checks the signature header against the raw request body.
// Returns nil only when the signature matches the secret it names.
func (v *Verifier) Verify(signature string, body []byte) error {
	if signature == "" {
		return ErrMissingSignature
	}

	secretID, mac, err := ParseSignature(signature)
	if err != nil {
		return err
	}

	secret, ok := v.secrets[secretID]
	if !ok {
		return ErrUnknownSecret
	}

	expected := ComputeHMAC(secret, body)
	// Constant-time comparison prevents timing attacks
	if !hmac.Equal(expected, mac) {
		return ErrInvalidSignature
	}
	return nil
}

// ParseSignature extracts secret_id and MAC bytes from signature format.
// Format: v1=<secret_id>:<hex_mac>.
func ParseSignature(signature string) (secretID string, mac []byte, err error) {
	value, ok := strings.CutPrefix(signature, "v1=")
	if !ok {
		return "", nil, ErrInvalidFormat
	}

	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return "", nil, ErrInvalidFormat
	}

	secretID = parts[0]
	// Validate secret_id is 32 hex chars (UUID without hyphens)
	if len(secretID) != 32 {
		return "", nil, ErrInvalidFormat
	}
	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, ErrInvalidFormat
		}
	}

	mac, err = hex.DecodeString(parts[1])
	if err != nil {
		return "", nil, ErrInvalidFormat
	}
	if len(mac) != sha256.Size {
		return "", nil, ErrInvalidFormat
	}

	return secretID, mac, nil
}

// ComputeHMAC computes the HMAC-SHA256 of the request body.
func ComputeHMAC(secret, body []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(body)
	return h.Sum(nil)
}

// FormatSignature constructs the signature header value from components.
// Used by senders and in tests.
func FormatSignature(secretID string, mac []byte) string {
	return fmt.Sprintf("v1=%s:%s", secretID, hex.EncodeToString(mac))
}
