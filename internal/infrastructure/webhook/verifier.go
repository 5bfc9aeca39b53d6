package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/finflow/backend/internal/domain/shared"
)

// Verifier authenticates inbound webhook payloads with HMAC-SHA256 over
// the exact raw request bytes. An empty secret fails closed: every
// request is rejected rather than accepted unverified.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the given shared secret
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the provider signature against the raw body. The expected
// signature is hex-encoded; comparison is constant-time.
func (v *Verifier) Verify(body []byte, signature string) error {
	if len(v.secret) == 0 {
		return shared.ErrUnauthorized
	}
	if signature == "" {
		return shared.ErrUnauthorized
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return shared.ErrUnauthorized
	}
	return nil
}

// Sign computes the hex signature for a body, used by tests and by the
// outbound simulator.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
