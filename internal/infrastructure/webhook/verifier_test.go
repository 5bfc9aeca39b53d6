package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifierRoundTrip(t *testing.T) {
	v := NewVerifier("whsec_test")
	body := []byte(`{"amount":"3243.00","currency":"CHF"}`)

	sig := v.Sign(body)
	require.NoError(t, v.Verify(body, sig))
}

func TestVerifierRejectsTamperedBody(t *testing.T) {
	v := NewVerifier("whsec_test")
	sig := v.Sign([]byte(`{"amount":"3243.00"}`))

	assert.Error(t, v.Verify([]byte(`{"amount":"9999.00"}`), sig))
}

func TestVerifierRejectsMissingSignature(t *testing.T) {
	v := NewVerifier("whsec_test")
	assert.Error(t, v.Verify([]byte(`{}`), ""))
}

func TestVerifierFailsClosedWithoutSecret(t *testing.T) {
	v := NewVerifier("")
	body := []byte(`{}`)
	// even a signature computed over the empty secret is rejected
	sig := NewVerifier("").Sign(body)
	assert.Error(t, v.Verify(body, sig))
}

func TestVerifierRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"amount":"100"}`)
	sig := NewVerifier("other_secret").Sign(body)
	assert.Error(t, NewVerifier("whsec_test").Verify(body, sig))
}
