package signing

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidator_RequiresSecret(t *testing.T) {
	_, err := NewValidator("")
	assert.Error(t, err)

	v, err := NewValidator("topsecret")
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestValidator_Validate_Valid(t *testing.T) {
	v, err := NewValidator("topsecret")
	require.NoError(t, err)

	body := []byte(`{"action":"created"}`)
	headers := http.Header{}
	headers.Set(SignatureHeader, Sign("topsecret", body))

	assert.NoError(t, v.Validate(headers, body))
}

func TestValidator_Validate_MissingHeader(t *testing.T) {
	v, err := NewValidator("topsecret")
	require.NoError(t, err)

	err = v.Validate(http.Header{}, []byte(`{}`))
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestValidator_Validate_MutatedBody(t *testing.T) {
	v, err := NewValidator("topsecret")
	require.NoError(t, err)

	body := []byte(`{"action":"created"}`)
	headers := http.Header{}
	headers.Set(SignatureHeader, Sign("topsecret", body))

	// Flip a single byte and the signature must no longer match.
	for i := range body {
		mutated := append([]byte(nil), body...)
		mutated[i] ^= 0x01
		assert.ErrorIs(t, v.Validate(headers, mutated), ErrInvalidSignature)
	}
}

func TestValidator_Validate_MutatedSignature(t *testing.T) {
	v, err := NewValidator("topsecret")
	require.NoError(t, err)

	body := []byte(`{"action":"created"}`)
	sig := Sign("topsecret", body)

	headers := http.Header{}
	headers.Set(SignatureHeader, sig[:len(sig)-1]+"0")
	if sig[len(sig)-1] == '0' {
		headers.Set(SignatureHeader, sig[:len(sig)-1]+"1")
	}

	assert.ErrorIs(t, v.Validate(headers, body), ErrInvalidSignature)
}

func TestValidator_Validate_WrongSecret(t *testing.T) {
	v, err := NewValidator("topsecret")
	require.NoError(t, err)

	body := []byte(`{"action":"created"}`)
	headers := http.Header{}
	headers.Set(SignatureHeader, Sign("othersecret", body))

	assert.ErrorIs(t, v.Validate(headers, body), ErrInvalidSignature)
}

func TestHeaderAccessors(t *testing.T) {
	headers := http.Header{}
	headers.Set(EventTypeHeader, "issue_comment")
	headers.Set(DeliveryIDHeader, "72d3162e-cc78-11e3-81ab-4c9367dc0958")

	assert.Equal(t, "issue_comment", EventType(headers))
	assert.Equal(t, "72d3162e-cc78-11e3-81ab-4c9367dc0958", DeliveryID(headers))
}
