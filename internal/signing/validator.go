package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
)

const (
	SignatureHeader  = "X-Hub-Signature-256"
	EventTypeHeader  = "X-GitHub-Event"
	DeliveryIDHeader = "X-GitHub-Delivery"

	schemePrefix = "sha256="
)

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Validator verifies inbound GitHub webhook signatures against a shared
// secret. Comparison is constant-time.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) (*Validator, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is required")
	}
	return &Validator{secret: []byte(secret)}, nil
}

func (v *Validator) Validate(headers http.Header, body []byte) error {
	got := headers.Get(SignatureHeader)
	if got == "" {
		return ErrMissingSignature
	}
	if !hmac.Equal([]byte(Sign(string(v.secret), body)), []byte(got)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign computes the signature header value for a raw body. Senders use it
// to produce deliveries this service accepts.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return schemePrefix + hex.EncodeToString(mac.Sum(nil))
}

func EventType(headers http.Header) string {
	return headers.Get(EventTypeHeader)
}

func DeliveryID(headers http.Header) string {
	return headers.Get(DeliveryIDHeader)
}
