// Package webhook authenticates identity provider webhook deliveries.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"funnelhq.app/portal/internal/domain"
)

var (
	ErrMissingHeaders   = errors.New("missing webhook headers")
	ErrMisconfigured    = errors.New("webhook signing secret not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)

const (
	DefaultTolerance = 5 * time.Minute
	secretPrefix     = "whsec_"
	signatureVersion = "v1"
)

// Headers carries the three signature headers of a delivery.
type Headers struct {
	MessageID string
	Timestamp string
	Signature string
}

// HeadersFrom reads the standard webhook-* headers, falling back to the svix-* names.
func HeadersFrom(h http.Header) Headers {
	pick := func(names ...string) string {
		for _, name := range names {
			if v := strings.TrimSpace(h.Get(name)); v != "" {
				return v
			}
		}
		return ""
	}
	return Headers{
		MessageID: pick("webhook-id", "svix-id"),
		Timestamp: pick("webhook-timestamp", "svix-timestamp"),
		Signature: pick("webhook-signature", "svix-signature"),
	}
}

type Verifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance, now: time.Now}
}

// WithClock overrides the clock used for the timestamp window.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Verify authenticates body against headers and decodes the envelope.
// The payload is only parsed after the signature matched.
func (v *Verifier) Verify(body []byte, headers Headers) (*domain.IdentityEvent, error) {
	if v.secret == "" {
		return nil, ErrMisconfigured
	}
	key, err := decodeSecret(v.secret)
	if err != nil {
		return nil, err
	}

	if headers.MessageID == "" || headers.Timestamp == "" || headers.Signature == "" {
		return nil, ErrMissingHeaders
	}

	ts, err := strconv.ParseInt(headers.Timestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
	}
	delta := v.now().Sub(time.Unix(ts, 0))
	if delta < 0 {
		delta = -delta
	}
	if delta > v.tolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	expected := Sign(key, headers.MessageID, headers.Timestamp, body)
	if !matchesAny(headers.Signature, expected) {
		return nil, ErrInvalidSignature
	}

	var event domain.IdentityEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedPayload)
	}
	event.MessageID = headers.MessageID
	event.ReceivedAt = v.now()
	return &event, nil
}

// Sign returns the base64 HMAC-SHA256 of "msgID.timestamp.body".
func Sign(key []byte, msgID, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(msgID))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// matchesAny checks every "v1,<sig>" entry so a rotated secret keeps verifying.
func matchesAny(header, expected string) bool {
	matched := false
	for _, entry := range strings.Fields(header) {
		version, sig, ok := strings.Cut(entry, ",")
		if !ok || version != signatureVersion {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			matched = true
		}
	}
	return matched
}

func decodeSecret(secret string) ([]byte, error) {
	if !strings.HasPrefix(secret, secretPrefix) {
		return []byte(secret), nil
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, secretPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: secret is not valid base64", ErrMisconfigured)
	}
	return key, nil
}
