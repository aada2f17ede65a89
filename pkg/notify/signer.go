package notify

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Headers set on every listener delivery.
const (
	SignatureHeader = "X-Wordwise-Signature-256"
	TimestampHeader = "X-Wordwise-Timestamp"
	EventHeader     = "X-Wordwise-Event"
	DeliveryHeader  = "X-Wordwise-Delivery"
)

// MaxSignatureAge bounds how old a timestamp Verify accepts.
const MaxSignatureAge = 5 * time.Minute

// Sign returns "sha256=<hex>" over "<unix timestamp>.<payload>".
func Sign(secret string, ts time.Time, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts.Unix(), 10)))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature and the freshness of its timestamp header value.
func Verify(secret, timestamp string, payload []byte, signature string, now time.Time) bool {
	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	ts := time.Unix(unix, 0)
	if age := now.Sub(ts); age > MaxSignatureAge || age < -MaxSignatureAge {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, ts, payload)), []byte(signature))
}

// GenerateSecret returns a random 32-byte hex secret.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
