package hmacsig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// CanonicalRequest builds the exact string a caller signs. The body hash is
// computed over the raw wire bytes, never a re-serialization of parsed
// fields, so any single-byte difference invalidates the signature.
func CanonicalRequest(timestamp, method, path string, body []byte) string {
	sum := sha256.Sum256(body)
	return timestamp + "\n" + strings.ToUpper(method) + "\n" + path + "\n" + hex.EncodeToString(sum[:])
}

// Sign computes the lower-case hex HMAC-SHA256 of the canonical string.
func Sign(secret, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares it in constant time.
func Verify(secret, canonical, signatureHex string) bool {
	supplied, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(signatureHex)))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hmac.Equal(mac.Sum(nil), supplied)
}

// SignRequest is the caller-side helper: it derives the canonical string and
// returns the signature for the given request parts.
func SignRequest(secret string, timestamp int64, method, path string, body []byte) string {
	return Sign(secret, CanonicalRequest(fmt.Sprintf("%d", timestamp), method, path, body))
}
