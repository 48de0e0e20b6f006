package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// SignatureHeader carries "sha256=<hex HMAC-SHA256 of the raw body>".
const SignatureHeader = "X-Payment-Signature"

var ErrBadSignature = errors.New("payments: missing or invalid event signature")

// Sign returns the SignatureHeader value for body.
func Sign(secret, body []byte) string {
	m := hmac.New(sha256.New, secret)
	m.Write(body)
	return "sha256=" + hex.EncodeToString(m.Sum(nil))
}

// VerifySignature checks header against body. An empty secret verifies nothing.
func VerifySignature(secret, body []byte, header string) error {
	if len(secret) == 0 {
		return ErrBadSignature
	}
	want := Sign(secret, body)
	if !hmac.Equal([]byte(strings.ToLower(strings.TrimSpace(header))), []byte(want)) {
		return ErrBadSignature
	}
	return nil
}
