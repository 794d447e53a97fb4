package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// Verify reports whether signature (as received in the X-Signature
// header) is a valid HMAC-SHA256 of payload under partner's secret.
// Comparison is constant-time; an unknown or inactive partner always
// fails verification.
func Verify(partner *Partner, payload []byte, signature string) bool {
	if partner == nil || !partner.Active {
		return false
	}
	hex64, ok := strings.CutPrefix(signature, signaturePrefix)
	if !ok {
		return false
	}

	mac := hmac.New(sha256.New, []byte(partner.Secret))
	mac.Write(payload)
	want := hex.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(want), []byte(hex64)) == 1
}
