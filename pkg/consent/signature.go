package consent

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// SignatureVerifier validates a captured digital_signature against the
// form's consent_text and the submitted user_data. The scheme is
// pluggable; the store depends only on the boolean result.
type SignatureVerifier interface {
	Verify(consentText string, userData map[string]any, signature string) bool
}

// prefixVerifier implements the default (intentionally weak) scheme:
// a signature is valid if it begins with the first 16 hex characters
// of SHA256(consent_text || canonical(user_data)).
type prefixVerifier struct{}

// NewPrefixVerifier returns the default 16-char hash-prefix verifier.
// A real deployment should replace it with a public-key scheme behind
// the same interface.
func NewPrefixVerifier() SignatureVerifier { return prefixVerifier{} }

func (prefixVerifier) Verify(consentText string, userData map[string]any, signature string) bool {
	canon, err := json.Marshal(userData)
	if err != nil {
		return false
	}
	sum := sha256.Sum256(append([]byte(consentText), canon...))
	want := hex.EncodeToString(sum[:])[:16]
	if len(signature) < 16 {
		return false
	}
	got := strings.ToLower(signature[:16])
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
