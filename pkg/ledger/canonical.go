package ledger

import "encoding/json"

// canonicalize produces a deterministic byte representation of an
// arbitrary payload: encoding/json sorts map keys during marshaling,
// which gives us stable key ordering for free; callers are
// responsible for encoding timestamps as RFC 3339 UTC strings and
// numbers in the form they were received.
func canonicalize(payload map[string]any) ([]byte, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	return json.Marshal(payload)
}

// canonicalizeValue is used for structured values (e.g. the block
// header) that aren't already a map.
func canonicalizeValue(v any) ([]byte, error) {
	return json.Marshal(v)
}
