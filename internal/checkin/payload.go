// Package checkin implements the check-in state machine: token
// normalization, event scoping, and the at-most-once admission decision.
package checkin

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrMalformedToken is returned when a scanned payload yields no usable
// token. The resolver treats it as NOT_FOUND, never as a failure.
var ErrMalformedToken = errors.New("checkin: malformed token payload")

// scanEnvelope is the JSON payload carried by QR codes.
type scanEnvelope struct {
	ID string `json:"id"`
}

// ParseToken extracts the guest token from a scanned payload. The payload
// is either a JSON envelope {"id": "..."} or the bare token itself; some
// scanners decode QR JSON to plain text, so a payload that fails to parse
// as the envelope falls back to being treated as a bare token. The result
// is normalized (trimmed, uppercased) so scanned and hand-typed tokens
// resolve identically.
func ParseToken(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrMalformedToken
	}

	if strings.HasPrefix(trimmed, "{") {
		var env scanEnvelope
		if err := json.Unmarshal([]byte(trimmed), &env); err == nil {
			token := normalize(env.ID)
			if token == "" {
				return "", ErrMalformedToken
			}
			return token, nil
		}
		// Not valid JSON after all; fall through to the bare-token path.
	}

	return normalize(trimmed), nil
}

func normalize(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}
