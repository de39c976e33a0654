package checkin

import (
	"errors"
	"testing"
)

func TestParseToken(t *testing.T) {
	for _, tc := range []struct {
		name    string
		payload string
		want    string
	}{
		{"bare token", "A1B2C3", "A1B2C3"},
		{"bare lowercase", "a1b2c3", "A1B2C3"},
		{"bare padded", "  a1b2c3 \n", "A1B2C3"},
		{"json envelope", `{"id": "A1B2C3"}`, "A1B2C3"},
		{"json envelope lowercase", `{"id": "a1b2c3"}`, "A1B2C3"},
		{"json envelope padded id", `{"id": " a1b2c3 "}`, "A1B2C3"},
		{"json with extra fields", `{"id": "A1B2C3", "v": 2}`, "A1B2C3"},
		{"envelope surrounded by whitespace", "  {\"id\": \"A1B2C3\"}\n", "A1B2C3"},
		{"braces but not json falls back to bare", `{A1B2C3`, "{A1B2C3"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseToken(tc.payload)
			if err != nil {
				t.Fatalf("ParseToken(%q) error: %v", tc.payload, err)
			}
			if got != tc.want {
				t.Errorf("ParseToken(%q) = %q, want %q", tc.payload, got, tc.want)
			}
		})
	}
}

func TestParseToken_Malformed(t *testing.T) {
	for _, tc := range []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t"},
		{"json without id", `{"name": "Ada"}`},
		{"json with empty id", `{"id": ""}`},
		{"json with whitespace id", `{"id": "   "}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseToken(tc.payload)
			if !errors.Is(err, ErrMalformedToken) {
				t.Fatalf("ParseToken(%q) error = %v, want ErrMalformedToken", tc.payload, err)
			}
		})
	}
}
