package roster

import "strings"

// Identity payloads are the bracketed, quoted rendering the attendee QR
// codes carry, e.g. ['101', 'Jane Doe'].

// EncodeIdentityPayload renders a student record as an identity payload.
func EncodeIdentityPayload(r StudentRecord) string {
	return "['" + strings.Join(r.Values(), "', '") + "']"
}

// ParseIdentityPayload extracts the roll number and name lookup key from a
// scanned identity payload. Returns ok=false for anything that does not
// carry at least those two fields.
func ParseIdentityPayload(payload string) (roll, name string, ok bool) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(payload, "["), "]")
	trimmed = strings.ReplaceAll(trimmed, "'", "")
	parts := strings.Split(trimmed, ", ")
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
