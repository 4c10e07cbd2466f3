// internal/data/payload.go
package data

import (
	"encoding/json"
	"log"
)

// EncodePayload serializes a payload map to the JSON text stored in the
// payload/details columns. A nil or empty map encodes to the empty string,
// which the stores persist as NULL.
func EncodePayload(payload map[string]interface{}) string {
	if len(payload) == 0 {
		return ""
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		// Maps built from decoded JSON cannot fail to re-encode, but a
		// caller-supplied payload with an unmarshalable value can.
		log.Printf("Error encoding payload, dropping it: %v", err)
		return ""
	}
	return string(raw)
}

// DecodePayload parses the stored JSON text back into a map. Empty or
// malformed text yields nil rather than an error: a broken payload must not
// make the surrounding event unreadable.
func DecodePayload(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		log.Printf("Error decoding stored payload: %v", err)
		return nil
	}
	return payload
}
