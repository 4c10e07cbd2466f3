package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayloadRoundTrip(t *testing.T) {
	payload := map[string]interface{}{"sensor": "Front Door", "msg": "tamper"}
	raw := EncodePayload(payload)
	assert.NotEmpty(t, raw)
	assert.Equal(t, payload, DecodePayload(raw))
}

func TestPayloadEmptyAndBroken(t *testing.T) {
	assert.Equal(t, "", EncodePayload(nil))
	assert.Equal(t, "", EncodePayload(map[string]interface{}{}))
	assert.Nil(t, DecodePayload(""))
	// A corrupted column yields nil instead of failing the read.
	assert.Nil(t, DecodePayload("{not json"))
}
