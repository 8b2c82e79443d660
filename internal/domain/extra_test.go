package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtraRoundTripPreservesOrder(t *testing.T) {
	payload := `{"nationalId":"AB-1234","partySize":4,"wheelchair":true,"visitDate":"2026-03-14"}`

	var extra Extra
	require.NoError(t, json.Unmarshal([]byte(payload), &extra))

	require.Len(t, extra, 4)
	assert.Equal(t, "nationalId", extra[0].Name)
	assert.Equal(t, KindString, extra[0].Kind)
	assert.Equal(t, "partySize", extra[1].Name)
	assert.Equal(t, KindNumber, extra[1].Kind)
	assert.Equal(t, "wheelchair", extra[2].Name)
	assert.Equal(t, KindBoolean, extra[2].Kind)
	assert.Equal(t, "visitDate", extra[3].Name)
	assert.Equal(t, KindDate, extra[3].Kind)

	out, err := json.Marshal(extra)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(out))

	// Order survives the round trip byte for byte, not just semantically.
	assert.Equal(t, payload, string(out))
}

func TestExtraNumbersKeepPrecision(t *testing.T) {
	payload := `{"amount":10.50,"count":3}`

	var extra Extra
	require.NoError(t, json.Unmarshal([]byte(payload), &extra))

	out, err := json.Marshal(extra)
	require.NoError(t, err)
	assert.Equal(t, payload, string(out))
}

func TestExtraNull(t *testing.T) {
	var extra Extra
	require.NoError(t, json.Unmarshal([]byte("null"), &extra))
	assert.Nil(t, extra)

	out, err := json.Marshal(extra)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestExtraRejectsNonObject(t *testing.T) {
	var extra Extra
	assert.Error(t, json.Unmarshal([]byte(`["a","b"]`), &extra))
}
