package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyEntry_BothShapes(t *testing.T) {
	raw := `{
		"tx-old": "111-2223334-5556667",
		"tx-new": {"order_id": "WM-4821", "processed_at": "2024-03-01T09:30:00Z"}
	}`

	var entries map[string]legacyEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))

	assert.Equal(t, "111-2223334-5556667", entries["tx-old"].OrderID)
	assert.Equal(t, "WM-4821", entries["tx-new"].OrderID)
	assert.Equal(t, "2024-03-01T09:30:00Z", entries["tx-new"].ProcessedAt)
}
