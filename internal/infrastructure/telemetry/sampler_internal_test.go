package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestDetectOperationType(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM stock_items":          "SELECT",
		"  insert into stock_movements":      "INSERT",
		"UPDATE stock_items SET version = 2": "UPDATE",
		"delete from outbox_events":          "DELETE",
		"VACUUM":                             "OTHER",
	}
	for query, want := range tests {
		assert.Equal(t, want, detectOperationType(query), query)
	}
}
