package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSegments(t *testing.T) {
	raw := []map[string]any{
		{"type": "sweep", "seconds": 1.2, "from": 450, "to": 1000},
		{"type": "silence", "seconds": 0.15},
		{"type": "tone", "seconds": 1.0, "freq": 800},
	}

	p, err := DecodeSegments(raw)
	require.NoError(t, err)

	assert.Equal(t, Pattern{
		Sweep(1.2, 450, 1000),
		Silence(0.15),
		Tone(1.0, 800),
	}, p)
}

func TestDecodeSegments_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  []map[string]any
	}{
		{"Empty", nil},
		{"Unknown type", []map[string]any{{"type": "noise", "seconds": 1.0}}},
		{"Missing seconds", []map[string]any{{"type": "silence"}}},
		{"Negative seconds", []map[string]any{{"type": "tone", "seconds": -1.0, "freq": 440}}},
		{"Tone without freq", []map[string]any{{"type": "tone", "seconds": 1.0}}},
		{"Sweep without to", []map[string]any{{"type": "sweep", "seconds": 1.0, "from": 450}}},
		{"Non-numeric seconds", []map[string]any{{"type": "silence", "seconds": "long"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSegments(tt.raw)
			assert.Error(t, err)
		})
	}
}
