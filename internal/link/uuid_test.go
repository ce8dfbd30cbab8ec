package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUUID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "16-bit short form passes through",
			input:    "2a19",
			expected: "2a19",
		},
		{
			name:     "uppercase is lowered",
			input:    "2A19",
			expected: "2a19",
		},
		{
			name:     "0x prefix is stripped",
			input:    "0x2A19",
			expected: "2a19",
		},
		{
			name:     "SIG base UUID collapses to short form",
			input:    "00002a19-0000-1000-8000-00805f9b34fb",
			expected: "2a19",
		},
		{
			name:     "vendor UUID keeps full 128-bit form without dashes",
			input:    "f1196f52-71a4-11e6-bdf4-0800200c9a66",
			expected: "f1196f5271a411e6bdf40800200c9a66",
		},
		{
			name:     "surrounding whitespace is trimmed",
			input:    "  2a19 ",
			expected: "2a19",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeUUID(tt.input))
		})
	}
}
