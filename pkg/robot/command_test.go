package robot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPan(t *testing.T) {
	tests := []struct {
		command float64
		want    string
	}{
		{0, "PAN:0.00\n"},
		{61.2, "PAN:61.20\n"},
		{-255, "PAN:-255.00\n"},
		{12.345, "PAN:12.35\n"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, string(FormatPan(tc.command)))
	}
}

func TestParsePan(t *testing.T) {
	v, err := ParsePan("PAN:-12.50\n")
	require.NoError(t, err)
	assert.Equal(t, -12.5, v)

	_, err = ParsePan("TILT:1.00")
	assert.Error(t, err)

	_, err = ParsePan("PAN:abc")
	assert.Error(t, err)
}
