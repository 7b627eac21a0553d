package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"ACTIVE", StatusActive},
		{"completed", StatusCompleted},
		{"Abandoned", StatusAbandoned},
		{"  clear  ", StatusClear},
	}
	for _, tc := range cases {
		got, err := ParseStatus(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "DONE", "ACTIVE ✓", "cleared"} {
		_, err := ParseStatus(raw)
		assert.Error(t, err, raw)
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusActive.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusAbandoned.Terminal())
	assert.True(t, StatusClear.Terminal())
}
