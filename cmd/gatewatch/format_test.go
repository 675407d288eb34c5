package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/gatewatch/internal/timefmt"
)

func TestRunFormat(t *testing.T) {
	output, _, err := executeCmd(t, "format", "--strict=false", "--offset", "+05:30",
		"2024-01-15T10:30:00Z", "N/A", "not-a-time", "Mon, 15 Jan 2024 10:30:00 GMT")
	require.NoError(t, err)
	assert.Equal(t, "15-01-2024, 16:00:00\nN/A\nnot-a-time\n15-01-2024, 16:00:00\n", output)
}

func TestRunFormat_Offset(t *testing.T) {
	output, _, err := executeCmd(t, "format", "--strict=false", "--offset", "+00:00", "2024-01-15T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "15-01-2024, 10:30:00", strings.TrimSpace(output))
}

func TestRunFormat_Strict(t *testing.T) {
	output, stderr, err := executeCmd(t, "format", "--strict", "--offset", "+05:30",
		"2024-01-15T10:30:00Z", "2024-13-45T99:00:00Z")
	require.Error(t, err)
	assert.ErrorIs(t, err, timefmt.ErrMalformedTimestamp)
	assert.Equal(t, "15-01-2024, 16:00:00", strings.TrimSpace(output), "only the valid timestamp is printed")
	assert.Contains(t, stderr, "2024-13-45T99:00:00Z")
}

// TestRunFormat_StrictRejectsLenientForms verifies --strict only accepts
// RFC 3339 even though the dashboard converts looser forms.
func TestRunFormat_StrictRejectsLenientForms(t *testing.T) {
	_, _, err := executeCmd(t, "format", "--strict", "--offset", "+05:30", "2024-01-15")
	assert.ErrorIs(t, err, timefmt.ErrMalformedTimestamp)
}

func TestRunFormat_BadOffset(t *testing.T) {
	_, _, err := executeCmd(t, "format", "--strict=false", "--offset", "IST", "2024-01-15T10:30:00Z")
	assert.Error(t, err, "format should reject an invalid offset")
}
