package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateOnlyUsesLocalCalendar(t *testing.T) {
	got, ok, err := ParseDate("2026-03-09")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 9, got.Day())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, time.Local, got.Location())
}

func TestParseFullTimestamp(t *testing.T) {
	got, ok, err := ParseDate("2026-03-09T14:30:00Z")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 14, got.UTC().Hour())
}

func TestParseEmptyIsUnset(t *testing.T) {
	_, ok, err := ParseDate("   ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseMalformed(t *testing.T) {
	_, _, err := ParseDate("03/09/2026")
	assert.Error(t, err)
}
