package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1908", "1908-01-01T00:00:00"},
		{"1908-12", "1908-12-01T00:00:00"},
		{"1908-12-28", "1908-12-28T00:00:00"},
		{"1908-1910", "1908-01-01T00:00:00/1910-12-31T23:59:59"},
		{"circa 1908", "1908-01-01T00:00:00"},
		{"c. 1650", "1650-01-01T00:00:00"},
		{"1908-12-28T04:20:00", "1908-12-28T04:20:00"},
		{"1908-12-28 04:20", "1908-12-28T04:20:00"},
		{"1908-12-28T04:20:00Z", "1908-12-28T04:20:00Z"},
		{"December 28, 1908", "1908-12-28T00:00:00"},
		{"  1908  ", "1908-01-01T00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Normalize(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Garbage(t *testing.T) {
	for _, in := range []string{"", "unknown", "sometime in spring", "19O8", "1910-1908", "1908-13"} {
		_, ok := Normalize(in)
		assert.False(t, ok, "expected %q to be rejected", in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{"1908", "1908-12", "1908-1910", "circa 1908", "1908-12-28T04:20:00Z", "2 January 1850"} {
		once, ok := Normalize(in)
		require.True(t, ok, in)
		twice, ok := Normalize(once)
		require.True(t, ok, once)
		assert.Equal(t, once, twice)
		assert.True(t, IsNormalized(once))
	}
	assert.False(t, IsNormalized("1908"))
}

func TestParse_Fragment(t *testing.T) {
	v, ok := Parse("https://crm-eq.ics.forth.gr/data/timespan#1908-12-28_04:20_Messina")
	require.True(t, ok)
	assert.Equal(t, PrecisionTime, v.Precision)
	assert.Equal(t, time.Date(1908, 12, 28, 4, 20, 0, 0, time.UTC), v.Start)

	_, ok = Parse("https://example.org/ts#nothing-here")
	assert.False(t, ok)
}

func TestParse_Precision(t *testing.T) {
	tests := map[string]Precision{
		"1908":                PrecisionYear,
		"1908-12":             PrecisionMonth,
		"1908-12-28":          PrecisionDay,
		"1908-12-28T04:20:00": PrecisionTime,
		"1908-1910":           PrecisionYear,
		"January 1908":        PrecisionMonth,
	}
	for in, want := range tests {
		v, ok := Parse(in)
		require.True(t, ok, in)
		assert.Equal(t, want, v.Precision, in)
	}
}

func TestYear(t *testing.T) {
	y, ok := Year("+1908-03-01T00:00:00Z")
	require.True(t, ok)
	assert.Equal(t, 1908, y)

	y, ok = Year("1650 (uncertain)")
	require.True(t, ok)
	assert.Equal(t, 1650, y)

	_, ok = Year("unknown")
	assert.False(t, ok)
}
