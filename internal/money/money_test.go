package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestScaleHalfDown(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"250.555", "250.55"}, // tie rounds toward zero
		{"2.345", "2.34"},
		{"2.3451", "2.35"},
		{"2.344", "2.34"},
		{"2.346", "2.35"},
		{"-2.345", "-2.34"},
		{"-2.346", "-2.35"},
		{"100", "100"},
		{"0.005", "0"},
		{"0.0051", "0.01"},
	}
	for _, tc := range cases {
		got := Scale(dec(tc.in))
		assert.True(t, got.Equal(dec(tc.want)), "Scale(%s) = %s, want %s", tc.in, got, tc.want)
	}
}

func TestDisplayNeverRoundsUp(t *testing.T) {
	assert.True(t, Display(dec("2.349")).Equal(dec("2.34")))
	assert.True(t, Display(dec("2.999")).Equal(dec("2.99")))
	assert.True(t, Display(dec("-2.349")).Equal(dec("-2.34")))
}

func TestFormatSuffixed(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"999.999", "999.99"},
		{"1234.5", "1.23k"},
		{"45600000", "45.60M"},
		{"-1234", "-1.23k"},
		{"2500000000", "2.50B"},
		{"12.3", "12.30"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatSuffixed(dec(tc.in)), "FormatSuffixed(%s)", tc.in)
	}
}

func TestFormatRaw(t *testing.T) {
	assert.Equal(t, "1,234,567.89", FormatRaw(dec("1234567.899")))
	assert.Equal(t, "0.00", FormatRaw(dec("0")))
	assert.Equal(t, "-12,000.50", FormatRaw(dec("-12000.5")))
	assert.Equal(t, "999.99", FormatRaw(dec("999.99")))
}

func TestParseSuffixed(t *testing.T) {
	got, err := ParseSuffixed("1.5k")
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("1500")))

	got, err = ParseSuffixed("2M")
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("2000000")))

	got, err = ParseSuffixed("-3.25B")
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("-3250000000")))

	got, err = ParseSuffixed("42")
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("42")))

	_, err = ParseSuffixed("abc")
	assert.Error(t, err)

	_, err = ParseSuffixed("1.5x")
	assert.Error(t, err)
}

func TestFormatParseRoundTrip(t *testing.T) {
	// Formatting truncates, so parse back and compare against the truncated
	// magnitude rather than the input.
	in := dec("1230000")
	parsed, err := ParseSuffixed(FormatSuffixed(in))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(in))
}
