package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/tax-form-extraction/dto"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"$68,863.00", 68863.00, true},
		{"68863", 68863, true},
		{"€1,234.56", 1234.56, true},
		{"£ 1 234.50", 1234.50, true},
		{"(2,500.00)", -2500.00, true},
		{"1,250.00-", -1250.00, true},
		{"-$500", -500, true},
		{"−75.25", -75.25, true},
		{".5", 0.5, true},
		{"abc", 0, false},
		{"12abc", 0, false},
		{"1e5", 0, false},
		{"", 0, false},
		{"$", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseAmount(tt.raw)
		assert.Equal(t, tt.ok, ok, "ok for %q", tt.raw)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 0.0001, "value for %q", tt.raw)
		}
	}
}

func TestNormalizeNumericTypes(t *testing.T) {
	v := Normalize("$68,863.00", dto.TypeCurrency)
	require.NotNil(t, v)
	assert.Equal(t, dto.TypeCurrency, v.Kind)
	assert.Equal(t, 68863.00, v.Number)

	v = Normalize("Box 12: 4,100", dto.TypeInteger)
	require.NotNil(t, v)
	assert.Equal(t, 124100.0, v.Number)

	v = Normalize("150%", dto.TypePercent)
	require.NotNil(t, v)
	assert.Equal(t, 150.0, v.Number)

	v = Normalize("0.5", dto.TypePercent)
	require.NotNil(t, v)
	assert.Equal(t, 0.5, v.Number, "percent values are not rescaled")

	assert.Nil(t, Normalize("n/a", dto.TypeCurrency))
	assert.Nil(t, Normalize("--", dto.TypeInteger))
	assert.Nil(t, Normalize("1-2", dto.TypeInteger))
}

func TestNormalizeBoolean(t *testing.T) {
	for _, raw := range []string{"true", "YES", "1", "Checked", " x "} {
		v := Normalize(raw, dto.TypeBoolean)
		require.NotNil(t, v, raw)
		assert.True(t, v.Flag, raw)
	}
	for _, raw := range []string{"false", "No", "0", "unchecked", ""} {
		v := Normalize(raw, dto.TypeBoolean)
		require.NotNil(t, v, raw)
		assert.False(t, v.Flag, raw)
	}
	assert.Nil(t, Normalize("maybe", dto.TypeBoolean))
}

func TestNormalizeDateAndString(t *testing.T) {
	v := Normalize("  12/31/2023 ", dto.TypeDate)
	require.NotNil(t, v)
	assert.Equal(t, "12/31/2023", v.Text)

	v = Normalize(" 12-3456789", dto.TypeString)
	require.NotNil(t, v)
	assert.Equal(t, "12-3456789", v.String())

	assert.Nil(t, Normalize("   ", dto.TypeString))
}

func TestSumAmounts(t *testing.T) {
	assert.Equal(t, 200.0, SumAmounts(500, -200, -100))
	assert.Equal(t, 0.3, SumAmounts(0.1, 0.2))
	assert.Equal(t, 1232.5, RoundCents(85000*0.0145))
}

func TestCleanText(t *testing.T) {
	raw := "Schedule C\r\n31   Net profit\t\tor loss  ６８,８６３.００\r\n\r\n\r\n\r\nTotal – done"
	got := CleanText(raw)

	assert.Equal(t, "Schedule C\n31 Net profit or loss 68,863.00\n\nTotal - done", got)
}

func TestExcerpt(t *testing.T) {
	short := "Schedule C"
	assert.Equal(t, short, Excerpt(short))

	long := strings.Repeat("a", ExcerptLimit+10)
	got := Excerpt(long)
	assert.Equal(t, ExcerptLimit+3, len(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestHasUsableText(t *testing.T) {
	assert.False(t, HasUsableText("  \n\t ", 1))
	assert.False(t, HasUsableText("abc", 20))
	assert.True(t, HasUsableText("Schedule C Profit or Loss", 20))
}
