package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raws(cands []Candidate) []string {
	out := []string{}
	for _, c := range cands {
		out = append(out, c.Raw)
	}
	return out
}

func TestScanStructuralExclusions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"zip code after state", "Business address 100 Main St, Springfield, MN 55420", []string{"100"}},
		{"ssn and ein fragments", "SSN 123-45-6789 EIN 12-3456789", []string{}},
		{"form number and year", "Form 1040 (2023) total 1,250.00", []string{"1,250.00"}},
		{"line marker and section reference", "13 Depreciation and section 179 expense deduction 12,400.00", []string{"12,400.00"}},
		{"line label glued to letter", "24b Deductible meals 4,150.00", []string{"4,150.00"}},
		{"dates", "Date 12/31/2023 paid $ 1,000", []string{"$ 1,000"}},
		{"line references and echoes", "Add lines 1a through 8 ... 9 85,000", []string{"85,000"}},
		{"percent", "Ownership percentage 150%", []string{"150"}},
		{"year after for", "Income for 2022 was 2,022.00", []string{"2,022.00"}},
		{"W-2 is not an amount", "Form W-2 box 1 85,000.00", []string{"85,000.00"}},
		{"lone zero at end of line", "Other income 0\nNext", []string{"0"}},
	}

	s := NewScanner(DefaultWindow, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, raws(s.Scan(tt.text)))
		})
	}
}

func TestScanValuesAndContext(t *testing.T) {
	text := "Loss (2,500.00) reported"
	cands := NewScanner(5, nil).Scan(text)
	require.Len(t, cands, 1)

	c := cands[0]
	assert.Equal(t, -2500.0, c.Value)
	assert.Equal(t, 5, c.Offset)
	assert.Equal(t, "Loss (2,500.00) repo", c.Context)
}

func TestScanDenylist(t *testing.T) {
	s := NewScanner(DefaultWindow, []float64{26059})

	assert.Empty(t, raws(s.Scan("Amount 26059 due")))
	assert.Equal(t, []string{"26,059.00"}, raws(s.Scan("Amount 26,059.00 due")), "formatted amounts are never denylisted")
}

func TestPreviousWord(t *testing.T) {
	assert.Equal(t, "line", previousWord("Subtract line 30", 14))
	assert.Equal(t, "no", previousWord("OMB No. 1545", 8))
	assert.Equal(t, "", previousWord("(2023)", 1))
}
