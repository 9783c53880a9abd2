package forms

import (
	"math"

	"github.com/Aashish23092/tax-form-extraction/dto"
)

const (
	socialSecurityRate = 0.062
	medicareRate       = 0.0145
)

// W2 returns the pattern library for Form W-2 (Wage and Tax Statement).
func W2() *Definition {
	box := func(name, desc string, patterns ...Pattern) FieldSpec {
		return FieldSpec{
			Name:        name,
			Type:        dto.TypeCurrency,
			Description: desc,
			Plausible:   rng(0, 5_000_000),
			DefaultZero: true,
			NonNegative: true,
			Patterns:    patterns,
		}
	}

	return &Definition{
		DocType: dto.DocTypeW2,
		Fields: []FieldSpec{
			{
				Name:        "wages_tips",
				Type:        dto.TypeCurrency,
				Required:    true,
				Description: "Wages, tips, other compensation, box 1",
				Plausible:   rng(0, 5_000_000),
				NonNegative: true,
				Patterns: []Pattern{
					label(`\b1\s*wages,?\s*tips,?\s*(?:and\s+)?other\s+comp`),
					label(`wages,?\s*tips`),
					label(`^\s*box\s*1\b`),
				},
			},
			box("federal_tax_withheld", "Federal income tax withheld, box 2",
				label(`\b2\s*federal\s+income\s+tax\s+withheld`),
				label(`federal\s+income\s+tax\s+withheld`),
			),
			box("social_security_wages", "Social security wages, box 3",
				label(`\b3\s*social\s+security\s+wages`),
				label(`social\s+security\s+wages`),
			),
			box("social_security_tax", "Social security tax withheld, box 4",
				label(`\b4\s*social\s+security\s+tax\s+withheld`),
				label(`social\s+security\s+tax`),
			),
			box("medicare_wages", "Medicare wages and tips, box 5",
				label(`\b5\s*medicare\s+wages`),
				label(`medicare\s+wages`),
			),
			box("medicare_tax", "Medicare tax withheld, box 6",
				label(`\b6\s*medicare\s+tax\s+withheld`),
				label(`medicare\s+tax`),
			),
			{
				Name:        "employer_ein",
				Type:        dto.TypeString,
				Description: "Employer identification number, box b",
				Format:      `^\d{2}-\d{7}$`,
				Patterns: []Pattern{
					label(`employer\s+identification\s+number\s*(?:\(EIN\))?\W*([0-9X]{2}-?[0-9X]{7})`),
					label(`\bEIN\W*([0-9X]{2}-?[0-9X]{7})`),
				},
			},
		},
		IndicatorList: indicators(
			`Form\s+W-?2\b`,
			`Wage\s+and\s+Tax\s+Statement`,
			`Employer\s+identification\s+number`,
			`Wages,\s*tips,\s*other\s+compensation`,
			`Federal\s+income\s+tax\s+withheld`,
		),
		Minimal: []string{"wages_tips"},
		Checks: []CrossCheck{
			{Name: "w2_withholding", Check: w2Withholding},
		},
	}
}

func w2Withholding(r *dto.ExtractionResult) []Finding {
	var out []Finding
	wages := num(r, "wages_tips")
	if federal := num(r, "federal_tax_withheld"); wages > 0 && federal > wages {
		out = append(out, warning("Federal tax withheld exceeds wages"))
	}
	if ssWages, ssTax := num(r, "social_security_wages"), num(r, "social_security_tax"); ssWages > 0 && ssTax > 0 {
		if !withinTolerance(ssTax, ssWages*socialSecurityRate, 0.05) {
			out = append(out, warning("Social security tax (%.2f) does not match 6.2%% of social security wages (%.2f)", ssTax, ssWages))
		}
	}
	if mWages, mTax := num(r, "medicare_wages"), num(r, "medicare_tax"); mWages > 0 && mTax > 0 {
		// additional medicare tax applies above 200k, so only flag underpayment there
		expected := mWages * medicareRate
		if mTax < expected*0.95 || (mWages <= 200_000 && !withinTolerance(mTax, expected, 0.05)) {
			out = append(out, warning("Medicare tax (%.2f) does not match 1.45%% of medicare wages (%.2f)", mTax, mWages))
		}
	}
	return out
}

func withinTolerance(got, want, tolerance float64) bool {
	if want == 0 {
		return got == 0
	}
	return math.Abs(got-want)/want <= tolerance
}
