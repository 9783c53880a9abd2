package forms

import (
	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/utils"
)

var form1120Lines = businessLines{other: "10", total: "11", deductions: "27"}

// Form1120 returns the pattern library for the corporation income tax return.
func Form1120() *Definition {
	fields := businessIncomeFields(form1120Lines)[:5]
	fields = append(fields, FieldSpec{
		Name:        "taxable_income",
		Type:        dto.TypeCurrency,
		Description: "Taxable income, line 30",
		Plausible:   rng(-10_000_000, 100_000_000),
		Patterns: []Pattern{
			label(`\b30\s*taxable\s+income`),
			label(`taxable\s+income`),
			lineLabel("30"),
		},
	})

	return &Definition{
		DocType: dto.DocTypeForm1120,
		Fields:  fields,
		IndicatorList: indicators(
			`Form\s+1120\b`,
			`U\.?S\.?\s+Corporation\s+Income\s+Tax\s+Return`,
			`Corporation`,
			`Taxable\s+income`,
			`Total\s+deductions`,
		),
		Checks: []CrossCheck{
			{Name: "returns_vs_receipts", Check: returnsVsReceipts},
			{Name: "form_1120_taxable", Check: form1120Taxable},
		},
		Imputes: []Imputation{
			{
				Field:   "taxable_income",
				Formula: "total_income - total_deductions",
				Inputs:  []string{"total_income", "total_deductions"},
				Compute: func(r *dto.ExtractionResult) float64 {
					return utils.SumAmounts(num(r, "total_income"), -num(r, "total_deductions"))
				},
			},
		},
	}
}

func form1120Taxable(r *dto.ExtractionResult) []Finding {
	if !has(r, "taxable_income") || !has(r, "total_income") {
		return nil
	}
	if num(r, "taxable_income") > num(r, "total_income") {
		return []Finding{warning("Taxable income exceeds total income")}
	}
	return nil
}
