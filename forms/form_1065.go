package forms

import "github.com/Aashish23092/tax-form-extraction/dto"

// Form1065 returns the pattern library for the partnership return.
func Form1065() *Definition {
	fields := append(businessIncomeFields(form1065Lines), FieldSpec{
		Name:        "ownership_percentage",
		Type:        dto.TypePercent,
		Description: "Partner's share of profit or ownership percentage",
		Plausible:   rng(0.01, 100),
		Patterns: []Pattern{
			label(`ownership\s+percentage`),
			label(`percentage\s+of\s+ownership`),
			label(`\bprofit\s+share\b`),
		},
	})

	return &Definition{
		DocType: dto.DocTypeForm1065,
		Fields:  fields,
		IndicatorList: indicators(
			`Form\s+1065\b`,
			`U\.?S\.?\s+Return\s+of\s+Partnership\s+Income`,
			`Partnership`,
			`Ordinary\s+business\s+income`,
			`Partner'?s\s+share`,
		),
		Checks: []CrossCheck{
			{Name: "form_1065_ownership", Check: form1065Ownership},
			{Name: "returns_vs_receipts", Check: returnsVsReceipts},
		},
	}
}

func form1065Ownership(r *dto.ExtractionResult) []Finding {
	ownership, ok := r.Number("ownership_percentage")
	if !ok {
		return nil
	}
	var out []Finding
	if ownership < 1 || ownership > 100 {
		out = append(out, failure("ownership percentage must be between 1%% and 100%%"))
	}
	income := num(r, "ordinary_business_income")
	if income > 1_000_000 && ownership < 50 {
		out = append(out, warning("High partnership income with minority ownership"))
	}
	return out
}

// businessLines are the page 1 line numbers of the shared income fields.
type businessLines struct {
	other, total, deductions, ordinary string
}

var form1065Lines = businessLines{other: "7", total: "8", deductions: "22", ordinary: "23"}

// lineLabel matches a line that starts with the printed line reference.
func lineLabel(n string) Pattern {
	return label(`^\s*line\s+` + n + `\b`)
}

// businessIncomeFields are the page 1 income lines shared by the 1065 and
// 1120 returns. The "(loss)" suffix is optional since OCR often drops it.
func businessIncomeFields(lines businessLines) []FieldSpec {
	return []FieldSpec{
		{
			Name:        "gross_receipts",
			Type:        dto.TypeCurrency,
			Description: "Gross receipts or sales, line 1a",
			Plausible:   rng(0, 100_000_000),
			DefaultZero: true,
			NonNegative: true,
			Patterns: []Pattern{
				label(`\b1a\s*gross\s+receipts\s+or\s+sales`),
				label(`gross\s+receipts`),
			},
		},
		{
			Name:        "returns_allowances",
			Type:        dto.TypeCurrency,
			Description: "Returns and allowances, line 1b",
			Plausible:   rng(0, 100_000_000),
			DefaultZero: true,
			NonNegative: true,
			Patterns: []Pattern{
				label(`returns\s+and\s+allowances`),
			},
		},
		{
			Name:        "other_income",
			Type:        dto.TypeCurrency,
			Description: "Other income (loss)",
			Plausible:   rng(-10_000_000, 10_000_000),
			DefaultZero: true,
			Patterns: []Pattern{
				label(`\b` + lines.other + `\s*other\s+income(?:\s*\(?loss\)?)?`),
				label(`other\s+income(?:\s*\(?loss\)?)?`),
				lineLabel(lines.other),
			},
		},
		{
			Name:        "total_income",
			Type:        dto.TypeCurrency,
			Description: "Total income (loss)",
			Plausible:   rng(-10_000_000, 100_000_000),
			Patterns: []Pattern{
				label(`\b` + lines.total + `\s*total\s+income(?:\s*\(?loss\)?)?`),
				label(`total\s+income(?:\s*\(?loss\)?)?`),
				lineLabel(lines.total),
			},
		},
		{
			Name:        "total_deductions",
			Type:        dto.TypeCurrency,
			Description: "Total deductions",
			Plausible:   rng(0, 100_000_000),
			NonNegative: true,
			Patterns: []Pattern{
				label(`total\s+deductions`),
				lineLabel(lines.deductions),
			},
		},
		{
			Name:        "ordinary_business_income",
			Type:        dto.TypeCurrency,
			Description: "Ordinary business income (loss)",
			Plausible:   rng(-10_000_000, 100_000_000),
			Patterns: []Pattern{
				label(`ordinary\s+business\s+income(?:\s*\(?loss\)?)?`),
				lineLabel(lines.ordinary),
			},
		},
	}
}

func returnsVsReceipts(r *dto.ExtractionResult) []Finding {
	gross := num(r, "gross_receipts")
	returns := num(r, "returns_allowances")
	if returns > 0 && returns > gross {
		return []Finding{warning("Returns and allowances (%.2f) exceed gross receipts (%.2f)", returns, gross)}
	}
	return nil
}
