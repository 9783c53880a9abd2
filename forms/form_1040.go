package forms

import (
	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/utils"
)

// Form1040 returns the pattern library for the individual income tax return.
func Form1040() *Definition {
	income := func(name, desc string, patterns ...Pattern) FieldSpec {
		return FieldSpec{
			Name:        name,
			Type:        dto.TypeCurrency,
			Description: desc,
			Plausible:   rng(0, 5_000_000),
			DefaultZero: true,
			Patterns:    patterns,
		}
	}

	return &Definition{
		DocType: dto.DocTypeForm1040,
		Fields: []FieldSpec{
			income("wages", "Total amount from Form(s) W-2, line 1a",
				label(`\b1a\s*total\s+amount\s+from\s+form\(?s\)?\s+w-2`),
				label(`wages,\s*salaries,\s*tips`),
				label(`^\s*1z\b`),
			),
			income("interest", "Taxable interest, line 2b",
				label(`\b2b\s*taxable\s+interest`),
				label(`taxable\s+interest`),
			),
			income("dividends", "Ordinary dividends, line 3b",
				label(`\b3b\s*ordinary\s+dividends`),
				label(`ordinary\s+dividends`),
			),
			income("pension_annuity", "Pensions and annuities, line 5a",
				label(`pensions\s+and\s+annuities`),
			),
			income("social_security", "Social security benefits, line 6a",
				label(`social\s+security\s+benefits`),
			),
			{
				Name:        "capital_gains",
				Type:        dto.TypeCurrency,
				Description: "Capital gain or (loss), line 7",
				Plausible:   rng(-3_000_000, 5_000_000),
				DefaultZero: true,
				Patterns: []Pattern{
					label(`capital\s+gain\s+or\s*\(?loss\)?`),
				},
			},
			{
				Name:        "business_income",
				Type:        dto.TypeCurrency,
				Description: "Business income or (loss) from Schedule C",
				Plausible:   rng(-1_000_000, 5_000_000),
				DefaultZero: true,
				Patterns: []Pattern{
					label(`business\s+income\s+or\s*\(?loss\)?`),
				},
			},
			income("other_income", "Additional income from Schedule 1, line 8",
				label(`additional\s+income\s+from\s+schedule\s+1`),
				label(`\b8\s*other\s+income`),
			),
			{
				Name:        "total_income",
				Type:        dto.TypeCurrency,
				Description: "Total income, line 9",
				Plausible:   rng(-1_000_000, 10_000_000),
				Patterns: []Pattern{
					label(`this\s+is\s+your\s+total\s+income`),
					label(`\b9\s*add\s+lines`),
					label(`total\s+income`),
				},
			},
			income("alimony", "Alimony received",
				label(`alimony\s+received`),
			),
			income("unemployment", "Unemployment compensation",
				label(`unemployment\s+compensation`),
			),
		},
		IndicatorList: indicators(
			`Form\s+1040\b`,
			`U\.?S\.?\s+Individual\s+Income\s+Tax\s+Return`,
			`Filing\s+Status`,
			`Adjusted\s+Gross\s+Income`,
			`Wages,\s*salaries,\s*tips`,
			`Total\s+income`,
		),
		Checks: []CrossCheck{
			{Name: "form_1040_income_mix", Check: form1040IncomeMix},
			{Name: "form_1040_total", Check: form1040Total},
		},
	}
}

func form1040IncomeMix(r *dto.ExtractionResult) []Finding {
	var out []Finding
	wages := num(r, "wages")
	pensions := num(r, "pension_annuity")
	alimony := num(r, "alimony")

	total := wages + pensions + alimony
	if total > 0 && wages < total*0.3 {
		out = append(out, warning("W-2 income seems low relative to total income"))
	}
	if wages > 0 && pensions > wages*0.8 {
		out = append(out, warning("Pension income seems high relative to W-2 income"))
	}
	return out
}

func form1040Total(r *dto.ExtractionResult) []Finding {
	if !has(r, "total_income") {
		return nil
	}
	components := utils.SumAmounts(
		num(r, "wages"), num(r, "interest"), num(r, "dividends"),
		num(r, "pension_annuity"), num(r, "social_security"),
		num(r, "capital_gains"), num(r, "other_income"),
	)
	total := num(r, "total_income")
	if components > total*1.01+1 {
		return []Finding{warning("Income components (%.2f) exceed reported total income (%.2f)", components, total)}
	}
	return nil
}
