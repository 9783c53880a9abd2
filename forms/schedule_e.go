package forms

import (
	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/utils"
)

// ScheduleE returns the pattern library for Schedule E (Supplemental Income and Loss).
func ScheduleE() *Definition {
	expense := func(name, desc string, patterns ...Pattern) FieldSpec {
		return FieldSpec{
			Name:        name,
			Type:        dto.TypeCurrency,
			Description: desc,
			Plausible:   rng(0, 1_000_000),
			DefaultZero: true,
			NonNegative: true,
			Patterns:    patterns,
		}
	}

	return &Definition{
		DocType: dto.DocTypeScheduleE,
		Fields: []FieldSpec{
			{
				Name:        "rental_income",
				Type:        dto.TypeCurrency,
				Description: "Rents received, line 3",
				Plausible:   rng(0, 5_000_000),
				DefaultZero: true,
				NonNegative: true,
				Patterns: []Pattern{
					label(`\b3\s*rents\s+received`),
					label(`rents\s+received`),
					label(`rental\s+income`),
				},
			},
			{
				Name:        "royalty_income",
				Type:        dto.TypeCurrency,
				Description: "Royalties received, line 4",
				Plausible:   rng(0, 5_000_000),
				DefaultZero: true,
				Patterns: []Pattern{
					label(`\b4\s*royalties\s+received`),
					label(`royalties\s+received`),
				},
			},
			expense("insurance", "Insurance, line 9", label(`\b9\s*insurance`)),
			expense("mortgage_interest", "Mortgage interest paid to banks, line 12",
				label(`\b12\s*mortgage\s+interest`),
				label(`mortgage\s+interest\s+paid`),
			),
			expense("repairs", "Repairs, line 14", label(`\b14\s*repairs`)),
			expense("utilities", "Utilities, line 17", label(`\b17\s*utilities`)),
			expense("depreciation", "Depreciation expense or depletion, line 18",
				label(`\b18\s*depreciation`),
				label(`depreciation\s+expense\s+or\s+depletion`),
			),
			{
				Name:        "total_expenses",
				Type:        dto.TypeCurrency,
				Description: "Total expenses, line 20",
				Plausible:   rng(0, 5_000_000),
				NonNegative: true,
				Patterns: []Pattern{
					label(`\b20\s*total\s+expenses`),
					label(`total\s+expenses`),
				},
			},
			{
				Name:        "net_income",
				Type:        dto.TypeCurrency,
				Description: "Income or (loss) from rental real estate or royalty properties, line 21",
				Plausible:   rng(-1_000_000, 5_000_000),
				Patterns: []Pattern{
					label(`\b21\s*subtract\s+line\s+20`),
					label(`\b21\s*income\s+or\s*\(?loss\)?`),
				},
			},
			{
				Name:        "total_income",
				Type:        dto.TypeCurrency,
				Description: "Total rental real estate and royalty income or (loss), line 26",
				Plausible:   rng(-1_000_000, 10_000_000),
				Patterns: []Pattern{
					label(`\b26\s*total\s+rental\s+real\s+estate`),
					label(`total\s+rental\s+real\s+estate\s+and\s+royalty\s+income`),
				},
			},
		},
		IndicatorList: indicators(
			`Schedule\s+E\b`,
			`Supplemental\s+Income\s+and\s+Loss`,
			`Rental\s+Real\s+Estate`,
			`Rents\s+received`,
			`Royalties\s+received`,
		),
		Checks: []CrossCheck{
			{Name: "schedule_e_royalties", Check: scheduleERoyalties},
			{Name: "schedule_e_expenses", Check: scheduleEExpenses},
		},
		Imputes: []Imputation{
			{
				Field:   "net_income",
				Formula: "rental_income + royalty_income - total_expenses",
				Inputs:  []string{"rental_income", "royalty_income", "total_expenses"},
				Compute: func(r *dto.ExtractionResult) float64 {
					return utils.SumAmounts(num(r, "rental_income"), num(r, "royalty_income"), -num(r, "total_expenses"))
				},
			},
		},
	}
}

func scheduleERoyalties(r *dto.ExtractionResult) []Finding {
	rental := num(r, "rental_income")
	royalty := num(r, "royalty_income")
	if rental > 0 && royalty > rental*2 {
		return []Finding{warning("Royalty income seems high relative to rental income")}
	}
	return nil
}

func scheduleEExpenses(r *dto.ExtractionResult) []Finding {
	if !has(r, "total_expenses") {
		return nil
	}
	itemized := utils.SumAmounts(
		num(r, "insurance"), num(r, "mortgage_interest"), num(r, "repairs"),
		num(r, "utilities"), num(r, "depreciation"),
	)
	total := num(r, "total_expenses")
	if itemized > total+1 {
		return []Finding{warning("Itemized expenses (%.2f) exceed total expenses (%.2f)", itemized, total)}
	}
	return nil
}
