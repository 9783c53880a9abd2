package forms

import (
	"math"

	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/utils"
)

// ScheduleC returns the pattern library for Schedule C (Profit or Loss From Business).
func ScheduleC() *Definition {
	return &Definition{
		DocType: dto.DocTypeScheduleC,
		Fields: []FieldSpec{
			{
				Name:        "net_profit",
				Type:        dto.TypeCurrency,
				Required:    true,
				Description: "Net profit or (loss), line 31",
				Plausible:   rng(-1_000_000, 1_000_000),
				Patterns: []Pattern{
					label(`\b31\s*net\s+profit\s+or\s*\(?loss\)?`),
					label(`net\s+profit\s+or\s*\(?loss\)?`),
					label(`^\s*line\s+31\b`),
					keywords(rng(1_000, 10_000_000), "net profit", "profit or loss", "line 31"),
					fallback(10_000, 1_000_000),
				},
			},
			{
				Name:        "other_income",
				Type:        dto.TypeCurrency,
				Description: "Other income, line 6",
				Plausible:   rng(-1_000_000, 1_000_000),
				DefaultZero: true,
				Patterns: []Pattern{
					label(`\b6\s*other\s+income`),
					label(`^\s*line\s+6\b`),
				},
			},
			{
				Name:        "depletion",
				Type:        dto.TypeCurrency,
				Description: "Depletion, line 12",
				Plausible:   rng(0, 1_000_000),
				DefaultZero: true,
				NonNegative: true,
				Patterns: []Pattern{
					label(`\b12\s*depletion`),
					label(`^\s*line\s+12\b`),
					label(`\bdepletion\b`),
				},
			},
			{
				Name:        "depreciation",
				Type:        dto.TypeCurrency,
				Description: "Depreciation and section 179 expense deduction, line 13",
				Plausible:   rng(0, 1_000_000),
				DefaultZero: true,
				NonNegative: true,
				Patterns: []Pattern{
					label(`\b13\s*depreciation`),
					label(`depreciation\s+and\s+section\s+179`),
					label(`^\s*line\s+13\b`),
				},
			},
			{
				Name:        "meals",
				Type:        dto.TypeCurrency,
				Description: "Deductible meals, line 24b",
				Plausible:   rng(0, 10_000),
				DefaultZero: true,
				NonNegative: true,
				Patterns: []Pattern{
					label(`\b24b\s*deductible\s+meals`),
					label(`deductible\s+meals`),
					label(`^\s*line\s+24b\b`),
				},
			},
			{
				Name:        "home_office",
				Type:        dto.TypeCurrency,
				Description: "Expenses for business use of home, line 30",
				Plausible:   rng(0, 50_000),
				DefaultZero: true,
				NonNegative: true,
				Patterns: []Pattern{
					label(`\b30\s*expenses\s+for\s+business\s+use\s+of\s+(?:your\s+)?home`),
					label(`business\s+use\s+of\s+(?:your\s+)?home`),
				},
			},
		},
		IndicatorList: indicators(
			`Schedule\s+C\b`,
			`Profit\s+or\s+Loss\s+From\s+Business`,
			`Business\s+Income`,
			`Net\s+Profit\s+or\s*\(?Loss`,
			`Line\s+31`,
			`Line\s+6.*Other\s+Income`,
		),
		Minimal: []string{"net_profit"},
		Checks: []CrossCheck{
			{Name: "schedule_c_ratios", Check: scheduleCRatios},
		},
		Imputes: []Imputation{
			{
				Field:   "net_profit",
				Formula: "other_income - depreciation - depletion",
				Inputs:  []string{"other_income", "depreciation", "depletion"},
				Compute: func(r *dto.ExtractionResult) float64 {
					return utils.SumAmounts(num(r, "other_income"), -num(r, "depreciation"), -num(r, "depletion"))
				},
			},
		},
	}
}

func scheduleCRatios(r *dto.ExtractionResult) []Finding {
	if !has(r, "net_profit") {
		return nil
	}
	var out []Finding
	netProfit := num(r, "net_profit")
	otherIncome := num(r, "other_income")
	depreciation := num(r, "depreciation")
	depletion := num(r, "depletion")

	if netProfit < -100_000 {
		out = append(out, warning("Net profit is very negative - verify business status"))
	}
	if otherIncome > 0 && math.Abs(otherIncome) > math.Abs(netProfit)*2 {
		out = append(out, warning("Other income seems high relative to net profit"))
	}
	if depreciation > 0 && depreciation > math.Abs(netProfit)*0.5 {
		out = append(out, warning("Depreciation seems high relative to net profit"))
	}
	if depletion > 0 && depletion > math.Abs(netProfit)*0.3 {
		out = append(out, warning("Depletion seems high relative to net profit"))
	}
	return out
}
