package forms

import "github.com/Aashish23092/tax-form-extraction/dto"

// ScheduleB returns the pattern library for Schedule B (Interest and Ordinary Dividends).
func ScheduleB() *Definition {
	return &Definition{
		DocType: dto.DocTypeScheduleB,
		Fields: []FieldSpec{
			{
				Name:        "interest_income",
				Type:        dto.TypeCurrency,
				Description: "Taxable interest, line 4",
				Plausible:   rng(0, 5_000_000),
				DefaultZero: true,
				NonNegative: true,
				Patterns: []Pattern{
					label(`\b4\s*subtract\s+line\s+3\s+from\s+line\s+2`),
					label(`taxable\s+interest`),
					keywords(rng(1, 5_000_000), "total interest", "interest income"),
				},
			},
			{
				Name:        "dividend_income",
				Type:        dto.TypeCurrency,
				Description: "Ordinary dividends, line 6",
				Plausible:   rng(0, 5_000_000),
				DefaultZero: true,
				NonNegative: true,
				Patterns: []Pattern{
					label(`\b6\s*add\s+the\s+amounts\s+on\s+line\s+5`),
					label(`ordinary\s+dividends`),
					keywords(rng(1, 5_000_000), "total dividends", "dividend income"),
				},
			},
			{
				Name:        "foreign_accounts",
				Type:        dto.TypeBoolean,
				Description: "Financial interest in a foreign account, line 7a",
				Patterns: []Pattern{
					label(`financial\s+account\s+(?:\(such\s+as[^)]*\)\s+)?(?:located\s+)?in\s+a\s+foreign\s+country\W+(yes|no|x)\b`),
				},
			},
		},
		IndicatorList: indicators(
			`Schedule\s+B\b`,
			`Interest\s+and\s+Ordinary\s+Dividends`,
			`Part\s+I\s+Interest`,
			`Foreign\s+Accounts\s+and\s+Trusts`,
		),
	}
}
