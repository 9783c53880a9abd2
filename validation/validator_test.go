package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/forms"
)

func lookup(t *testing.T, dt dto.DocumentType) forms.Form {
	t.Helper()
	form, err := forms.DefaultRegistry(nil).Lookup(dt)
	require.NoError(t, err)
	return form
}

func amount(name string, v float64) dto.ExtractedField {
	idx := 0
	return dto.ExtractedField{Name: name, Value: dto.NumberValue(dto.TypeCurrency, v), FoundBy: &idx, Method: dto.MethodPattern}
}

func defaulted(name string) dto.ExtractedField {
	return dto.ExtractedField{Name: name, Value: dto.ZeroValue(dto.TypeCurrency), Method: dto.MethodDefault}
}

func TestValidateCleanScheduleC(t *testing.T) {
	res := &dto.ExtractionResult{
		DocumentType: dto.DocTypeScheduleC,
		Fields: []dto.ExtractedField{
			amount("net_profit", 68863),
			defaulted("other_income"),
			defaulted("depletion"),
			amount("depreciation", 12400),
			amount("meals", 4150),
			defaulted("home_office"),
		},
	}

	out := New(nil).Validate(res, lookup(t, dto.DocTypeScheduleC))
	assert.True(t, out.Valid)
	assert.Empty(t, out.Errors)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, 1.0, out.Score)
	assert.Empty(t, out.Adjustments)
}

func TestValidateOwnershipOutOfDomain(t *testing.T) {
	pct := dto.ExtractedField{Name: "ownership_percentage", Value: dto.NumberValue(dto.TypePercent, 150), Method: dto.MethodPattern}
	res := &dto.ExtractionResult{
		DocumentType: dto.DocTypeForm1065,
		Fields:       []dto.ExtractedField{amount("gross_receipts", 500000), pct},
	}

	out := New(nil).Validate(res, lookup(t, dto.DocTypeForm1065))
	assert.False(t, out.Valid)
	assert.Contains(t, out.Errors, "ownership percentage must be between 1% and 100%")
	assert.Contains(t, out.Warnings, "Field ownership_percentage value 150 is above maximum 100")
}

func TestValidateImputesNetProfit(t *testing.T) {
	res := &dto.ExtractionResult{
		DocumentType: dto.DocTypeScheduleC,
		Fields: []dto.ExtractedField{
			{Name: "net_profit"},
			amount("other_income", 500),
			amount("depletion", 100),
			amount("depreciation", 200),
			defaulted("meals"),
			defaulted("home_office"),
		},
	}

	out := New(nil).Validate(res, lookup(t, dto.DocTypeScheduleC))

	np := res.Field("net_profit")
	require.NotNil(t, np.Value)
	assert.Equal(t, 200.0, np.Value.Number)
	assert.Equal(t, dto.MethodImputed, np.Method)
	assert.Nil(t, np.FoundBy)

	require.Len(t, out.Adjustments, 1)
	assert.Equal(t, dto.Adjustment{Field: "net_profit", Value: 200, Formula: "other_income - depreciation - depletion"}, out.Adjustments[0])
	require.Len(t, out.ConfidenceImprovements, 1)
	assert.Contains(t, out.ConfidenceImprovements[0], "net_profit = 200")

	assert.Empty(t, out.Errors)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "estimated as 200")
	assert.True(t, out.Valid)
	assert.Equal(t, 1.0, out.Score)
}

func TestValidateChecksImputedValue(t *testing.T) {
	res := &dto.ExtractionResult{
		DocumentType: dto.DocTypeScheduleC,
		Fields: []dto.ExtractedField{
			{Name: "net_profit"},
			amount("other_income", -900_000),
			defaulted("depletion"),
			amount("depreciation", 900_000),
		},
	}

	out := New(nil, WithMagnitudeCap(1_000_000)).Validate(res, lookup(t, dto.DocTypeScheduleC))

	assert.Equal(t, -1_800_000.0, res.Field("net_profit").Value.Number)
	assert.Equal(t, []string{
		"Field net_profit was not found and was estimated as -1800000 (other_income - depreciation - depletion)",
		"Field net_profit value -1800000 is below minimum -1000000",
		"Field net_profit has extremely large value: -1800000",
	}, out.Warnings)
	assert.Empty(t, out.Errors)
}

func TestValidateRequiredMissingWithoutInputs(t *testing.T) {
	res := &dto.ExtractionResult{
		DocumentType: dto.DocTypeScheduleC,
		Fields: []dto.ExtractedField{
			{Name: "net_profit"},
			defaulted("other_income"),
			defaulted("depletion"),
			defaulted("depreciation"),
			defaulted("meals"),
			defaulted("home_office"),
		},
	}

	out := New(nil).Validate(res, lookup(t, dto.DocTypeScheduleC))
	assert.False(t, out.Valid)
	assert.Equal(t, []string{"Field net_profit is required"}, out.Errors)
	assert.Empty(t, out.Adjustments)
	assert.Nil(t, res.Field("net_profit").Value)
	assert.Equal(t, 0.9, out.Score)
}

func TestValidateMinimalFieldAbsentFromResult(t *testing.T) {
	def := &forms.Definition{
		DocType: dto.DocTypeW2,
		Fields:  []forms.FieldSpec{{Name: "federal_tax_withheld", Type: dto.TypeCurrency}},
		Minimal: []string{"wages_tips"},
	}
	res := &dto.ExtractionResult{Fields: []dto.ExtractedField{amount("federal_tax_withheld", 100)}}

	out := New(nil).Validate(res, def)
	assert.Equal(t, []string{"Required field wages_tips is missing"}, out.Errors)
}

func TestValidatePlausibleRangeAndBusinessRules(t *testing.T) {
	res := &dto.ExtractionResult{
		DocumentType: dto.DocTypeW2,
		Fields: []dto.ExtractedField{
			amount("wages_tips", 20_000_000),
			amount("federal_tax_withheld", -50),
		},
	}

	out := New(nil).Validate(res, lookup(t, dto.DocTypeW2))
	assert.True(t, out.Valid)
	assert.Contains(t, out.Warnings, "Field wages_tips value 20000000 is above maximum 5000000")
	assert.Contains(t, out.Warnings, "Field wages_tips has extremely large value: 20000000")
	assert.Contains(t, out.Warnings, "Field federal_tax_withheld value -50 is below minimum 0")
	assert.Contains(t, out.Warnings, "Field federal_tax_withheld has negative value: -50")
}

func TestValidateMagnitudeCapOption(t *testing.T) {
	res := &dto.ExtractionResult{Fields: []dto.ExtractedField{amount("wages_tips", 150_000)}}

	out := New(nil, WithMagnitudeCap(100_000)).Validate(res, lookup(t, dto.DocTypeW2))
	assert.Contains(t, out.Warnings, "Field wages_tips has extremely large value: 150000")

	out = New(nil, WithMagnitudeCap(0)).Validate(res, lookup(t, dto.DocTypeW2))
	assert.NotContains(t, out.Warnings, "Field wages_tips has extremely large value: 150000")
}

func TestValidateFormatConstraint(t *testing.T) {
	res := &dto.ExtractionResult{
		DocumentType: dto.DocTypeW2,
		Fields: []dto.ExtractedField{
			amount("wages_tips", 85000),
			{Name: "employer_ein", Value: dto.TextValue(dto.TypeString, "123456789"), Method: dto.MethodPattern},
		},
	}
	out := New(nil).Validate(res, lookup(t, dto.DocTypeW2))
	assert.Contains(t, out.Warnings, "Field employer_ein has invalid format: 123456789")

	res.Fields[1].Value = dto.TextValue(dto.TypeString, "12-3456789")
	out = New(nil).Validate(res, lookup(t, dto.DocTypeW2))
	assert.NotContains(t, out.Warnings, "Field employer_ein has invalid format: 12-3456789")
}

func TestScorePenaltiesAreCapped(t *testing.T) {
	findings := func(sev dto.Severity, n int) []forms.Finding {
		out := make([]forms.Finding, n)
		for i := range out {
			out[i] = forms.Finding{Severity: sev, Message: "finding"}
		}
		return out
	}

	tests := []struct {
		name     string
		errors   int
		warnings int
		want     float64
	}{
		{"clean", 0, 0, 1.0},
		{"one error", 1, 0, 0.9},
		{"two warnings", 0, 2, 0.96},
		{"errors capped", 8, 0, 0.5},
		{"warnings capped", 0, 40, 0.7},
		{"both capped", 10, 40, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &forms.Definition{
				DocType: dto.DocTypeScheduleC,
				Checks: []forms.CrossCheck{{
					Name: "synthetic",
					Check: func(*dto.ExtractionResult) []forms.Finding {
						return append(findings(dto.SeverityError, tt.errors), findings(dto.SeverityWarning, tt.warnings)...)
					},
				}},
			}
			out := New(nil).Validate(&dto.ExtractionResult{}, def)
			assert.Equal(t, tt.want, out.Score)
			assert.Equal(t, tt.errors == 0, out.Valid)
		})
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	build := func() *dto.ExtractionResult {
		return &dto.ExtractionResult{Fields: []dto.ExtractedField{
			{Name: "net_profit"},
			amount("other_income", 500),
			amount("depletion", 100),
			amount("depreciation", 200),
		}}
	}
	form := lookup(t, dto.DocTypeScheduleC)
	v := New(nil)
	assert.Equal(t, v.Validate(build(), form), v.Validate(build(), form))
}
