package forms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/tax-form-extraction/dto"
)

const overrideYAML = `
forms:
  schedule_c:
    fields:
      - name: meals
        plausible_range: {min: 0, max: 25000}
      - name: gross_receipts
        type: currency
        description: Gross receipts or sales, line 1
        default_zero: true
        patterns:
          - label: '\b1\s*gross\s+receipts'
  w-2:
    indicators:
      - 'Wage\s+and\s+Tax\s+Statement'
`

func TestApplyOverrides(t *testing.T) {
	defs, err := ApplyOverrides(Builtin(), []byte(overrideYAML))
	require.NoError(t, err)

	reg := NewRegistry(nil, defs...)
	form, err := reg.Lookup(dto.DocTypeScheduleC)
	require.NoError(t, err)

	def := form.(*Definition)
	meals := def.Field("meals")
	require.NotNil(t, meals)
	assert.Equal(t, 25000.0, meals.Plausible.Max)
	assert.Len(t, meals.Patterns, 3, "patterns are kept when not overridden")

	receipts := def.Field("gross_receipts")
	require.NotNil(t, receipts)
	assert.Equal(t, dto.TypeCurrency, receipts.Type)
	assert.True(t, receipts.DefaultZero)
	require.Len(t, receipts.Patterns, 1)
	assert.NotNil(t, receipts.Patterns[0].Regexp())

	w2, err := reg.Lookup(dto.DocTypeW2)
	require.NoError(t, err)
	assert.Len(t, w2.Indicators(), 1)

	// built-in tables are untouched
	assert.Equal(t, 10000.0, ScheduleC().Field("meals").Plausible.Max)
}

func TestApplyOverridesRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "forms:\n  schedule_c:\n    colour: blue\n",
		"bad value type":  "forms:\n  schedule_c:\n    fields:\n      - name: meals\n        type: money\n",
		"range needs max": "forms:\n  schedule_c:\n    fields:\n      - name: meals\n        plausible_range: {min: 1}\n",
		"missing forms":   "patterns: []\n",
	}
	for name, doc := range cases {
		_, err := ApplyOverrides(Builtin(), []byte(doc))
		assert.Error(t, err, name)
	}
}

func TestApplyOverridesRejectsIncompleteNewField(t *testing.T) {
	doc := "forms:\n  schedule_c:\n    fields:\n      - name: tips\n        type: currency\n"
	_, err := ApplyOverrides(Builtin(), []byte(doc))
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(overrideYAML), 0o600))

	reg, err := LoadOverrides(path, nil)
	require.NoError(t, err)
	form, err := reg.Lookup(dto.DocTypeScheduleC)
	require.NoError(t, err)
	assert.Contains(t, form.SupportedFields(), "gross_receipts")

	_, err = LoadOverrides(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}
