// Package export writes extraction envelopes to spreadsheets for review.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/forms"
)

const (
	extractionSheet = "Extraction"
	validationSheet = "Validation"
)

// WriteXLSX writes one envelope as a workbook with an Extraction sheet
// (one row per field, in pattern library order when form is given) and a
// Validation sheet.
func WriteXLSX(w io.Writer, env *dto.ExtractionEnvelope, form forms.Form) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", extractionSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(validationSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if err := writeExtraction(f, env, fieldOrder(env, form)); err != nil {
		return err
	}
	if err := writeValidation(f, env); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func fieldOrder(env *dto.ExtractionEnvelope, form forms.Form) []string {
	if form != nil {
		return form.SupportedFields()
	}
	names := make([]string, 0, len(env.Data))
	for name := range env.Data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeExtraction(f *excelize.File, env *dto.ExtractionEnvelope, names []string) error {
	rows := [][]any{
		{"Document ID", env.Metadata.DocumentID},
		{"Document Type", string(env.Metadata.DocumentType)},
		{"Success", env.Success},
	}
	if env.Error != "" {
		rows = append(rows, []any{"Error", env.Error})
	}
	rows = append(rows,
		[]any{"OCR Confidence", env.Metadata.OCRConfidence},
		nil,
		[]any{"Field", "Value", "Confidence"},
	)
	for _, name := range names {
		v, ok := env.Data[name]
		if !ok {
			continue
		}
		var value any
		if v != nil {
			value = v.Interface()
		}
		rows = append(rows, []any{name, value, env.ConfidenceScores[name]})
	}
	return writeRows(f, extractionSheet, rows)
}

func writeValidation(f *excelize.File, env *dto.ExtractionEnvelope) error {
	val := env.Validation
	rows := [][]any{
		{"Valid", val.Valid},
		{"Score", val.Score},
		{},
		{"Severity", "Message"},
	}
	for _, e := range val.Errors {
		rows = append(rows, []any{"error", e})
	}
	for _, w := range val.Warnings {
		rows = append(rows, []any{"warning", w})
	}
	for _, a := range val.Adjustments {
		rows = append(rows, []any{"adjustment", fmt.Sprintf("%s = %v (%s)", a.Field, a.Value, a.Formula)})
	}
	return writeRows(f, validationSheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
