package forms

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/Aashish23092/tax-form-extraction/dto"
)

// overrideSchema constrains the pattern override file.
const overrideSchema = `{
  "type": "object",
  "required": ["forms"],
  "additionalProperties": false,
  "properties": {
    "forms": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "indicators": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "fields": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name"],
              "additionalProperties": false,
              "properties": {
                "name": {"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
                "type": {"enum": ["currency", "integer", "float", "percent", "boolean", "date", "string"]},
                "description": {"type": "string"},
                "required": {"type": "boolean"},
                "default_zero": {"type": "boolean"},
                "non_negative": {"type": "boolean"},
                "format": {"type": "string"},
                "plausible_range": {"$ref": "#/definitions/range"},
                "patterns": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "additionalProperties": false,
                    "properties": {
                      "label": {"type": "string"},
                      "keywords": {"type": "array", "items": {"type": "string"}},
                      "range": {"$ref": "#/definitions/range"}
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  },
  "definitions": {
    "range": {
      "type": "object",
      "required": ["min", "max"],
      "additionalProperties": false,
      "properties": {"min": {"type": "number"}, "max": {"type": "number"}}
    }
  }
}`

// OverrideFile is the YAML document accepted by LoadOverrides.
type OverrideFile struct {
	Forms map[string]FormOverride `yaml:"forms"`
}

// FormOverride replaces parts of a built-in form.
type FormOverride struct {
	Indicators []string        `yaml:"indicators"`
	Fields     []FieldOverride `yaml:"fields"`
}

// FieldOverride updates an existing field or declares a new one. Only the
// keys present in the file are applied.
type FieldOverride struct {
	Name        string         `yaml:"name"`
	Type        *dto.ValueType `yaml:"type"`
	Description *string        `yaml:"description"`
	Required    *bool          `yaml:"required"`
	DefaultZero *bool          `yaml:"default_zero"`
	NonNegative *bool          `yaml:"non_negative"`
	Format      *string        `yaml:"format"`
	Plausible   *Range         `yaml:"plausible_range"`
	Patterns    []Pattern      `yaml:"patterns"`
}

// LoadOverrides reads a YAML pattern file and returns a registry with the
// overrides applied on top of the built-in forms.
func LoadOverrides(path string, logger *slog.Logger) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern file: %w", err)
	}
	defs, err := ApplyOverrides(Builtin(), data)
	if err != nil {
		return nil, fmt.Errorf("pattern file %s: %w", path, err)
	}
	return NewRegistry(logger, defs...), nil
}

// ApplyOverrides validates a YAML override document and merges it into defs.
func ApplyOverrides(defs []*Definition, data []byte) ([]*Definition, error) {
	if err := validateOverrides(data); err != nil {
		return nil, err
	}

	var file OverrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode overrides: %w", err)
	}

	byType := make(map[dto.DocumentType]*Definition, len(defs))
	out := make([]*Definition, len(defs))
	for i, d := range defs {
		out[i] = d.clone()
		byType[d.DocType] = out[i]
	}

	for key, fo := range file.Forms {
		docType, err := dto.ParseDocumentType(key)
		if err != nil {
			return nil, err
		}
		def, ok := byType[docType]
		if !ok {
			return nil, fmt.Errorf("%w: %s", dto.ErrUnsupportedDocumentType, key)
		}
		if len(fo.Indicators) > 0 {
			def.IndicatorList = indicators(fo.Indicators...)
		}
		for _, f := range fo.Fields {
			if err := applyField(def, f); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	return out, nil
}

func applyField(def *Definition, o FieldOverride) error {
	spec := def.Field(o.Name)
	if spec == nil {
		if o.Type == nil || len(o.Patterns) == 0 {
			return fmt.Errorf("new field %s needs a type and patterns", o.Name)
		}
		def.Fields = append(def.Fields, FieldSpec{Name: o.Name})
		spec = &def.Fields[len(def.Fields)-1]
	}

	if o.Type != nil {
		spec.Type = *o.Type
	}
	if o.Description != nil {
		spec.Description = *o.Description
	}
	if o.Required != nil {
		spec.Required = *o.Required
		if spec.Required && !contains(def.Minimal, spec.Name) {
			def.Minimal = append(def.Minimal, spec.Name)
		}
	}
	if o.DefaultZero != nil {
		spec.DefaultZero = *o.DefaultZero
	}
	if o.NonNegative != nil {
		spec.NonNegative = *o.NonNegative
	}
	if o.Format != nil {
		spec.Format = *o.Format
	}
	if o.Plausible != nil {
		r := *o.Plausible
		spec.Plausible = &r
	}
	if len(o.Patterns) > 0 {
		spec.Patterns = append([]Pattern(nil), o.Patterns...)
	}
	return nil
}

func validateOverrides(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	// round trip through JSON so the validator sees plain JSON types
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert overrides: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("convert overrides: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("patterns.schema.json", strings.NewReader(overrideSchema)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("patterns.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("overrides do not match schema: %w", err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
