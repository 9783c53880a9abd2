package forms

import (
	"fmt"
	"log/slog"

	"github.com/Aashish23092/tax-form-extraction/dto"
)

// Registry maps document types to their forms. It is built once at
// startup and only read afterwards, so it is safe for concurrent use.
type Registry struct {
	forms map[dto.DocumentType]Form
	order []dto.DocumentType
}

// NewRegistry compiles the given definitions. Malformed expressions are
// logged and left on the pattern so extraction can skip them.
func NewRegistry(logger *slog.Logger, defs ...*Definition) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{forms: make(map[dto.DocumentType]Form, len(defs))}
	for _, d := range defs {
		for _, err := range d.compile() {
			logger.Warn("pattern library: invalid expression", "document_type", d.DocType, "err", err)
		}
		if _, exists := r.forms[d.DocType]; !exists {
			r.order = append(r.order, d.DocType)
		}
		r.forms[d.DocType] = d
	}
	return r
}

// Builtin returns fresh copies of every built-in definition.
func Builtin() []*Definition {
	return []*Definition{
		ScheduleC(),
		Form1040(),
		ScheduleE(),
		ScheduleB(),
		Form1065(),
		Form1120(),
		W2(),
	}
}

// DefaultRegistry returns a registry of the built-in forms.
func DefaultRegistry(logger *slog.Logger) *Registry {
	return NewRegistry(logger, Builtin()...)
}

// Lookup returns the form for a document type.
func (r *Registry) Lookup(t dto.DocumentType) (Form, error) {
	f, ok := r.forms[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dto.ErrUnsupportedDocumentType, t)
	}
	return f, nil
}

// Forms returns all registered forms in registration order.
func (r *Registry) Forms() []Form {
	out := make([]Form, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.forms[t])
	}
	return out
}

// Types returns the registered document types in registration order.
func (r *Registry) Types() []dto.DocumentType {
	return append([]dto.DocumentType(nil), r.order...)
}
