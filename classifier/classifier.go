// Package classifier gates documents by checking for the indicators of
// their declared form type.
package classifier

import (
	"log/slog"

	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/forms"
)

// Classifier checks text against form indicators.
type Classifier struct {
	registry *forms.Registry
	logger   *slog.Logger
}

// New builds a Classifier over a registry.
func New(registry *forms.Registry, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{registry: registry, logger: logger}
}

// Classify reports whether any indicator of the candidate type appears in
// the text. The gate is deliberately permissive; wrong numbers are caught
// by ranges and validation later.
func (c *Classifier) Classify(text string, candidate dto.DocumentType) (bool, error) {
	form, err := c.registry.Lookup(candidate)
	if err != nil {
		return false, err
	}
	return c.Count(text, form, 1) > 0, nil
}

// Count returns how many indicators of the form match, stopping at limit
// when limit is positive. Malformed indicators are skipped.
func (c *Classifier) Count(text string, form forms.Form, limit int) int {
	n := 0
	inds := form.Indicators()
	for i := range inds {
		re := inds[i].Regexp()
		if re == nil {
			c.logger.Warn("skipping malformed indicator", "document_type", form.Type(), "indicator", inds[i].Expr, "err", inds[i].Err())
			continue
		}
		if re.MatchString(text) {
			n++
			if limit > 0 && n >= limit {
				return n
			}
		}
	}
	return n
}

// Detect picks the form whose indicators match most often. Ties go to the
// earlier registered type.
func (c *Classifier) Detect(text string) (dto.DocumentType, bool) {
	var best dto.DocumentType
	bestScore := 0
	for _, form := range c.registry.Forms() {
		if score := c.Count(text, form, 0); score > bestScore {
			best, bestScore = form.Type(), score
		}
	}
	return best, bestScore > 0
}
