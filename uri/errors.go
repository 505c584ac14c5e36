package uri

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedInput marks identifiers missing the caldav:// scheme.
	ErrMalformedInput = errors.New("identifier lacks caldav:// scheme prefix")
	// ErrNoMatch marks identifiers whose shape fits no catalog template.
	ErrNoMatch = errors.New("no resource template matches identifier")
	// ErrUnknownTemplate marks lookups of template names not in the catalog.
	ErrUnknownTemplate = errors.New("unknown resource template")
)

// ValidationError carries the accumulated per-variable problems for an
// identifier whose shape matched a template but whose values are invalid.
type ValidationError struct {
	Template string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid variables for template %s: %s", e.Template, strings.Join(e.Problems, "; "))
}

// MissingVariablesError reports placeholders left unresolved by Build.
type MissingVariablesError struct {
	Template string
	Names    []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("unresolved placeholders for template %s: %s", e.Template, strings.Join(e.Names, ", "))
}
