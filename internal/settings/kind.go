package settings

import (
	"fmt"
	"strings"
)

// Kind identifies a settings group type at external boundaries. Registry
// operations are typed per group; Kind exists only for surfaces that receive
// the group name as text (CLI arguments, documents).
type Kind string

const (
	KindDesign    Kind = "design"
	KindFinancial Kind = "financial"
)

// Kinds lists all settings group kinds.
var Kinds = []Kind{KindDesign, KindFinancial}

// ParseKind maps a user-supplied group name to its Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindDesign:
		return KindDesign, nil
	case KindFinancial:
		return KindFinancial, nil
	default:
		return "", fmt.Errorf("unknown settings group %q (valid: %v)", s, Kinds)
	}
}

// FieldNames returns the field names of the kind in canonical order.
func (k Kind) FieldNames() []string {
	switch k {
	case KindDesign:
		return []string{"x", "y"}
	case KindFinancial:
		return []string{"years", "interest_annual"}
	default:
		return nil
	}
}
