package haplotype

import "fmt"

// InvariantViolation reports inconsistent builder or aligner state. It means
// a bug, not bad input, and must never be recovered from.
type InvariantViolation struct {
	Op      string
	Variant VariantID
	Message string
}

func (e *InvariantViolation) Error() string {
	if e.Variant != NoVariant {
		return fmt.Sprintf("invariant violation in %s (variant %d): %s", e.Op, e.Variant, e.Message)
	}
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Message)
}

func violation(op string, id VariantID, format string, args ...any) error {
	return &InvariantViolation{Op: op, Variant: id, Message: fmt.Sprintf(format, args...)}
}
