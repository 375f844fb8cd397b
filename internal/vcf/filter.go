package vcf

import (
	"strings"

	"go.uber.org/zap"

	"github.com/vstaneva/familyvcf2fasta/internal/window"
)

// Decision is the outcome of classifying one record against a window.
type Decision int

const (
	Admit Decision = iota // apply the variant
	Skip                  // ignore the variant, keep scanning
	Stop                  // ignore the variant and everything after it
)

// Reasons a record is not admitted.
const (
	ReasonNoAlt        = "missing_alt"
	ReasonSymbolic     = "symbolic_alt"
	ReasonMultiAllelic = "multi_allelic"
	ReasonOtherChrom   = "other_chrom"
	ReasonBeforeWindow = "before_window"
	ReasonPastWindow   = "past_window"
)

// symbolicMarkers flag structural, imprecise or no-call alternates
// (<DEL>, breakends, spanning deletions).
var symbolicMarkers = []string{"<", ">", "[", "]", "*"}

// IsSymbolic reports whether the alternate allele is not a plain sequence.
func (v *Variant) IsSymbolic() bool {
	for _, m := range symbolicMarkers {
		if strings.Contains(v.Alt, m) {
			return true
		}
	}
	return false
}

// Classify decides whether v can be applied inside w. Records are assumed
// to be sorted by position within a chromosome: a record starting inside the
// window whose reference span does not fit yields Stop. A record starting
// before the window is skipped however far its span reaches.
func Classify(v *Variant, w window.Window) (Decision, string) {
	if !w.SameChrom(v.Chrom) {
		return Skip, ReasonOtherChrom
	}
	if v.Pos < w.Start {
		return Skip, ReasonBeforeWindow
	}
	if !w.Fits(v.Pos, len(v.Ref)) {
		return Stop, ReasonPastWindow
	}
	if v.Alt == "." {
		return Skip, ReasonNoAlt
	}
	if v.IsSymbolic() {
		return Skip, ReasonSymbolic
	}
	if v.IsMultiAllelic() {
		return Skip, ReasonMultiAllelic
	}
	return Admit, ""
}

// FilterStats counts records by outcome.
type FilterStats struct {
	Admitted int
	Skipped  map[string]int
	Stopped  bool // scanning ended at a record past the window
}

// Source yields variant records in file order. Next returns nil, nil once
// the records are exhausted.
type Source interface {
	Next() (*Variant, error)
}

// Filter streams admissible variants from a source.
type Filter struct {
	window window.Window
	logger *zap.Logger
}

// NewFilter creates a filter for w.
func NewFilter(w window.Window) *Filter {
	return &Filter{window: w, logger: zap.NewNop()}
}

// SetLogger sets the logger for per-record debug messages.
func (f *Filter) SetLogger(l *zap.Logger) {
	f.logger = l
}

// Scan reads variants from src and calls fn for each admissible one, in
// file order. Scanning ends at EOF, at the first record past the window, or
// when fn returns an error.
func (f *Filter) Scan(src Source, fn func(*Variant) error) (FilterStats, error) {
	stats := FilterStats{Skipped: make(map[string]int)}

	for {
		v, err := src.Next()
		if err != nil {
			return stats, err
		}
		if v == nil {
			return stats, nil
		}

		decision, reason := Classify(v, f.window)
		switch decision {
		case Stop:
			stats.Stopped = true
			f.logger.Debug("variant past window, stopping scan",
				zap.String("chrom", v.Chrom),
				zap.Int64("pos", v.Pos))
			return stats, nil
		case Skip:
			stats.Skipped[reason]++
			continue
		}

		stats.Admitted++
		if err := fn(v); err != nil {
			return stats, err
		}
	}
}
