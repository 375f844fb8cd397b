package haplotype

import (
	"go.uber.org/zap"

	"github.com/vstaneva/familyvcf2fasta/internal/vcf"
	"github.com/vstaneva/familyvcf2fasta/internal/window"
)

// Placement records which haplotypes received a variant.
type Placement int

const (
	Dropped Placement = iota // both spans were already owned
	OnFirst
	OnSecond
	OnBoth
)

func (p Placement) String() string {
	switch p {
	case OnFirst:
		return "first"
	case OnSecond:
		return "second"
	case OnBoth:
		return "both"
	}
	return "dropped"
}

// Applied is the outcome for one admitted variant.
type Applied struct {
	ID        VariantID
	Pos       int64
	Zygosity  vcf.Zygosity
	Placement Placement
}

// BuildResult summarises the variants a Builder has seen.
type BuildResult struct {
	Applied       []Applied
	Dropped       []VariantID
	HetApplied    int // heterozygous variants placed on a haplotype
	HomApplied    int // homozygous variants placed on at least one haplotype
	RefMismatches int // variants whose REF disagrees with the reference window
}

// Builder applies variants to the two haplotypes of one individual. Its
// state is owned by the builder and never shared between individuals.
type Builder struct {
	window window.Window
	ref    []byte
	haps   [2]*Haplotype
	seen   map[VariantID]bool
	result BuildResult
	logger *zap.Logger
}

// NewBuilder starts both haplotypes as copies of ref, the sequence of w.
func NewBuilder(w window.Window, ref []byte) *Builder {
	return &Builder{
		window: w,
		ref:    ref,
		haps:   [2]*Haplotype{newHaplotype(ref), newHaplotype(ref)},
		seen:   make(map[VariantID]bool),
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for placement and mismatch messages.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// First returns haplotype 1.
func (b *Builder) First() *Haplotype { return b.haps[0] }

// Second returns haplotype 2.
func (b *Builder) Second() *Haplotype { return b.haps[1] }

// Result returns the outcomes recorded so far.
func (b *Builder) Result() BuildResult { return b.result }

// Apply places an admissible variant. Haplotype 1 is tried first. A
// homozygous variant is also tried on haplotype 2; a heterozygous one only
// when haplotype 1's span is already owned. A variant neither haplotype can
// take is dropped and recorded in the result.
func (b *Builder) Apply(v *vcf.Variant) (Placement, error) {
	id := VariantID(v.RecordID)
	if id <= NoVariant {
		return Dropped, violation("apply", id, "variant id must be positive")
	}
	if b.seen[id] {
		return Dropped, violation("apply", id, "duplicate variant id")
	}
	b.seen[id] = true

	p := RefPos(v.Pos - b.window.Start)
	if int(p) < 0 || int(p)+len(v.Ref) > len(b.ref) {
		return Dropped, violation("apply", id, "position %d does not fit window %s", v.Pos, b.window)
	}

	if string(b.ref[int(p):int(p)+len(v.Ref)]) != v.Ref {
		b.result.RefMismatches++
		b.logger.Warn("reference allele disagrees with reference window",
			zap.Int64("pos", v.Pos),
			zap.String("vcf_ref", v.Ref),
			zap.ByteString("window_ref", b.ref[int(p):int(p)+len(v.Ref)]))
	}

	zyg := v.Zygosity()

	first, err := b.haps[0].apply(id, p, v)
	if err != nil {
		return Dropped, err
	}

	second := false
	if zyg == vcf.Homozygous || !first {
		second, err = b.haps[1].apply(id, p, v)
		if err != nil {
			return Dropped, err
		}
	}

	placement := Dropped
	switch {
	case first && second:
		placement = OnBoth
	case first:
		placement = OnFirst
	case second:
		placement = OnSecond
	}

	b.result.Applied = append(b.result.Applied, Applied{ID: id, Pos: v.Pos, Zygosity: zyg, Placement: placement})
	if placement == Dropped {
		b.result.Dropped = append(b.result.Dropped, id)
		b.logger.Debug("variant overlaps both haplotypes, dropped",
			zap.Int("id", int(id)),
			zap.Int64("pos", v.Pos))
		return placement, nil
	}

	if zyg == vcf.Homozygous {
		b.result.HomApplied++
	} else {
		b.result.HetApplied++
	}
	return placement, nil
}

// Align builds the gapped alignment of the two haplotypes.
func (b *Builder) Align() (*Alignment, error) {
	return Align(b.haps[0], b.haps[1])
}
