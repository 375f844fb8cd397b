package haplotype

import (
	"slices"

	"github.com/vstaneva/familyvcf2fasta/internal/vcf"
)

// Haplotype is one of an individual's two reconstructed sequences.
type Haplotype struct {
	sequence   []byte      // mutated sequence, indexed by HapPos
	occupancy  []VariantID // owner of each reference position, indexed by RefPos
	indelDelta []int       // length change of the variant starting at each RefPos
	provenance []VariantID // owner of each sequence position, indexed by HapPos
}

func newHaplotype(ref []byte) *Haplotype {
	return &Haplotype{
		sequence:   slices.Clone(ref),
		occupancy:  make([]VariantID, len(ref)),
		indelDelta: make([]int, len(ref)),
		provenance: make([]VariantID, len(ref)),
	}
}

// Sequence returns the mutated sequence.
func (h *Haplotype) Sequence() []byte {
	return h.sequence
}

// Provenance returns the owning variant of each sequence position.
func (h *Haplotype) Provenance() []VariantID {
	return h.provenance
}

// IndelDelta returns the length change introduced at reference position p.
func (h *Haplotype) IndelDelta(p RefPos) int {
	return h.indelDelta[p]
}

// Owner returns the variant owning reference position p, or NoVariant.
func (h *Haplotype) Owner(p RefPos) VariantID {
	return h.occupancy[p]
}

// Offset is the cumulative length change of all variants starting before p.
func (h *Haplotype) Offset(p RefPos) int {
	off := 0
	for _, d := range h.indelDelta[:p] {
		off += d
	}
	return off
}

// ToHap converts a reference position to this haplotype's sequence index.
func (h *Haplotype) ToHap(p RefPos) HapPos {
	return HapPos(int(p) + h.Offset(p))
}

// free reports whether no variant owns any reference position in [p, p+n).
func (h *Haplotype) free(p RefPos, n int) bool {
	for _, id := range h.occupancy[p : int(p)+n] {
		if id != NoVariant {
			return false
		}
	}
	return true
}

// apply places v at p when its reference span is unowned. It reports false,
// leaving the haplotype untouched, when the span is taken.
func (h *Haplotype) apply(id VariantID, p RefPos, v *vcf.Variant) (bool, error) {
	span := len(v.Ref)
	if int(p) < 0 || int(p)+span > len(h.occupancy) {
		return false, violation("apply", id, "reference span [%d,%d) outside window of %d", p, int(p)+span, len(h.occupancy))
	}
	if !h.free(p, span) {
		return false, nil
	}

	hp := int(h.ToHap(p))
	if hp < 0 || hp+span > len(h.sequence) {
		return false, violation("apply", id, "sequence span [%d,%d) outside haplotype of %d", hp, hp+span, len(h.sequence))
	}

	before := len(h.sequence)
	h.sequence = slices.Replace(h.sequence, hp, hp+span, []byte(v.Alt)...)
	h.provenance = slices.Replace(h.provenance, hp, hp+span, slices.Repeat([]VariantID{id}, len(v.Alt))...)

	delta := v.IndelDelta()
	if measured := len(h.sequence) - before; measured != delta {
		return false, violation("apply", id, "sequence length changed by %d, expected %d", measured, delta)
	}
	if len(h.provenance) != len(h.sequence) {
		return false, violation("apply", id, "provenance length %d, sequence length %d", len(h.provenance), len(h.sequence))
	}

	h.indelDelta[p] = delta
	for i := int(p); i < int(p)+span; i++ {
		h.occupancy[i] = id
	}
	return true, nil
}
