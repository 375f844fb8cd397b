// Package haplotype reconstructs the two haplotype sequences of an individual
// from a reference window and a stream of variants, and aligns them against
// each other with gaps.
//
// Three coordinate spaces are involved and each has its own type:
//
//	RefPos   0-based offset into the reference window
//	HapPos   0-based index into one haplotype's mutated sequence
//	AlignPos 0-based column of the gapped alignment of both haplotypes
//
// Conversions go through Haplotype.ToHap and Alignment.Column only.
package haplotype

// VariantID identifies the variant that produced a sequence position.
// Zero means the position is reference sequence or a gap owned by nobody.
type VariantID int

// NoVariant marks positions not owned by any variant.
const NoVariant VariantID = 0

// RefPos is a 0-based offset into the reference window.
type RefPos int

// HapPos is a 0-based index into a haplotype's mutated sequence.
type HapPos int

// AlignPos is a 0-based column of the gapped alignment.
type AlignPos int

// Gap is the symbol inserted into a gapped sequence.
const Gap = '-'
