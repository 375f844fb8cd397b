package haplotype

import "slices"

// Alignment holds the two haplotypes padded with gaps so that they have the
// same length and every reference position sits in the same column on both.
type Alignment struct {
	Sequences  [2][]byte
	Provenance [2][]VariantID
	columns    []AlignPos // column of each reference position's anchor base
}

// Len returns the number of alignment columns.
func (a *Alignment) Len() int {
	return len(a.Sequences[0])
}

// Column converts a reference position to its alignment column.
func (a *Alignment) Column(p RefPos) AlignPos {
	return a.columns[p]
}

// Align pads first and second with gaps in one pass over the reference
// positions. At each position p, for each haplotype, gaps are inserted after
// the anchor base and the haplotype's own inserted bases: first one gap per
// base the other haplotype inserts at p beyond this haplotype's own insertion
// (owned by nobody), then one gap per
// base this haplotype deletes at p (owned by the deleting variant). A single
// running gap counter per sequence keeps later insertions from landing on
// earlier ones.
func Align(first, second *Haplotype) (*Alignment, error) {
	n := len(first.occupancy)
	if len(second.occupancy) != n {
		return nil, violation("align", NoVariant, "haplotypes cover %d and %d reference positions", n, len(second.occupancy))
	}

	haps := [2]*Haplotype{first, second}
	a := &Alignment{columns: make([]AlignPos, n)}
	for h, hap := range haps {
		a.Sequences[h] = slices.Clone(hap.sequence)
		a.Provenance[h] = slices.Clone(hap.provenance)
	}

	var offset, gaps [2]int
	for p := range n {
		col := p + offset[0] + gaps[0]
		if other := p + offset[1] + gaps[1]; other != col {
			return nil, violation("align", NoVariant, "reference position %d in column %d on haplotype 1 and %d on haplotype 2", p, col, other)
		}
		a.columns[p] = AlignPos(col)

		for h := range 2 {
			own := haps[h].indelDelta[p]
			other := haps[1-h].indelDelta[p]
			at := col + 1 + max(own, 0)

			if ins := max(other, 0) - max(own, 0); ins > 0 {
				if err := a.insertGaps(h, at, ins, NoVariant); err != nil {
					return nil, err
				}
				gaps[h] += ins
				at += ins
			}

			if del := max(-own, 0); del > 0 {
				owner := haps[h].occupancy[p]
				if owner == NoVariant {
					return nil, violation("align", NoVariant, "deletion at reference position %d has no owner", p)
				}
				if err := a.insertGaps(h, at, del, owner); err != nil {
					return nil, err
				}
				gaps[h] += del
			}
		}

		offset[0] += haps[0].indelDelta[p]
		offset[1] += haps[1].indelDelta[p]
	}

	if len(a.Sequences[0]) != len(a.Sequences[1]) {
		return nil, violation("align", NoVariant, "gapped lengths differ: %d and %d", len(a.Sequences[0]), len(a.Sequences[1]))
	}
	for h := range 2 {
		if len(a.Provenance[h]) != len(a.Sequences[h]) {
			return nil, violation("align", NoVariant, "haplotype %d provenance length %d, sequence length %d", h+1, len(a.Provenance[h]), len(a.Sequences[h]))
		}
	}
	return a, nil
}

func (a *Alignment) insertGaps(h, at, count int, owner VariantID) error {
	if at < 0 || at > len(a.Sequences[h]) {
		return violation("align", owner, "gap insertion at %d outside haplotype %d of length %d", at, h+1, len(a.Sequences[h]))
	}
	a.Sequences[h] = slices.Insert(a.Sequences[h], at, slices.Repeat([]byte{Gap}, count)...)
	a.Provenance[h] = slices.Insert(a.Provenance[h], at, slices.Repeat([]VariantID{owner}, count)...)
	return nil
}
