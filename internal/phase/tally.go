package phase

import (
	"fmt"
	"slices"

	"github.com/vstaneva/familyvcf2fasta/internal/haplotype"
	"github.com/vstaneva/familyvcf2fasta/internal/vcf"
)

// Tally is the running vote per variant. Positive favours the first
// haplotype, negative the second.
type Tally map[haplotype.VariantID]int

// Count tallies the phase string against the two provenance arrays of the
// child's alignment. At every decided column the first haplotype's owner
// gains the vote and, when the second haplotype's column is owned too, loses
// it again. Owners of the second haplotype are never charged themselves.
func Count(phase []byte, first, second []haplotype.VariantID) (Tally, error) {
	if len(first) != len(second) {
		return nil, fmt.Errorf("provenance lengths differ: %d and %d", len(first), len(second))
	}
	if len(phase) != len(first) {
		return nil, fmt.Errorf("phase string has %d columns, alignment has %d", len(phase), len(first))
	}

	t := make(Tally)
	for i, c := range phase {
		s, ok, err := vote(c, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		id1 := first[i]
		if id1 == haplotype.NoVariant {
			continue
		}
		t[id1] += s
		if second[i] != haplotype.NoVariant {
			t[id1] -= s
		}
	}
	return t, nil
}

// Decide returns the phased genotype for id. ok is false when the variant
// received no votes or its votes cancel out.
func (t Tally) Decide(id haplotype.VariantID) (gt string, ok bool) {
	switch n := t[id]; {
	case n > 0:
		return vcf.GenotypeFirst, true
	case n < 0:
		return vcf.GenotypeSecond, true
	}
	return "", false
}

// IDs returns the tallied variant ids in ascending order.
func (t Tally) IDs() []haplotype.VariantID {
	ids := make([]haplotype.VariantID, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
