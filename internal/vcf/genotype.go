package vcf

import "strings"

// Zygosity of a sample at a variant site.
type Zygosity int

const (
	Heterozygous Zygosity = iota
	Homozygous
)

func (z Zygosity) String() string {
	if z == Homozygous {
		return "homozygous"
	}
	return "heterozygous"
}

// Phased genotypes written back after phasing.
const (
	GenotypeFirst  = "1|0" // variant on the first haplotype
	GenotypeSecond = "0|1" // variant on the second haplotype
)

// ZygosityOf classifies a GT value. Only a genotype whose two allele
// indicators are both "1" is homozygous; everything else, including
// no-calls, counts as heterozygous.
func ZygosityOf(gt string) Zygosity {
	a, b, ok := splitAlleles(gt)
	if ok && a == "1" && b == "1" {
		return Homozygous
	}
	return Heterozygous
}

// splitAlleles splits a diploid GT on its phased or unphased separator.
func splitAlleles(gt string) (string, string, bool) {
	if i := strings.IndexAny(gt, "/|"); i >= 0 {
		return gt[:i], gt[i+1:], true
	}
	return "", "", false
}

// ReplaceGenotype returns sample with its GT subfield replaced by gt. Every
// other subfield is kept byte for byte.
func ReplaceGenotype(sample, gt string) string {
	if i := strings.IndexByte(sample, ':'); i >= 0 {
		return gt + sample[i:]
	}
	return gt
}
