package vcf

import "strings"

// Variant represents a single record from a single-sample VCF file.
type Variant struct {
	RecordID int    // 1-based data line ordinal, unique within the source file
	Line     int    // Line number in the source file
	Chrom    string // Chromosome name (e.g., "21", "chr21")
	Pos      int64  // 1-based genomic position
	ID       string // ID column as written
	Ref      string // Reference allele
	Alt      string // Alternate allele(s), comma-separated when multi-allelic
	Qual     string
	Filter   string
	Info     string
	Format   string // FORMAT column
	Sample   string // Sample column; its first subfield is the genotype
}

// IsIndel returns true if the variant is an insertion or deletion.
func (v *Variant) IsIndel() bool {
	return len(v.Ref) != len(v.Alt)
}

// IsMultiAllelic returns true if the ALT column lists more than one allele.
func (v *Variant) IsMultiAllelic() bool {
	return strings.Contains(v.Alt, ",")
}

// IndelDelta is the change in sequence length caused by applying the variant.
func (v *Variant) IndelDelta() int {
	return len(v.Alt) - len(v.Ref)
}

// Genotype returns the GT subfield of the sample column.
func (v *Variant) Genotype() string {
	gt, _, _ := strings.Cut(v.Sample, ":")
	return gt
}

// Zygosity classifies the sample genotype.
func (v *Variant) Zygosity() Zygosity {
	return ZygosityOf(v.Genotype())
}
