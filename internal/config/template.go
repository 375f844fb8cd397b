package config

import (
	"fmt"
	"os"
)

// Template is the annotated family config written by "config init".
const Template = `# familyvcf2fasta family configuration.
#
# common: the reference FASTA and the window descriptor, a three-line file
# holding the chromosome, the start and the end of the phased region.
# Interesting windows can be found with "familyvcf2fasta regions".
common:
  reference: build37-chr21.fa
  window: NA12880-chr21.posinfo
  assembly: hg19

# Each member has a VCF and the two gapped FASTA files built from it.
child:
  vcf_file: NA12880-chr21-unphased-clean.vcf
  fasta1: NA12880-chr21_1.fa
  fasta2: NA12880-chr21_2.fa
  # phased_vcf defaults to <vcf_file without .vcf>.phased.vcf
  phased_vcf: ""

mother:
  vcf_file: NA12878-chr21-clean.vcf
  fasta1: NA12878-chr21_1.fa
  fasta2: NA12878-chr21_2.fa

father:
  vcf_file: NA12877-chr21-clean.vcf
  fasta1: NA12877-chr21_1.fa
  fasta2: NA12877-chr21_2.fa

# The phaser is called as: binary [mode] motherA motherB fatherA fatherB childA childB
phaser:
  binary: mfc_similarity_phaser
  mode: ""
  workdir: .
  output: phase.txt
  capture_stdout: true

# store.path enables the run history database; leave empty to disable.
store:
  path: ""
  window_cache: ""

run:
  workers: 1
  lenient: false
`

// WriteTemplate writes Template to path. An existing file is only
// replaced when force is set.
func WriteTemplate(path string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if _, err := f.WriteString(Template); err != nil {
		f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	return f.Close()
}
