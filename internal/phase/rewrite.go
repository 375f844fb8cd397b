package phase

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vstaneva/familyvcf2fasta/internal/fileio"
	"github.com/vstaneva/familyvcf2fasta/internal/haplotype"
	"github.com/vstaneva/familyvcf2fasta/internal/vcf"
)

// Outcome classifies a decided record against its original genotype.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeNoTruth   Outcome = "no_ground_truth"
)

// Vote is the decision taken for one variant record.
type Vote struct {
	ID      haplotype.VariantID
	Chrom   string
	Pos     int64
	Tally   int
	Before  string // original GT subfield
	After   string // phased GT subfield
	Outcome Outcome
}

// Report summarises a rewrite.
type Report struct {
	Correct    int
	Incorrect  int
	NoTruth    int
	HetApplied int // heterozygous variants the builder placed on a haplotype
	Unmatched  int // tallied variants with no record in the file
	Votes      []Vote
}

// Decided returns the number of rewritten records.
func (r *Report) Decided() int {
	return r.Correct + r.Incorrect + r.NoTruth
}

func (r *Report) add(v Vote) {
	switch v.Outcome {
	case OutcomeCorrect:
		r.Correct++
	case OutcomeIncorrect:
		r.Incorrect++
	default:
		r.NoTruth++
	}
	r.Votes = append(r.Votes, v)
}

// Classify compares a phased genotype with the original one.
func Classify(before, after string) Outcome {
	switch before {
	case after:
		return OutcomeCorrect
	case vcf.GenotypeFirst, vcf.GenotypeSecond:
		return OutcomeIncorrect
	}
	return OutcomeNoTruth
}

// Rewriter writes the phased genotypes of a tally back into a VCF.
type Rewriter struct {
	tally  Tally
	logger *zap.Logger
}

// NewRewriter creates a rewriter for the given tally.
func NewRewriter(t Tally) *Rewriter {
	return &Rewriter{tally: t, logger: zap.NewNop()}
}

// SetLogger sets the logger for per-record decisions.
func (rw *Rewriter) SetLogger(l *zap.Logger) {
	rw.logger = l
}

// Rewrite copies r to w. Records whose variant has a decided tally get the
// new GT subfield; every other line, malformed ones included, is copied
// byte for byte. Record ids are assigned exactly as vcf.Parser does.
func (rw *Rewriter) Rewrite(r io.Reader, w io.Writer) (*Report, error) {
	reader := bufio.NewReader(r)
	out := bufio.NewWriter(w)
	report := &Report{}
	seen := make(map[haplotype.VariantID]bool)

	lineNumber, ordinal := 0, 0
	for {
		raw, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read vcf line: %w", err)
		}
		if raw == "" {
			break
		}
		lineNumber++

		line := strings.TrimRight(raw, "\r\n")
		if line != "" && line[0] != '#' {
			ordinal++
			if rewritten, ok := rw.rewriteRecord(line, lineNumber, ordinal, report, seen); ok {
				raw = rewritten + raw[len(line):]
			}
		}

		if _, werr := out.WriteString(raw); werr != nil {
			return nil, fmt.Errorf("write vcf line: %w", werr)
		}
		if err == io.EOF {
			break
		}
	}

	for _, id := range rw.tally.IDs() {
		if _, ok := rw.tally.Decide(id); ok && !seen[id] {
			report.Unmatched++
			rw.logger.Warn("decided variant has no record", zap.Int("id", int(id)))
		}
	}
	if err := out.Flush(); err != nil {
		return nil, fmt.Errorf("flush vcf: %w", err)
	}
	return report, nil
}

func (rw *Rewriter) rewriteRecord(line string, lineNumber, ordinal int, report *Report, seen map[haplotype.VariantID]bool) (string, bool) {
	v, err := vcf.ParseRecord(line, lineNumber, ordinal)
	if err != nil {
		return "", false
	}
	id := haplotype.VariantID(v.RecordID)
	gt, ok := rw.tally.Decide(id)
	if !ok {
		return "", false
	}
	seen[id] = true

	vote := Vote{
		ID:     id,
		Chrom:  v.Chrom,
		Pos:    v.Pos,
		Tally:  rw.tally[id],
		Before: v.Genotype(),
		After:  gt,
	}
	vote.Outcome = Classify(vote.Before, vote.After)
	report.add(vote)
	rw.logger.Debug("phased variant",
		zap.Int("id", int(id)),
		zap.Int64("pos", v.Pos),
		zap.Int("tally", vote.Tally),
		zap.String("genotype", gt),
		zap.String("outcome", string(vote.Outcome)))

	fields := strings.Split(line, "\t")
	fields[9] = vcf.ReplaceGenotype(fields[9], gt)
	return strings.Join(fields, "\t"), true
}

// RewriteFile rewrites the VCF at in into out. The output is written to a
// temporary file next to out and renamed into place only on success.
func (rw *Rewriter) RewriteFile(in, out string) (*Report, error) {
	src, err := fileio.Open(in)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(out), "."+filepath.Base(out)+".*")
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	report, err := rw.Rewrite(src, tmp)
	if err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return nil, fmt.Errorf("rename output: %w", err)
	}
	return report, nil
}

// PhasedPath derives the rewritten VCF's path from the input's:
// child.vcf and child.vcf.gz both become child.phased.vcf.
func PhasedPath(vcfPath string) string {
	base := strings.TrimSuffix(vcfPath, ".gz")
	base = strings.TrimSuffix(base, ".vcf")
	return base + ".phased.vcf"
}
