package output

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/vstaneva/familyvcf2fasta/internal/duckdb"
	"github.com/vstaneva/familyvcf2fasta/internal/haplotype"
	"github.com/vstaneva/familyvcf2fasta/internal/phase"
	"github.com/vstaneva/familyvcf2fasta/internal/vcf"
)

// MemberSummary is the build outcome of one family member.
type MemberSummary struct {
	Member  string
	Filter  vcf.FilterStats
	Build   haplotype.BuildResult
	Columns int // gapped alignment length
}

// SummaryWriter prints build and phasing results as aligned tables.
type SummaryWriter struct {
	w *tabwriter.Writer
}

// NewSummaryWriter creates a summary writer.
func NewSummaryWriter(w io.Writer) *SummaryWriter {
	return &SummaryWriter{w: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

// WriteMembers writes one row per family member.
func (s *SummaryWriter) WriteMembers(members []MemberSummary) error {
	fmt.Fprintln(s.w, "Member\tAdmitted\tSkipped\tHet\tHom\tDropped\tRefMismatch\tColumns")
	for _, m := range members {
		skipped := 0
		for _, n := range m.Filter.Skipped {
			skipped += n
		}
		fmt.Fprintf(s.w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			m.Member, m.Filter.Admitted, skipped,
			m.Build.HetApplied, m.Build.HomApplied, len(m.Build.Dropped),
			m.Build.RefMismatches, m.Columns)
	}
	return s.w.Flush()
}

// WriteSkipReasons writes the filter's skip counts for one member, sorted by
// reason.
func (s *SummaryWriter) WriteSkipReasons(m MemberSummary) error {
	reasons := make([]string, 0, len(m.Filter.Skipped))
	for r := range m.Filter.Skipped {
		reasons = append(reasons, r)
	}
	slices.Sort(reasons)

	for _, r := range reasons {
		fmt.Fprintf(s.w, "%s\t%s\t%d\n", m.Member, r, m.Filter.Skipped[r])
	}
	return s.w.Flush()
}

// WriteReport writes the phasing accuracy counts.
func (s *SummaryWriter) WriteReport(r *phase.Report) error {
	decided := r.Decided()
	fmt.Fprintf(s.w, "Phased variants:\t%d\n", decided)
	fmt.Fprintf(s.w, "  Correct:\t%d\t(%s)\n", r.Correct, percent(r.Correct, decided))
	fmt.Fprintf(s.w, "  Incorrect:\t%d\t(%s)\n", r.Incorrect, percent(r.Incorrect, decided))
	fmt.Fprintf(s.w, "  No ground truth:\t%d\t(%s)\n", r.NoTruth, percent(r.NoTruth, decided))
	fmt.Fprintf(s.w, "Heterozygous applied:\t%d\n", r.HetApplied)
	if r.Unmatched > 0 {
		fmt.Fprintf(s.w, "Unmatched tally entries:\t%d\n", r.Unmatched)
	}
	return s.w.Flush()
}

// WriteVotes writes one row per decided variant.
func (s *SummaryWriter) WriteVotes(votes []phase.Vote) error {
	fmt.Fprintln(s.w, "ID\tLocation\tTally\tBefore\tAfter\tOutcome")
	for _, v := range votes {
		fmt.Fprintf(s.w, "%d\t%s:%d\t%d\t%s\t%s\t%s\n",
			v.ID, v.Chrom, v.Pos, v.Tally, v.Before, v.After, v.Outcome)
	}
	return s.w.Flush()
}

// WriteRuns writes one row per stored run.
func (s *SummaryWriter) WriteRuns(runs []duckdb.Run) error {
	fmt.Fprintln(s.w, "Run\tCreated\tWindow\tMode\tCorrect\tIncorrect\tNoTruth\tHet")
	for _, r := range runs {
		mode := r.PhaserMode
		if mode == "" {
			mode = "-"
		}
		fmt.Fprintf(s.w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Window, mode,
			r.Correct, r.Incorrect, r.NoTruth, r.HetApplied)
	}
	return s.w.Flush()
}

// WriteInputs writes the files a run read.
func (s *SummaryWriter) WriteInputs(inputs []duckdb.Input) error {
	fmt.Fprintln(s.w, "Member\tRole\tSize\tModified\tPath")
	for _, in := range inputs {
		fmt.Fprintf(s.w, "%s\t%s\t%d\t%s\t%s\n",
			in.Member, in.Role, in.Size, in.ModTime.Local().Format(time.DateTime), in.Path)
	}
	return s.w.Flush()
}

func percent(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
}
