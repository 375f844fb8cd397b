package phase

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vstaneva/familyvcf2fasta/internal/haplotype"
	"github.com/vstaneva/familyvcf2fasta/internal/vcf"
	"github.com/vstaneva/familyvcf2fasta/internal/window"
)

const sampleVCF = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n" +
	"21\t3\t.\tG\tT\t50\tPASS\t.\tGT:DP\t0|1:10\n" +
	"21\t5\t.\tA\tG\t50\tPASS\t.\tGT:DP\t1|0:12\n" +
	"broken line\n" +
	"21\t7\t.\tG\tC\t50\tPASS\t.\tGT\t0/1\n" +
	"21\t9\t.\tA\tT\t50\tPASS\t.\tGT:DP\t0/1:3\n"

func TestRewrite_ReplacesOnlyGenotype(t *testing.T) {
	// Ordinals: 1, 2, 3 (broken), 4, 5.
	tally := Tally{1: 2, 2: 3, 4: -1, 5: 0}

	var out bytes.Buffer
	report, err := NewRewriter(tally).Rewrite(strings.NewReader(sampleVCF), &out)
	require.NoError(t, err)

	lines := strings.Split(out.String(), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "##fileformat=VCFv4.2", lines[0])
	assert.Equal(t, "21\t3\t.\tG\tT\t50\tPASS\t.\tGT:DP\t1|0:10", lines[2])
	assert.Equal(t, "21\t5\t.\tA\tG\t50\tPASS\t.\tGT:DP\t1|0:12", lines[3])
	assert.Equal(t, "broken line", lines[4])
	assert.Equal(t, "21\t7\t.\tG\tC\t50\tPASS\t.\tGT\t0|1", lines[5])
	assert.Equal(t, "21\t9\t.\tA\tT\t50\tPASS\t.\tGT:DP\t0/1:3", lines[6], "zero tally is left untouched")

	assert.Equal(t, 1, report.Correct)
	assert.Equal(t, 1, report.Incorrect)
	assert.Equal(t, 1, report.NoTruth)
	assert.Equal(t, 3, report.Decided())
	assert.Zero(t, report.Unmatched)

	require.Len(t, report.Votes, 3)
	assert.Equal(t, Vote{ID: 1, Chrom: "21", Pos: 3, Tally: 2, Before: "0|1", After: "1|0", Outcome: OutcomeIncorrect}, report.Votes[0])
	assert.Equal(t, OutcomeCorrect, report.Votes[1].Outcome)
	assert.Equal(t, OutcomeNoTruth, report.Votes[2].Outcome)
}

func TestRewrite_EmptyTallyIsIdentity(t *testing.T) {
	var out bytes.Buffer
	report, err := NewRewriter(Tally{}).Rewrite(strings.NewReader(sampleVCF), &out)
	require.NoError(t, err)

	assert.Equal(t, sampleVCF, out.String())
	assert.Zero(t, report.Decided())
}

func TestRewrite_KeepsLineEndingsAndMissingFinalNewline(t *testing.T) {
	in := "#h\r\n21\t3\t.\tG\tT\t.\t.\t.\tGT\t0/1\r\n21\t5\t.\tA\tG\t.\t.\t.\tGT\t0/1"

	var out bytes.Buffer
	_, err := NewRewriter(Tally{1: 1, 2: -1}).Rewrite(strings.NewReader(in), &out)
	require.NoError(t, err)

	assert.Equal(t, "#h\r\n21\t3\t.\tG\tT\t.\t.\t.\tGT\t1|0\r\n21\t5\t.\tA\tG\t.\t.\t.\tGT\t0|1", out.String())
}

func TestRewrite_CountsUnmatchedVariants(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	rw := NewRewriter(Tally{1: 1, 40: 1, 30: -2, 50: 0})
	rw.SetLogger(zap.New(core))

	var out bytes.Buffer
	report, err := rw.Rewrite(strings.NewReader(sampleVCF), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Unmatched)

	var logged []int64
	for _, e := range logs.FilterMessage("decided variant has no record").All() {
		logged = append(logged, e.ContextMap()["id"].(int64))
	}
	assert.Equal(t, []int64{30, 40}, logged)
}

func TestRewrite_NumericIDColumnDoesNotSelectRecord(t *testing.T) {
	in := "#h\n" +
		"21\t3\t3\tG\tT\t.\t.\t.\tGT\t0/1\n" +
		"21\t5\t.\tA\tG\t.\t.\t.\tGT\t0/1\n" +
		"21\t7\t.\tG\tC\t.\t.\t.\tGT\t0/1\n"

	var out bytes.Buffer
	report, err := NewRewriter(Tally{3: -2}).Rewrite(strings.NewReader(in), &out)
	require.NoError(t, err)

	assert.Equal(t, strings.Replace(in, "C\t.\t.\t.\tGT\t0/1", "C\t.\t.\t.\tGT\t0|1", 1), out.String())
	require.Len(t, report.Votes, 1)
	assert.Equal(t, int64(7), report.Votes[0].Pos)
}

func TestRewriteFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "child.vcf")
	require.NoError(t, os.WriteFile(in, []byte(sampleVCF), 0o644))

	out := PhasedPath(in)
	assert.Equal(t, filepath.Join(dir, "child.phased.vcf"), out)

	report, err := NewRewriter(Tally{2: -5}).RewriteFile(in, out)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Incorrect)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "21\t5\t.\tA\tG\t50\tPASS\t.\tGT:DP\t0|1:12\n")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary file left behind")
}

func TestRewriteFile_MissingInputWritesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.vcf")

	_, err := NewRewriter(Tally{}).RewriteFile(filepath.Join(dir, "missing.vcf"), out)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, out)
}

func TestPhasedPath(t *testing.T) {
	assert.Equal(t, "a/child.phased.vcf", PhasedPath("a/child.vcf"))
	assert.Equal(t, "a/child.phased.vcf", PhasedPath("a/child.vcf.gz"))
	assert.Equal(t, "child.txt.phased.vcf", PhasedPath("child.txt"))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, OutcomeCorrect, Classify("1|0", "1|0"))
	assert.Equal(t, OutcomeIncorrect, Classify("0|1", "1|0"))
	assert.Equal(t, OutcomeNoTruth, Classify("0/1", "1|0"))
	assert.Equal(t, OutcomeNoTruth, Classify("1|1", "0|1"))
}

// buildChild runs the child's variants through the filter, builder and
// aligner the way the build command does.
func buildChild(t *testing.T) (*haplotype.Builder, *haplotype.Alignment) {
	t.Helper()
	w := window.Window{Chrom: "21", Start: 1, End: 11}
	b := haplotype.NewBuilder(w, []byte("ACGTACGTAC"))

	parser, err := vcf.NewParser(filepath.Join("testdata", "child.vcf"))
	require.NoError(t, err)
	defer parser.Close()

	stats, err := vcf.NewFilter(w).Scan(parser, func(v *vcf.Variant) error {
		_, err := b.Apply(v)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 3, stats.Admitted)

	a, err := b.Align()
	require.NoError(t, err)
	return b, a
}

func TestPhase_EndToEnd(t *testing.T) {
	b, a := buildChild(t)
	require.Equal(t, "ACTTGCGT--", string(a.Sequences[0]))
	require.Equal(t, "ACGTACGT--", string(a.Sequences[1]))

	tally, err := Count(bytes.Repeat([]byte{SymbolFather}, a.Len()), a.Provenance[0], a.Provenance[1])
	require.NoError(t, err)

	// The homozygous deletion sits on both haplotypes and cancels out; the
	// multi-allelic record never enters the tally.
	assert.Equal(t, Tally{1: 1, 2: 1, 4: 0}, tally)

	dir := t.TempDir()
	out := filepath.Join(dir, "child.phased.vcf")
	report, err := NewRewriter(tally).RewriteFile(filepath.Join("testdata", "child.vcf"), out)
	require.NoError(t, err)
	report.HetApplied = b.Result().HetApplied

	assert.Equal(t, 2, report.NoTruth)
	assert.Equal(t, 2, report.HetApplied)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join("testdata", "child.vcf"))
	require.NoError(t, err)

	expected := strings.Replace(string(want), "GT:DP\t0/1:10", "GT:DP\t1|0:10", 1)
	expected = strings.Replace(expected, "GT:DP\t0/1:12", "GT:DP\t1|0:12", 1)
	assert.Equal(t, expected, string(got))
	assert.Contains(t, string(got), "21\t6\t.\tC\tA,T\t50\tPASS\tDP=9\tGT:DP\t1/2:9")
}
