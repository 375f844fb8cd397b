package vcf

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vstaneva/familyvcf2fasta/internal/window"
)

func TestClassify(t *testing.T) {
	w := window.Window{Chrom: "21", Start: 5, End: 20}

	tests := []struct {
		name     string
		v        Variant
		decision Decision
		reason   string
	}{
		{"admissible SNV", Variant{Chrom: "21", Pos: 10, Ref: "A", Alt: "G"}, Admit, ""},
		{"chr prefix", Variant{Chrom: "chr21", Pos: 10, Ref: "A", Alt: "G"}, Admit, ""},
		{"other chromosome", Variant{Chrom: "22", Pos: 10, Ref: "A", Alt: "G"}, Skip, ReasonOtherChrom},
		{"before start", Variant{Chrom: "21", Pos: 4, Ref: "A", Alt: "G"}, Skip, ReasonBeforeWindow},
		{"before start spanning past end", Variant{Chrom: "21", Pos: 3, Ref: strings.Repeat("A", 20), Alt: "A"}, Skip, ReasonBeforeWindow},
		{"missing alt", Variant{Chrom: "21", Pos: 10, Ref: "A", Alt: "."}, Skip, ReasonNoAlt},
		{"symbolic", Variant{Chrom: "21", Pos: 10, Ref: "A", Alt: "<DEL>"}, Skip, ReasonSymbolic},
		{"breakend", Variant{Chrom: "21", Pos: 10, Ref: "A", Alt: "A[22:100["}, Skip, ReasonSymbolic},
		{"spanning deletion", Variant{Chrom: "21", Pos: 10, Ref: "A", Alt: "*"}, Skip, ReasonSymbolic},
		{"multi-allelic", Variant{Chrom: "21", Pos: 10, Ref: "A", Alt: "A,T"}, Skip, ReasonMultiAllelic},
		{"past end", Variant{Chrom: "21", Pos: 21, Ref: "A", Alt: "G"}, Stop, ReasonPastWindow},
		{"span crosses end", Variant{Chrom: "21", Pos: 18, Ref: "ACG", Alt: "A"}, Stop, ReasonPastWindow},
		{"span ends at end", Variant{Chrom: "21", Pos: 18, Ref: "AC", Alt: "A"}, Admit, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, reason := Classify(&tt.v, w)
			assert.Equal(t, tt.decision, decision)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestFilter_Scan(t *testing.T) {
	parser, err := NewParser(findTestFile(t, "child.vcf"))
	require.NoError(t, err)
	defer parser.Close()

	f := NewFilter(window.Window{Chrom: "21", Start: 1, End: 11})

	var admitted []int64
	stats, err := f.Scan(parser, func(v *Variant) error {
		admitted = append(admitted, v.Pos)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{3, 5, 8}, admitted)
	assert.Equal(t, 3, stats.Admitted)
	assert.Equal(t, 1, stats.Skipped[ReasonMultiAllelic])
	assert.True(t, stats.Stopped)
}

func TestFilter_StopsAtFirstRecordPastWindow(t *testing.T) {
	// The record at 4 is out of order; scanning has already stopped at 30.
	input := "21\t2\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\n" +
		"21\t30\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\n" +
		"21\t4\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\n"

	f := NewFilter(window.Window{Chrom: "21", Start: 1, End: 11})

	var admitted []int64
	_, err := f.Scan(NewParserFromReader(strings.NewReader(input)), func(v *Variant) error {
		admitted = append(admitted, v.Pos)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, admitted)
}

func TestFilter_LongRecordBeforeWindowDoesNotStopScan(t *testing.T) {
	input := "21\t1\t.\tACGTACGTACGTA\tA\t.\tPASS\t.\tGT\t0/1\n" +
		"21\t4\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\n"

	f := NewFilter(window.Window{Chrom: "21", Start: 2, End: 11})

	var admitted []int64
	stats, err := f.Scan(NewParserFromReader(strings.NewReader(input)), func(v *Variant) error {
		admitted = append(admitted, v.Pos)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, admitted)
	assert.Equal(t, 1, stats.Skipped[ReasonBeforeWindow])
	assert.False(t, stats.Stopped)
}

func TestFilter_CallbackError(t *testing.T) {
	input := "21\t2\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\n"
	boom := errors.New("boom")

	f := NewFilter(window.Window{Chrom: "21", Start: 1, End: 11})
	_, err := f.Scan(NewParserFromReader(strings.NewReader(input)), func(*Variant) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
