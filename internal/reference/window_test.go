package reference

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vstaneva/familyvcf2fasta/internal/window"
)

const twoChromFASTA = `>20 dna:chromosome
TTTTTTTTTT
>21 dna:chromosome
acgtacgtac
GGGGCCCCAA
TT
`

func TestExtractWindow(t *testing.T) {
	tests := []struct {
		name  string
		start int64
		end   int64
		want  string
	}{
		{"first line", 1, 11, "ACGTACGTAC"},
		{"inside one line", 3, 6, "GTA"},
		{"across lines", 9, 13, "ACGG"},
		{"into short last line", 20, 23, "ATT"},
		{"single base", 11, 12, "G"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := window.Window{Chrom: "21", Start: tt.start, End: tt.end}
			got, err := ExtractWindow(strings.NewReader(twoChromFASTA), w)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			assert.Len(t, got, w.Len())
		})
	}
}

func TestExtractWindow_VariableLineWidth(t *testing.T) {
	fasta := ">chr21\nAC\nGTACG\nT\nACGTACGT\n"
	w := window.Window{Chrom: "21", Start: 2, End: 10}

	got, err := ExtractWindow(strings.NewReader(fasta), w)
	require.NoError(t, err)
	assert.Equal(t, "CGTACGTA", string(got))
}

func TestExtractWindow_ChromosomeMissing(t *testing.T) {
	w := window.Window{Chrom: "22", Start: 1, End: 5}
	_, err := ExtractWindow(strings.NewReader(twoChromFASTA), w)

	var refErr *MalformedReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Contains(t, refErr.Message, "not found")
}

func TestExtractWindow_InsufficientData(t *testing.T) {
	// chromosome 20 has only 10 bases before chromosome 21 starts
	w := window.Window{Chrom: "20", Start: 5, End: 15}
	_, err := ExtractWindow(strings.NewReader(twoChromFASTA), w)

	var refErr *MalformedReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Contains(t, refErr.Message, "sequence ends")
}

func TestExtractWindow_InsufficientAtEOF(t *testing.T) {
	w := window.Window{Chrom: "21", Start: 20, End: 40}
	_, err := ExtractWindow(strings.NewReader(twoChromFASTA), w)

	var refErr *MalformedReferenceError
	require.ErrorAs(t, err, &refErr)
}

func TestContigName(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{">21", "21"},
		{">chr21 dna:chromosome chromosome:GRCh37:21", "chr21"},
		{">hg19|chr21|produced using variants from x.vcf", "chr21"},
		{"> 21", "21"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, contigName(tt.header))
		})
	}
}

func TestLoadWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.fa")
	require.NoError(t, os.WriteFile(path, []byte(twoChromFASTA), 0644))

	got, err := LoadWindow(path, window.Window{Chrom: "chr21", Start: 1, End: 5})
	require.NoError(t, err)
	assert.Equal(t, "ACGT", string(got))
}
