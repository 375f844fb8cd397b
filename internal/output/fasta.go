// Package output writes gapped haplotype FASTA files and run summaries.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vstaneva/familyvcf2fasta/internal/haplotype"
	"github.com/vstaneva/familyvcf2fasta/internal/window"
)

// LineWidth is the number of sequence symbols per FASTA line.
const LineWidth = 60

var haplotypeNames = [2]string{"first", "second"}

// FastaWriter writes FASTA records with sequence lines wrapped at a fixed
// width.
type FastaWriter struct {
	w     *bufio.Writer
	width int
}

// NewFastaWriter creates a FASTA writer wrapping at LineWidth.
func NewFastaWriter(w io.Writer) *FastaWriter {
	return &FastaWriter{w: bufio.NewWriter(w), width: LineWidth}
}

// Write writes one record. header is written without its leading '>'.
func (fw *FastaWriter) Write(header string, seq []byte) error {
	if _, err := fmt.Fprintf(fw.w, ">%s\n", header); err != nil {
		return err
	}
	for i := 0; i < len(seq); i += fw.width {
		end := min(i+fw.width, len(seq))
		if _, err := fw.w.Write(seq[i:end]); err != nil {
			return err
		}
		if err := fw.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data.
func (fw *FastaWriter) Flush() error {
	return fw.w.Flush()
}

// Header builds the record header of haplotype h (0 or 1) of an individual.
func Header(assembly string, w window.Window, vcfPath string, h int) string {
	return fmt.Sprintf("%s|%s|produced using variants from %s|%s sequence",
		assembly, w, filepath.Base(vcfPath), haplotypeNames[h])
}

// WriteAlignment writes each gapped haplotype of a to its own FASTA file.
// Files are written to a temporary name and renamed once complete.
func WriteAlignment(paths [2]string, a *haplotype.Alignment, assembly string, w window.Window, vcfPath string) error {
	for h, path := range paths {
		err := writeFile(path, func(out io.Writer) error {
			fw := NewFastaWriter(out)
			if err := fw.Write(Header(assembly, w, vcfPath, h), a.Sequences[h]); err != nil {
				return err
			}
			return fw.Flush()
		})
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
