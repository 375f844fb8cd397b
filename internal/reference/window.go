// Package reference extracts reference sequence windows from FASTA files.
package reference

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/vstaneva/familyvcf2fasta/internal/fileio"
	"github.com/vstaneva/familyvcf2fasta/internal/window"
)

// LoadWindow reads the reference FASTA at path and returns the upper-cased
// sequence of w.
func LoadWindow(path string, w window.Window) ([]byte, error) {
	in, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference: %w", err)
	}
	defer in.Close()

	return ExtractWindow(in, w)
}

// ExtractWindow scans a FASTA stream for the record of w's chromosome and
// returns the bases at positions w.Start through w.End-1. Line widths are
// measured per line, so wrapped and unwrapped references both work.
func ExtractWindow(r io.Reader, w window.Window) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for unwrapped chromosomes
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 512*1024*1024)

	want := window.NormalizeChrom(w.Chrom)
	last := w.End - 1

	found := false
	var consumed int64 // bases of the record before the current line
	seq := make([]byte, 0, w.Len())

	for scanner.Scan() {
		line := scanner.Bytes()

		if len(line) > 0 && line[0] == '>' {
			if found {
				// next record began before the window was covered
				break
			}
			found = window.NormalizeChrom(contigName(string(line))) == want
			continue
		}
		if !found {
			continue
		}

		line = bytes.TrimSpace(line)
		n := int64(len(line))

		// line covers 1-based positions consumed+1 .. consumed+n
		lo := max(w.Start, consumed+1)
		hi := min(last, consumed+n)
		if lo <= hi {
			seq = append(seq, line[lo-consumed-1:hi-consumed]...)
		}
		consumed += n

		if consumed >= last {
			return bytes.ToUpper(seq), nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan reference: %w", err)
	}

	if !found {
		return nil, &MalformedReferenceError{
			Chrom:   w.Chrom,
			Message: "chromosome header not found",
		}
	}
	return nil, &MalformedReferenceError{
		Chrom:   w.Chrom,
		Message: fmt.Sprintf("sequence ends at position %d, window needs %d", consumed, last),
	}
}

// contigName extracts the sequence name from a FASTA header line.
// Handles ">21", ">chr21 dna:chromosome" and ">hg19|chr21|..." styles.
func contigName(header string) string {
	header = strings.TrimPrefix(header, ">")
	header = strings.TrimSpace(header)

	if fields := strings.Fields(header); len(fields) > 0 {
		header = fields[0]
	}

	parts := strings.Split(header, "|")
	if len(parts) > 1 {
		// assembly|chrom|... headers name the chromosome second
		for _, p := range parts {
			if strings.HasPrefix(strings.ToLower(p), "chr") {
				return p
			}
		}
	}
	return parts[0]
}

// MalformedReferenceError reports a reference that does not contain the
// requested window.
type MalformedReferenceError struct {
	Chrom   string
	Message string
}

func (e *MalformedReferenceError) Error() string {
	return fmt.Sprintf("malformed reference for chromosome %s: %s", e.Chrom, e.Message)
}
