// Package window describes the genomic region a phasing run covers.
package window

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Window is a half-open region [Start, End) of one chromosome in 1-based
// reference coordinates. Position End itself is not part of the window.
type Window struct {
	Chrom string
	Start int64
	End   int64
}

// Len returns the number of reference positions covered.
func (w Window) Len() int {
	return int(w.End - w.Start)
}

// Fits reports whether a span of length n starting at pos lies entirely
// inside the window.
func (w Window) Fits(pos int64, n int) bool {
	return w.Start <= pos && pos <= w.End && pos+int64(n) <= w.End
}

// SameChrom reports whether chrom names the window's chromosome, ignoring a
// "chr" prefix on either side.
func (w Window) SameChrom(chrom string) bool {
	return NormalizeChrom(chrom) == NormalizeChrom(w.Chrom)
}

func (w Window) String() string {
	return fmt.Sprintf("%s:%d-%d", w.Chrom, w.Start, w.End)
}

// Validate checks that the window is non-empty and starts at position 1 or later.
func (w Window) Validate() error {
	if w.Chrom == "" {
		return fmt.Errorf("window has no chromosome")
	}
	if w.Start < 1 {
		return fmt.Errorf("window start %d must be >= 1", w.Start)
	}
	if w.End <= w.Start {
		return fmt.Errorf("window end %d must be greater than start %d", w.End, w.Start)
	}
	return nil
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && strings.EqualFold(chrom[:3], "chr") {
		return chrom[3:]
	}
	return chrom
}

// Load reads a window descriptor file: three lines holding the chromosome,
// the start and the end.
func Load(path string) (Window, error) {
	f, err := os.Open(path)
	if err != nil {
		return Window{}, fmt.Errorf("open window descriptor: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a window descriptor. Blank lines are ignored.
func Parse(r io.Reader) (Window, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return Window{}, fmt.Errorf("read window descriptor: %w", err)
	}

	if len(lines) != 3 {
		return Window{}, fmt.Errorf("window descriptor has %d lines, expected 3 (chromosome, start, end)", len(lines))
	}

	start, err := strconv.ParseInt(lines[1], 10, 64)
	if err != nil {
		return Window{}, fmt.Errorf("invalid window start %q", lines[1])
	}
	end, err := strconv.ParseInt(lines[2], 10, 64)
	if err != nil {
		return Window{}, fmt.Errorf("invalid window end %q", lines[2])
	}

	w := Window{Chrom: lines[0], Start: start, End: end}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Write writes w in descriptor format.
func Write(out io.Writer, w Window) error {
	_, err := fmt.Fprintf(out, "%s\n%d\n%d\n", w.Chrom, w.Start, w.End)
	return err
}
