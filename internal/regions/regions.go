// Package regions finds stretches of the genome dense in heterozygous indels,
// which are the windows where trio phasing has the most to decide.
package regions

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vstaneva/familyvcf2fasta/internal/vcf"
	"github.com/vstaneva/familyvcf2fasta/internal/window"
)

// DefaultSpan is the width in bases of the sliding window.
const DefaultSpan = 1000

// formatHeader declares the per-record window size tag.
const formatHeader = `##FORMAT=<ID=WI,Number=1,Type=Integer,Description="Heterozygous indels within the preceding window, this one included">`

// Hit is a window holding at least the requested number of indels.
type Hit struct {
	Chrom string
	First int64 // position of the oldest indel in the window
	Last  int64 // position of the indel that completed the window
	End   int64 // one past the last reference base of that indel
	Count int
}

// Window returns a window descriptor covering the hit.
func (h Hit) Window() window.Window {
	return window.Window{Chrom: h.Chrom, Start: h.First, End: h.End}
}

// Result summarises a scan.
type Result struct {
	Indels int // heterozygous indels annotated
	Best   Hit // densest window; Count is 0 when no indel was seen
	Hits   []Hit
}

// Finder scans a VCF for windows of heterozygous indels.
type Finder struct {
	Span     int64
	MinCount int // windows at least this dense are reported as hits; 0 disables
	logger   *zap.Logger
}

// NewFinder creates a finder with the default span.
func NewFinder() *Finder {
	return &Finder{Span: DefaultSpan, logger: zap.NewNop()}
}

// SetLogger sets the logger for skipped records and hits.
func (f *Finder) SetLogger(l *zap.Logger) {
	f.logger = l
}

// Scan reads r and writes to w the header lines and every heterozygous indel
// record, tagged with WI, the number of heterozygous indels on the same
// chromosome within Span bases before it, itself included. Substitutions,
// homozygous records and multi-allelic records are left out.
func (f *Finder) Scan(r io.Reader, w io.Writer) (*Result, error) {
	reader := bufio.NewReader(r)
	out := bufio.NewWriter(w)
	res := &Result{}

	var (
		win        []int64
		chrom      string
		lineNumber int
		tagged     bool
	)
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

		switch {
		case line == "":
		case strings.HasPrefix(line, "#CHROM") && !tagged:
			if _, err := fmt.Fprintln(out, formatHeader); err != nil {
				return nil, err
			}
			tagged = true
			if _, err := fmt.Fprintln(out, line); err != nil {
				return nil, err
			}
		case line[0] == '#':
			if _, err := fmt.Fprintln(out, line); err != nil {
				return nil, err
			}
		default:
			v, perr := vcf.ParseRecord(line, lineNumber, lineNumber)
			if perr != nil {
				f.logger.Warn("skipping malformed vcf record", zap.Error(perr))
				break
			}
			if !v.IsIndel() || v.Alt == "." || v.IsSymbolic() || v.IsMultiAllelic() || v.Zygosity() == vcf.Homozygous {
				break
			}

			if v.Chrom != chrom {
				win = win[:0]
				chrom = v.Chrom
			}
			win = append(win, v.Pos)
			for len(win) > 1 && v.Pos-win[0] > f.Span {
				win = win[1:]
			}
			size := len(win)
			res.Indels++

			hit := Hit{Chrom: v.Chrom, First: win[0], Last: v.Pos, End: v.Pos + int64(len(v.Ref)), Count: size}
			if size > res.Best.Count {
				res.Best = hit
			}
			if f.MinCount > 0 && size >= f.MinCount {
				res.Hits = append(res.Hits, hit)
				f.logger.Debug("dense indel window",
					zap.String("chrom", v.Chrom),
					zap.Int64("pos", v.Pos),
					zap.Int("count", size))
			}

			fields := strings.Split(line, "\t")
			fields[8] += ":WI"
			fields[9] += ":" + strconv.Itoa(size)
			if _, err := fmt.Fprintln(out, strings.Join(fields, "\t")); err != nil {
				return nil, err
			}
		}

		if err == io.EOF {
			break
		}
	}

	if err := out.Flush(); err != nil {
		return nil, fmt.Errorf("flush output: %w", err)
	}
	return res, nil
}
