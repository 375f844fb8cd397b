// Package vcf reads single-sample VCF records and decides which of them can
// be placed inside a reference window.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vstaneva/familyvcf2fasta/internal/fileio"
)

// minFields is the number of columns up to and including the first sample.
const minFields = 10

// Parser reads variants from a single-sample VCF file.
type Parser struct {
	reader     *bufio.Reader
	input      *fileio.Reader
	lineNumber int
	ordinal    int // data lines seen so far, malformed ones included
	lenient    bool
	skipped    int
	logger     *zap.Logger
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files.
func NewParser(path string) (*Parser, error) {
	in, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{
		reader: bufio.NewReader(in),
		input:  in,
		logger: zap.NewNop(),
	}
	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{
		reader: bufio.NewReader(r),
		logger: zap.NewNop(),
	}
}

// SetLenient makes Next log and skip malformed records instead of failing.
func (p *Parser) SetLenient(lenient bool) {
	p.lenient = lenient
}

// SetLogger sets the logger for skipped-record warnings.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Next reads the next variant from the VCF file.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*Variant, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		if line[0] == '#' {
			continue
		}

		p.ordinal++
		v, perr := ParseRecord(line, p.lineNumber, p.ordinal)
		if perr != nil {
			if p.lenient {
				p.skipped++
				p.logger.Warn("skipping malformed vcf record",
					zap.Int("line", p.lineNumber),
					zap.Error(perr))
				continue
			}
			return nil, perr
		}
		return v, nil
	}
}

// ParseRecord parses a single VCF data line. ordinal is the 1-based index of
// the line among the file's data lines and becomes the record id. The ID
// column is kept verbatim in Variant.ID.
func ParseRecord(line string, lineNumber, ordinal int) (*Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < minFields {
		return nil, &MalformedVariantRecordError{
			Line:    lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", minFields, len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || pos < 1 {
		return nil, &MalformedVariantRecordError{
			Line:    lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	if fields[3] == "" || fields[4] == "" {
		return nil, &MalformedVariantRecordError{
			Line:    lineNumber,
			Message: "empty REF or ALT",
		}
	}

	return &Variant{
		RecordID: ordinal,
		Line:     lineNumber,
		Chrom:    fields[0],
		Pos:      pos,
		ID:       fields[2],
		Ref:      strings.ToUpper(fields[3]),
		Alt:      strings.ToUpper(fields[4]),
		Qual:     fields[5],
		Filter:   fields[6],
		Info:     fields[7],
		Format:   fields[8],
		Sample:   fields[9],
	}, nil
}

// Skipped returns the number of malformed records skipped in lenient mode.
func (p *Parser) Skipped() int {
	return p.skipped
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.input != nil {
		return p.input.Close()
	}
	return nil
}

// MalformedVariantRecordError reports a data line that cannot be parsed as a
// VCF record. Inadmissible but well-formed records are filtered, not errors.
type MalformedVariantRecordError struct {
	Line    int
	Message string
}

func (e *MalformedVariantRecordError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
