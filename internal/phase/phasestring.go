// Package phase turns the external phaser's per-column signal into phased
// genotypes for the child's heterozygous variants.
package phase

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vstaneva/familyvcf2fasta/internal/fileio"
)

// Phase symbols produced by the phaser.
const (
	SymbolFather  = '1'
	SymbolMother  = '0'
	SymbolUnknown = '?'
)

// UnknownPhaseSymbolError reports a phase-string character outside {0,1,?}.
type UnknownPhaseSymbolError struct {
	Column int
	Symbol byte
}

func (e *UnknownPhaseSymbolError) Error() string {
	return fmt.Sprintf("unknown phase symbol %q at column %d", e.Symbol, e.Column)
}

// Load reads the phase string from the phaser's output file.
func Load(path string) ([]byte, error) {
	in, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open phase string: %w", err)
	}
	defer in.Close()

	s, err := Read(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Read returns the first non-blank line of r with surrounding whitespace
// removed. Every symbol is validated.
func Read(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s := []byte(line)
		if err := Validate(s); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read phase string: %w", err)
	}
	return nil, errors.New("phase string is empty")
}

// Validate checks that every symbol of s is 0, 1 or ?.
func Validate(s []byte) error {
	for i, c := range s {
		if _, _, err := vote(c, i); err != nil {
			return err
		}
	}
	return nil
}

// vote maps a symbol to its signed switch value. ok is false for '?'.
func vote(c byte, column int) (int, bool, error) {
	switch c {
	case SymbolFather:
		return 1, true, nil
	case SymbolMother:
		return -1, true, nil
	case SymbolUnknown:
		return 0, false, nil
	}
	return 0, false, &UnknownPhaseSymbolError{Column: column, Symbol: c}
}
