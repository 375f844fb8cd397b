// Package fileio opens plain or gzip-compressed input files.
package fileio

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/pgzip"
)

// gzip magic number
var gzipMagic = [2]byte{0x1f, 0x8b}

// Reader is an opened input. Close releases the decompressor and the file.
type Reader struct {
	io.Reader
	file *os.File
	gz   *pgzip.Reader
}

// Open opens path for reading. Gzip input is detected from its magic bytes,
// not the file extension. A path of "-" reads stdin.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return Wrap(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r, err := Wrap(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.file = file
	return r, nil
}

// Wrap returns a Reader over r, decompressing it if it starts with the gzip
// magic number.
func Wrap(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek input: %w", err)
	}

	if len(head) == 2 && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		gz, err := pgzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &Reader{Reader: gz, gz: gz}, nil
	}

	return &Reader{Reader: br}, nil
}

// Close closes the decompressor, if any, and the underlying file.
func (r *Reader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
