package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vstaneva/familyvcf2fasta/internal/window"
)

// WindowCache keeps the extracted sequence of one reference window on disk
// so that repeated runs skip scanning the reference FASTA:
//
//	{dir}/{chrom}_{start}_{end}.gob       (window sequence)
//	{dir}/{chrom}_{start}_{end}.gob.meta  (reference fingerprint)
type WindowCache struct {
	dir string
}

// NewWindowCache creates a window cache in dir.
func NewWindowCache(dir string) *WindowCache {
	return &WindowCache{dir: dir}
}

func (wc *WindowCache) gobPath(w window.Window) string {
	return filepath.Join(wc.dir, fmt.Sprintf("%s_%d_%d.gob", window.NormalizeChrom(w.Chrom), w.Start, w.End))
}

func (wc *WindowCache) metaPath(w window.Window) string {
	return wc.gobPath(w) + ".meta"
}

// Valid checks whether the cached window was extracted from the current
// reference file.
func (wc *WindowCache) Valid(w window.Window, ref FileFingerprint) bool {
	meta, err := wc.readMeta(w)
	if err != nil {
		return false
	}

	checks := []struct{ key, val string }{
		{"ref_size", strconv.FormatInt(ref.Size, 10)},
		{"ref_modtime", ref.ModTime.UTC().Format(time.RFC3339Nano)},
	}
	for _, c := range checks {
		if meta[c.key] != c.val {
			return false
		}
	}

	if _, err := os.Stat(wc.gobPath(w)); err != nil {
		return false
	}
	return true
}

// Load reads a cached window sequence.
func (wc *WindowCache) Load(w window.Window) ([]byte, error) {
	f, err := os.Open(wc.gobPath(w))
	if err != nil {
		return nil, fmt.Errorf("open window cache: %w", err)
	}
	defer f.Close()

	var seq []byte
	if err := gob.NewDecoder(f).Decode(&seq); err != nil {
		return nil, fmt.Errorf("decode window cache: %w", err)
	}
	if len(seq) != w.Len() {
		return nil, fmt.Errorf("window cache holds %d bases, window %s needs %d", len(seq), w, w.Len())
	}
	return seq, nil
}

// Write stores a window sequence with the fingerprint of the reference it
// came from.
func (wc *WindowCache) Write(w window.Window, seq []byte, ref FileFingerprint) error {
	if err := os.MkdirAll(wc.dir, 0755); err != nil {
		return fmt.Errorf("create window cache directory: %w", err)
	}

	f, err := os.Create(wc.gobPath(w))
	if err != nil {
		return fmt.Errorf("create window cache: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(seq); err != nil {
		f.Close()
		os.Remove(wc.gobPath(w))
		return fmt.Errorf("encode window cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close window cache: %w", err)
	}

	return wc.writeMeta(w, ref)
}

// Clear removes the cached files of w.
func (wc *WindowCache) Clear(w window.Window) {
	os.Remove(wc.gobPath(w))
	os.Remove(wc.metaPath(w))
}

func (wc *WindowCache) writeMeta(w window.Window, ref FileFingerprint) error {
	lines := []string{
		"ref_path=" + ref.Path,
		"ref_size=" + strconv.FormatInt(ref.Size, 10),
		"ref_modtime=" + ref.ModTime.UTC().Format(time.RFC3339Nano),
		"window=" + w.String(),
		"created_at=" + time.Now().UTC().Format(time.RFC3339),
		"",
	}
	return os.WriteFile(wc.metaPath(w), []byte(strings.Join(lines, "\n")), 0644)
}

func (wc *WindowCache) readMeta(w window.Window) (map[string]string, error) {
	data, err := os.ReadFile(wc.metaPath(w))
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
