package duckdb

import (
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Same reports whether f and o describe the same file contents by size and
// modification time.
func (f FileFingerprint) Same(o FileFingerprint) bool {
	return f.Size == o.Size && f.ModTime.Equal(o.ModTime)
}

// Input is one file a run read, tagged with the family member and the role
// the file played.
type Input struct {
	Member string // mother, father, child or common
	Role   string // vcf, reference, window, phase
	FileFingerprint
}

// StatInputs fingerprints each path in turn and tags it with member and role.
func StatInputs(member string, roles map[string]string) ([]Input, error) {
	inputs := make([]Input, 0, len(roles))
	for role, path := range roles {
		fp, err := StatFile(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, Input{Member: member, Role: role, FileFingerprint: fp})
	}
	return inputs, nil
}
