package store

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/zeebo/blake3"

	"morphsplit/internal/domain"
)

// CurrentFormatVersion is the version of the bucket layout.
// Increment this when making breaking changes to the storage format.
const CurrentFormatVersion = 1

// CheckFormat validates the stored format version. Snapshots are written and
// read by the same layout version only; there are no migrations.
func CheckFormat(raw []byte) error {
	if raw == nil {
		return fmt.Errorf("%w: missing format version", ErrNotSnapshot)
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil {
		return fmt.Errorf("invalid format version %q", raw)
	}
	switch {
	case v < CurrentFormatVersion:
		return fmt.Errorf("snapshot format v%d is older than v%d; delete it to rebuild", v, CurrentFormatVersion)
	case v > CurrentFormatVersion:
		return fmt.Errorf("snapshot created by newer version (v%d > v%d)", v, CurrentFormatVersion)
	}
	return nil
}

// Blake3Fingerprinter digests resource files with BLAKE3.
type Blake3Fingerprinter struct{}

// Fingerprint hashes the role and content of every configured resource.
// A change to any resource file, or to which resources are active,
// changes the result.
func (Blake3Fingerprinter) Fingerprint(refs domain.ResourceRefs) (string, error) {
	h := blake3.New()
	resources := []struct {
		role string
		path string
	}{
		{"base", refs.Base},
		{"enrichment", refs.Enrichment},
		{"analyzer", refs.Analyzer},
	}
	for _, r := range resources {
		io.WriteString(h, r.role)
		h.Write([]byte{0})
		if r.path == "" {
			h.Write([]byte{0})
			continue
		}
		if err := hashFile(h, r.path); err != nil {
			return "", fmt.Errorf("failed to fingerprint %s dictionary: %w", r.role, err)
		}
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil)[:16]), nil
}

func hashFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
