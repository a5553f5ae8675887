// Package blob manages the files behind the records: uploaded originals,
// thumbnails, processed outputs, subtitle files and intermediate audio.
package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"clipapi/errs"
)

// Local is a flat directory of blobs addressed by file name.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Dir() string { return l.dir }

// Path is where a blob with this name lives or will be written.
func (l *Local) Path(name string) string {
	return filepath.Join(l.dir, filepath.Base(name))
}

// Save streams r into a new blob. When limit is positive and r holds more
// than limit bytes, nothing is kept and a validation error is returned.
func (l *Local) Save(name string, r io.Reader, limit int64) (int64, error) {
	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return 0, errs.Persistence("could not create file", err)
	}
	defer os.Remove(tmp.Name())

	src := r
	if limit > 0 {
		src = &io.LimitedReader{R: r, N: limit + 1}
	}
	written, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, errs.Persistence("could not write file", err)
	}
	if limit > 0 && written > limit {
		return 0, errs.Validation("file exceeds maximum size of %d bytes", limit)
	}

	if err := os.Rename(tmp.Name(), l.Path(name)); err != nil {
		return 0, errs.Persistence("could not store file", err)
	}
	return written, nil
}

// Resolve returns the path of an existing blob. Names that try to leave the
// directory are rejected.
func (l *Local) Resolve(name string) (string, error) {
	clean := filepath.Base(name)
	if clean != name || clean == "." || clean == ".." {
		return "", errs.Validation("invalid filename")
	}
	full := filepath.Join(l.dir, clean)
	info, err := os.Stat(full)
	if os.IsNotExist(err) || (err == nil && info.IsDir()) {
		return "", errs.NotFound("file not found")
	}
	if err != nil {
		return "", errs.Persistence("could not stat file", err)
	}
	return full, nil
}

// Remove deletes the named blobs, ignoring ones that are already gone.
func (l *Local) Remove(names ...string) error {
	var first error
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := os.Remove(l.Path(name)); err != nil && !os.IsNotExist(err) && first == nil {
			first = err
		}
	}
	return first
}

// PurgeStale removes blobs matching pattern whose modification time is older
// than maxAge, and returns how many were removed.
func (l *Local) PurgeStale(pattern string, maxAge time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, pattern))
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
