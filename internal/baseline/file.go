package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/Alias1177/dexsentinel/internal/model"
)

// FileStore keeps the baseline as a JSON object in a single file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path. The file need not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Load reads the baseline file.
func (s *FileStore) Load(_ context.Context) (model.Baseline, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Baseline{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", model.ErrBaselineUnavailable, s.path, err)
	}

	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", model.ErrBaselineCorrupt, s.path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s does not hold an object", model.ErrBaselineCorrupt, s.path)
	}

	b := make(model.Baseline, len(raw))
	for k, v := range raw {
		if v == nil {
			return nil, fmt.Errorf("%w: %s: null value for %q", model.ErrBaselineCorrupt, s.path, k)
		}
		b[k] = *v
	}
	return sanitize(b), nil
}

// Save writes the baseline to a temporary file next to the target and
// renames it into place, so readers see either the old or the new state.
func (s *FileStore) Save(_ context.Context, b model.Baseline) error {
	for k, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value for %q", model.ErrBaselineWriteFailed, k)
		}
	}
	if b == nil {
		b = model.Baseline{}
	}

	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("%w: encoding: %v", model.ErrBaselineWriteFailed, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", model.ErrBaselineWriteFailed, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing %s: %v", model.ErrBaselineWriteFailed, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: syncing %s: %v", model.ErrBaselineWriteFailed, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", model.ErrBaselineWriteFailed, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: replacing %s: %v", model.ErrBaselineWriteFailed, s.path, err)
	}
	return nil
}
