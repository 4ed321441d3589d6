package repo

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/edirooss/picam-panel/internal/domain/streamconfig"
	"go.uber.org/zap"
)

// StreamConfigRepository persists the stream config record as a single JSON file.
//
// Semantics:
//   - A missing file reads as streamconfig.Defaults().
//   - Fields missing from the file are filled from defaults.
//   - Writes replace the whole file atomically (temp file + rename), so a
//     concurrent reader sees either the old or the new record, never a mix.
//   - Update is serialized within the process; across processes the last writer wins.
type StreamConfigRepository struct {
	log  *zap.Logger
	path string

	mu sync.Mutex // serializes Update (read-modify-write)
}

// NewStreamConfigRepository returns a repository backed by the file at path.
func NewStreamConfigRepository(log *zap.Logger, path string) *StreamConfigRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &StreamConfigRepository{
		log:  log.Named("stream_config"),
		path: path,
	}
}

// Path returns the backing file path.
func (r *StreamConfigRepository) Path() string { return r.path }

// Load returns the persisted record merged over defaults.
func (r *StreamConfigRepository) Load() (streamconfig.StreamConfig, error) {
	cfg := streamconfig.Defaults()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return streamconfig.StreamConfig{}, &StorageError{Op: "read", Path: r.path, Err: err}
	}

	// Unmarshal over defaults: keys absent from the file keep their default value.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return streamconfig.StreamConfig{}, &StorageError{Op: "decode", Path: r.path, Err: err}
	}
	return cfg, nil
}

// Save writes cfg as the complete persisted record.
func (r *StreamConfigRepository) Save(cfg streamconfig.StreamConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Path: r.path, Err: err}
	}
	data = append(data, '\n')

	if err := writeFileAtomic(r.path, data, 0o644); err != nil {
		return &StorageError{Op: "write", Path: r.path, Err: err}
	}
	r.log.Debug("saved", zap.String("path", r.path))
	return nil
}

// Update loads the current record, applies patch, persists and returns the result.
// A *streamconfig.ValidationError leaves the file untouched.
func (r *StreamConfigRepository) Update(patch streamconfig.Patch) (streamconfig.StreamConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, err := r.Load()
	if err != nil {
		return streamconfig.StreamConfig{}, err
	}

	next, err := patch.Apply(cur)
	if err != nil {
		return streamconfig.StreamConfig{}, err
	}

	if err := r.Save(next); err != nil {
		return streamconfig.StreamConfig{}, err
	}

	r.log.Info("updated", zap.Strings("fields", changedFields(cur, next)))
	return next, nil
}

// writeFileAtomic writes data to a temp file next to path, fsyncs it and renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName) // best-effort cleanup
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	// Persist the rename itself; not all filesystems support syncing a directory.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		d.Close()
	}
	return nil
}

// changedFields lists the JSON keys whose values differ between a and b.
func changedFields(a, b streamconfig.StreamConfig) []string {
	var am, bm map[string]json.RawMessage
	ra, _ := json.Marshal(a)
	rb, _ := json.Marshal(b)
	_ = json.Unmarshal(ra, &am)
	_ = json.Unmarshal(rb, &bm)

	var out []string
	for _, name := range streamconfig.FieldNames() {
		if !bytes.Equal(am[name], bm[name]) {
			out = append(out, name)
		}
	}
	return out
}
