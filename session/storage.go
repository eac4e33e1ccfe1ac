package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Storage persists session data across process restarts, the equivalent of
// the browser's local storage.
type Storage interface {
	Load(ctx context.Context) (*Data, error)
	Save(ctx context.Context, data Data) error
	Clear(ctx context.Context) error
}

// FileStorage keeps the session in a JSON file.
type FileStorage struct {
	path string
}

// NewFileStorage returns file-backed storage at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load reads the persisted session. Missing file yields nil data.
func (f *FileStorage) Load(_ context.Context) (*Data, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: read %s: %w", f.path, err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", f.path, err)
	}
	return &data, nil
}

// Save writes the session atomically via a temp file rename.
func (f *FileStorage) Save(_ context.Context, data Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("session: mkdir %s: %w", dir, err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.path)
}

// Clear removes the persisted session file.
func (f *FileStorage) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
