package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps the catalog as one indented JSON array. Save truncates and
// rewrites the file in place; a crash mid-write can leave it corrupt.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	st, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("catalog dir: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("catalog dir %q is not a directory", dir)
	}
	return nil
}

// Load returns an empty sequence when the file does not exist. An unreadable
// file, or one that is not a JSON array, also yields an empty sequence
// together with the cause. Elements are decoded leniently, see Product.
func (s *FileStore) Load(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return []Product{}, err
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Product{}, nil
	}
	if err != nil {
		return []Product{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return []Product{}, fmt.Errorf("%s: %w", s.path, ErrMalformedCatalog)
	}

	var out []Product
	if err := json.Unmarshal(raw, &out); err != nil {
		return []Product{}, fmt.Errorf("%s: %w: %v", s.path, ErrMalformedCatalog, err)
	}
	if out == nil {
		out = []Product{}
	}
	return out, nil
}

func (s *FileStore) Save(ctx context.Context, products []Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if products == nil {
		products = []Product{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(products); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
