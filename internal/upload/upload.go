// Package upload stores product images under a fixed directory and hands back
// the URL path records refer to them by.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const DefaultMaxBytes = 10 << 20

var (
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	ErrFileTooLarge        = errors.New("file too large")
	ErrNoFile              = errors.New("no file uploaded")
)

var allowedExt = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
	".gif":  {},
}

var (
	unsafeChars = regexp.MustCompile(`[^a-z0-9_-]+`)
	dashes      = regexp.MustCompile(`-{2,}`)
)

type Store struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64

	suffix func() string
}

func NewStore(dir, urlPrefix string, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{
		Dir:       dir,
		URLPrefix: strings.TrimRight(urlPrefix, "/"),
		MaxBytes:  maxBytes,
		suffix:    randomSuffix,
	}
}

// Allowed reports whether filename carries an accepted image extension.
func Allowed(filename string) bool {
	_, ok := allowedExt[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// SafeName turns a client supplied filename into a collision-resistant name
// safe to use inside the upload directory.
func SafeName(filename, suffix string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stem, _, _ = transform.String(t, stem)

	stem = strings.ToLower(stem)
	stem = unsafeChars.ReplaceAllString(stem, "-")
	stem = dashes.ReplaceAllString(stem, "-")
	stem = strings.Trim(stem, "-_")
	if stem == "" {
		stem = "image"
	}

	return stem + "-" + suffix + ext
}

// Save copies the uploaded file into Dir and returns its public URL.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil || fh.Filename == "" {
		return "", ErrNoFile
	}
	if !Allowed(fh.Filename) {
		return "", fmt.Errorf("%w: %s", ErrExtensionNotAllowed, filepath.Ext(fh.Filename))
	}
	if fh.Size > s.MaxBytes {
		return "", ErrFileTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := SafeName(fh.Filename, s.suffix())
	dst := filepath.Join(s.Dir, name)

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	n, err := io.Copy(out, io.LimitReader(src, s.MaxBytes+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.MaxBytes {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}

	return s.URLPrefix + "/" + name, nil
}

// Remove deletes a file previously returned by Save. URLs outside the store's
// prefix are ignored.
func (s *Store) Remove(url string) error {
	name, ok := strings.CutPrefix(url, s.URLPrefix+"/")
	if !ok || name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return nil
	}

	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
