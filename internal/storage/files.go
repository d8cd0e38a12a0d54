// Package storage keeps uploaded CV files on the local filesystem under
// random names.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/simp-lee/hireline/internal/domain"
)

// Accepted CV content types.
var allowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// sniffLen is how much of an upload is inspected to detect its type.
const sniffLen = 3072

// Stored describes a file written by Save.
type Stored struct {
	// Key is the file name under the storage directory.
	Key         string
	ContentType string
	Size        int64
}

// Local stores files in a single directory.
type Local struct {
	dir      string
	maxBytes int64
	logger   *slog.Logger
}

// NewLocal creates dir if needed and returns a Local store rejecting files
// larger than maxBytes.
func NewLocal(dir string, maxBytes int64, logger *slog.Logger) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir %q: %w", dir, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{dir: dir, maxBytes: maxBytes, logger: logger}, nil
}

// MaxBytes is the largest accepted upload.
func (l *Local) MaxBytes() int64 { return l.maxBytes }

// Save validates the content type of r by sniffing its first bytes and
// writes it under a new random key keeping originalName's extension.
func (l *Local) Save(ctx context.Context, originalName string, r io.Reader) (Stored, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Stored{}, domain.NewAppError(domain.CodeInternal, "failed to read upload", err)
	}
	head = head[:n]
	if n == 0 {
		return Stored{}, domain.NewValidationError(map[string]string{"cvFile": "a CV file is required"})
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	detected := mimetype.Detect(head)
	if !allowed(detected, ext) {
		return Stored{}, domain.NewValidationError(map[string]string{"cvFile": "CV must be a PDF, DOC or DOCX file"})
	}

	key := uuid.NewString() + ext
	path := filepath.Join(l.dir, key)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return Stored{}, domain.NewAppError(domain.CodeInternal, "failed to store upload", err)
	}

	// Copy one byte past the limit to detect oversized files.
	src := io.MultiReader(bytes.NewReader(head), r)
	written, err := io.Copy(f, io.LimitReader(src, l.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		l.discard(path)
		return Stored{}, domain.NewAppError(domain.CodeInternal, "failed to store upload", err)
	}
	if written > l.maxBytes {
		l.discard(path)
		return Stored{}, domain.NewValidationError(map[string]string{"cvFile": "CV must be " + humanize.IBytes(uint64(l.maxBytes)) + " or smaller"})
	}

	l.logger.InfoContext(ctx, "upload stored",
		slog.String("key", key),
		slog.String("content_type", detected.String()),
		slog.Int64("size", written),
	)
	return Stored{Key: key, ContentType: detected.String(), Size: written}, nil
}

// Open returns the stored file for key.
func (l *Local) Open(key string) (*os.File, error) {
	path, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to open upload", err)
	}
	return f, nil
}

// Remove deletes the stored file for key. Missing files are not an error.
func (l *Local) Remove(key string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.NewAppError(domain.CodeInternal, "failed to remove upload", err)
	}
	return nil
}

// path rejects keys that would escape the storage directory.
func (l *Local) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", domain.ErrNotFound
	}
	return filepath.Join(l.dir, key), nil
}

func (l *Local) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("discard partial upload", slog.String("path", path), slog.Any("error", err))
	}
}

// containerTypes are what the sniffer reports for Office files whose
// distinguishing bytes lie past the inspected prefix.
var containerTypes = map[string]string{
	".docx": "application/zip",
	".doc":  "application/x-ole-storage",
}

func allowed(m *mimetype.MIME, ext string) bool {
	for _, t := range allowedTypes {
		if m.Is(t) {
			return true
		}
	}
	if container, ok := containerTypes[ext]; ok {
		return m.Is(container)
	}
	return false
}
