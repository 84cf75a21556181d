package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"lapor/internal/core"
)

// maxUploadBytes caps attachment size at 10 MB.
const maxUploadBytes = 10 << 20

// ErrUploadType is returned for attachments outside the allowlist.
var ErrUploadType = errors.New("attachment type not allowed")

// ErrUploadTooLarge is returned when the attachment exceeds maxUploadBytes.
var ErrUploadTooLarge = errors.New("attachment too large")

// Documents and images only. Keyed by lowercase extension.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Declared part content types accepted alongside the extension check.
var allowedMIMETypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// UploadStore persists validated attachments under a single directory.
type UploadStore struct {
	dir string
}

func NewUploadStore(dir string) *UploadStore {
	return &UploadStore{dir: dir}
}

// StoreAttachment saves the named multipart file, if present. Returns nil
// without error when the field was left empty.
func (u *UploadStore) StoreAttachment(r *http.Request, field string) (*core.FileRef, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read attachment field: %w", err)
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		return nil, ErrUploadTooLarge
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return nil, ErrUploadType
	}
	if mt, _, err := mime.ParseMediaType(header.Header.Get("Content-Type")); err == nil {
		// Clients that don't sniff send the generic type; for those the
		// extension check above is all we have.
		if mt != "application/octet-stream" && !allowedMIMETypes[mt] {
			return nil, ErrUploadType
		}
	}

	filename := uploadName(header.Filename, ext)
	path := filepath.Join(u.dir, filename)
	if err := u.write(file, path); err != nil {
		return nil, err
	}

	return &core.FileRef{Filename: filename, Path: path}, nil
}

func (u *UploadStore) write(src multipart.File, path string) error {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create attachment file: %w", err)
	}

	if _, err := io.Copy(dst, io.LimitReader(src, maxUploadBytes+1)); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write attachment: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close attachment: %w", err)
	}
	return nil
}

// uploadName produces a unique, path-safe name keeping a hint of the
// original base name.
func uploadName(original, ext string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if len(base) > 40 {
		base = base[:40]
	}
	return fmt.Sprintf("%d_%s_%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], base, ext)
}
