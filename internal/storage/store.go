// Package storage keeps uploaded media files on the local filesystem under
// MEDIA_ROOT and hands out the relative paths stored on database rows.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"putevoditel/internal/config"
	"putevoditel/internal/models"
	"putevoditel/internal/observability"
)

const (
	DefaultRoot        = "media"
	DefaultMaxUploadMB = 100

	// URLPrefix is where the server exposes MEDIA_ROOT.
	URLPrefix = "/media"
)

var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
}

// Upload is a file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Store writes media files below a root directory.
type Store struct {
	root     string
	maxBytes int64
}

// NewStore returns a Store configured from cfg. A nil cfg uses the defaults.
func NewStore(cfg *config.Config) *Store {
	root := DefaultRoot
	maxMB := DefaultMaxUploadMB
	if cfg != nil {
		if cfg.MediaRoot != "" {
			root = cfg.MediaRoot
		}
		if cfg.MediaMaxUploadSizeMB > 0 {
			maxMB = cfg.MediaMaxUploadSizeMB
		}
	}
	return &Store{root: root, maxBytes: int64(maxMB) * 1024 * 1024}
}

// Root is the directory files are written to.
func (s *Store) Root() string {
	return s.root
}

// URL returns the public URL of a stored relative path.
func (s *Store) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return path.Join(URLPrefix, filepath.ToSlash(rel))
}

// Remove deletes a stored file. Missing files are ignored.
func (s *Store) Remove(rel string) {
	if rel == "" {
		return
	}
	_ = os.Remove(s.abs(rel))
}

func (s *Store) checkSize(up Upload) error {
	if len(up.Content) == 0 {
		return models.NewValidationError("No file uploaded")
	}
	if int64(len(up.Content)) > s.maxBytes {
		return models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
	}
	return nil
}

// SaveVideo stores a video upload as videos/<hash><ext> and returns the
// relative path.
func (s *Store) SaveVideo(ctx context.Context, ownerID uint, up Upload) (string, error) {
	_, span := observability.StartServiceSpan(ctx, "MediaStore", "SaveVideo")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = s.checkSize(up); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(up.Filename))
	detected := normalizeContentType(http.DetectContentType(up.Content))
	expected, known := videoExtensions[ext]
	switch {
	case strings.HasPrefix(detected, "video/"):
		if !known {
			ext = extensionFor(detected)
		}
	case known && strings.HasPrefix(normalizeContentType(up.ContentType), "video/"):
		// mp4 and mov containers are not always sniffed; trust a matching
		// extension and declared type.
		detected = expected
	default:
		err = models.NewValidationError("Invalid video file")
		return "", err
	}
	if ext == "" {
		err = models.NewValidationError("Unsupported video format")
		return "", err
	}

	rel := filepath.ToSlash(filepath.Join("videos", contentHash(ownerID, up.Content)+ext))
	if err = writeBytesToFile(s.abs(rel), up.Content); err != nil {
		err = models.NewInternalError(err)
		return "", err
	}
	observability.MediaStored.WithLabelValues("video").Inc()
	return rel, nil
}

func (s *Store) abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

func extensionFor(contentType string) string {
	for ext, ct := range videoExtensions {
		if ct == contentType && ext != ".m4v" {
			return ext
		}
	}
	exts, _ := mime.ExtensionsByType(contentType)
	if len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func contentHash(ownerID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", ownerID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
