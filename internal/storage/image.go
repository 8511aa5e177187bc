package storage

import (
	"bytes"
	"context"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"net/http"
	"path/filepath"
	"strings"

	"putevoditel/internal/models"
	"putevoditel/internal/observability"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	MasterMaxSize = 2048
	JPEGQuality   = 82
	WebPQuality   = 70
)

// StoredImage describes the files written for one image upload.
type StoredImage struct {
	Path     string
	WebPPath string
	Width    int
	Height   int
}

// SaveImage decodes the upload, bounds it to MasterMaxSize and writes a JPEG
// master plus a WebP sibling under images/<hash>/.
func (s *Store) SaveImage(ctx context.Context, ownerID uint, up Upload) (*StoredImage, error) {
	_, span := observability.StartServiceSpan(ctx, "MediaStore", "SaveImage")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = s.checkSize(up); err != nil {
		return nil, err
	}
	if !isAllowedImageMIME(http.DetectContentType(up.Content)) {
		err = models.NewValidationError("Invalid image type")
		return nil, err
	}

	decoded, format, decodeErr := image.Decode(bytes.NewReader(up.Content))
	if decodeErr != nil {
		err = models.NewValidationError("Invalid image file")
		return nil, err
	}
	if !isSupportedDecodedFormat(format) {
		err = models.NewValidationError("Unsupported image format")
		return nil, err
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)
	jpg, encErr := encodeJPEG(master, JPEGQuality)
	if encErr != nil {
		err = models.NewInternalError(encErr)
		return nil, err
	}
	wp, encErr := encodeWebP(master, WebPQuality)
	if encErr != nil {
		err = models.NewInternalError(encErr)
		return nil, err
	}

	hash := contentHash(ownerID, jpg)
	out := &StoredImage{
		Path:     filepath.ToSlash(filepath.Join("images", hash, "master.jpg")),
		WebPPath: filepath.ToSlash(filepath.Join("images", hash, "master.webp")),
		Width:    master.Bounds().Dx(),
		Height:   master.Bounds().Dy(),
	}
	if writeErr := writeBytesToFile(s.abs(out.Path), jpg); writeErr != nil {
		err = models.NewInternalError(writeErr)
		return nil, err
	}
	if writeErr := writeBytesToFile(s.abs(out.WebPPath), wp); writeErr != nil {
		s.Remove(out.Path)
		err = models.NewInternalError(writeErr)
		return nil, err
	}

	observability.MediaStored.WithLabelValues("image").Inc()
	return out, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}
