package util

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const MaxImageSize = 10 << 20

var (
	ErrImageTooLarge  = errors.New("image exceeds 10MB")
	ErrImageType      = errors.New("only jpeg, jpg and png images are allowed")
	unsafeNameChars   = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	allowedImageMIMEs = []string{"image/jpeg", "image/png"}
)

// SaveImage validates an uploaded image by content sniffing and stores it in
// dir as <uuid>-<sanitized original name>. It returns the stored path.
func SaveImage(fh *multipart.FileHeader, dir string) (string, error) {
	if fh.Size > MaxImageSize {
		return "", ErrImageTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", err
	}
	if !mimetype.EqualsAny(mt.String(), allowedImageMIMEs...) {
		return "", fmt.Errorf("%w: got %s", ErrImageType, mt.String())
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s", uuid.NewString(), unsafeNameChars.ReplaceAllString(filepath.Base(fh.Filename), "_"))
	dstPath := filepath.Join(dir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, MaxImageSize+1)); err != nil {
		_ = os.Remove(dstPath)
		return "", err
	}
	return filepath.ToSlash(dstPath), nil
}
