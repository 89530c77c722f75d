package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MaxImageSize is the largest receipt image accepted for upload (5 MB).
const MaxImageSize = 5 << 20

var (
	ErrImageTooLarge = fmt.Errorf("image must be at most %d MB", MaxImageSize>>20)
	ErrNotAnImage    = errors.New("file must be an image")
	ErrEmptyImage    = errors.New("image file is empty")
)

// Upload is a file attached to a transaction form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// ValidateImage enforces the size and MIME guard before anything is sent to
// the backend. When the declared type is missing or generic the content is
// sniffed instead.
func ValidateImage(u Upload) error {
	size := u.Size
	if size == 0 {
		size = int64(len(u.Data))
	}
	if size == 0 {
		return ErrEmptyImage
	}
	if size > MaxImageSize {
		return ErrImageTooLarge
	}
	if !strings.HasPrefix(DetectImageType(u), "image/") {
		return ErrNotAnImage
	}
	return nil
}

// DetectImageType returns the declared content type, or a sniffed one when
// the declaration is absent or application/octet-stream.
func DetectImageType(u Upload) string {
	ct := strings.ToLower(strings.TrimSpace(u.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if len(u.Data) == 0 {
		return ct
	}
	return http.DetectContentType(u.Data)
}
