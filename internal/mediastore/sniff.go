package mediastore

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var ErrInvalidImage = errors.New("invalid or unsupported image")

var allowedFormats = map[string]struct{}{
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
}

// Sniff checks that the payload decodes as a supported image with positive
// dimensions. It reads only the header, so it stays cheap for large files.
func Sniff(data []byte) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ErrInvalidImage
	}
	if _, ok := allowedFormats[format]; !ok {
		return ErrInvalidImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ErrInvalidImage
	}
	return nil
}
