// internal/raster/decode.go
package raster

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"unicode"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DataURIPrefix marks an inline base64 image
const DataURIPrefix = "data:image/"

var (
	// ErrInvalidBase64 is returned when an image payload is not valid base64
	ErrInvalidBase64 = errors.New("invalid base64 image payload")
	// ErrUndecodableImage is returned when bytes are not a supported image format
	ErrUndecodableImage = errors.New("image format not recognized")
)

// DecodeBase64 strips an optional data URI header and any whitespace,
// then decodes padded or unpadded standard base64.
func DecodeBase64(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)
	if strings.HasPrefix(s, DataURIPrefix) {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, fmt.Errorf("%w: data uri without payload", ErrInvalidBase64)
		}
		s = s[comma+1:]
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidBase64)
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
		}
	}
	return data, nil
}

// DecodeImage decodes PNG, JPEG, GIF, BMP or WebP bytes
func DecodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUndecodableImage, err)
	}
	return img, format, nil
}

// DecodeBase64Image combines DecodeBase64 and DecodeImage
func DecodeBase64Image(payload string) (image.Image, error) {
	data, err := DecodeBase64(payload)
	if err != nil {
		return nil, err
	}
	img, _, err := DecodeImage(data)
	return img, err
}
