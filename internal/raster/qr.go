// internal/raster/qr.go
package raster

import (
	"fmt"
	"image"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// DefaultQRSize is the edge length in dots of generated QR symbols
const DefaultQRSize = 120

// QRCode renders content as a square QR symbol with medium error correction.
// When the symbol does not fit size it is returned at its native module size.
func QRCode(content string, size int) (image.Image, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr symbol: %w", err)
	}

	if size <= 0 {
		size = DefaultQRSize
	}

	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return code, nil
	}
	return scaled, nil
}
