// internal/raster/raster.go
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/MaxHalford/halfgone"
	"github.com/nfnt/resize"

	"print-bridge/internal/escpos"
)

// DefaultWidthDots is the printable width used when none is configured
const DefaultWidthDots = 384

// threshold is the luminance above which a pixel prints white
const threshold = 128

const maxFrameDimension = 0xFFFF

var (
	// ErrEmptyImage is returned for nil or zero-area bitmaps
	ErrEmptyImage = errors.New("image has no printable area")
	// ErrImageTooLarge is returned when a dimension does not fit the frame header
	ErrImageTooLarge = errors.New("image exceeds raster frame limits")
)

// Monochrome is a 1-bit bitmap; true means a black dot
type Monochrome struct {
	Width  int
	Height int
	Black  []bool
}

// NewMonochrome allocates an all-white bitmap
func NewMonochrome(width, height int) *Monochrome {
	return &Monochrome{
		Width:  width,
		Height: height,
		Black:  make([]bool, width*height),
	}
}

// At reports whether the dot at (x, y) is black
func (m *Monochrome) At(x, y int) bool {
	return m.Black[y*m.Width+x]
}

// WidthBytes is the row stride after padding to a multiple of 8 dots
func (m *Monochrome) WidthBytes() int {
	return (m.Width + 7) / 8
}

// Pack packs rows most-significant-bit first, padding each row with white bits
func (m *Monochrome) Pack() []byte {
	return m.pack(m.WidthBytes())
}

func (m *Monochrome) pack(widthBytes int) []byte {
	data := make([]byte, widthBytes*m.Height)
	for y := 0; y < m.Height; y++ {
		row := data[y*widthBytes : (y+1)*widthBytes]
		for x := 0; x < m.Width; x++ {
			if m.Black[y*m.Width+x] {
				row[x/8] |= 0x80 >> uint(x%8)
			}
		}
	}
	return data
}

// Image renders the bitmap back to grayscale, black dots as 0 and white as 255
func (m *Monochrome) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, black := range m.Black {
		if !black {
			img.Pix[i] = 0xFF
		}
	}
	return img
}

// Resize scales img down to targetWidth preserving aspect ratio.
// Images already narrow enough are returned unchanged; it never upscales.
func Resize(img image.Image, targetWidth int) image.Image {
	b := img.Bounds()
	if targetWidth <= 0 || b.Dx() <= targetWidth {
		return img
	}

	height := int(math.Round(float64(b.Dy()) * float64(targetWidth) / float64(b.Dx())))
	if height < 1 {
		height = 1
	}

	return resize.Resize(uint(targetWidth), uint(height), img, resize.Bilinear)
}

// Luminance returns 0.299R + 0.587G + 0.114B on a 0..255 scale.
// Translucent pixels are composited over white paper first.
func Luminance(c color.Color) float64 {
	r, g, b, a := c.RGBA()
	paper := 0xFFFF - a
	r += paper
	g += paper
	b += paper
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
}

// Halftone converts img to 1 bit with Floyd-Steinberg error diffusion.
// The quantization error goes 7/16 right, 3/16 lower-left, 5/16 down and
// 1/16 lower-right; contributions past an edge are dropped.
func Halftone(img image.Image) *Monochrome {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lum[y*w+x] = Luminance(img.At(b.Min.X+x, b.Min.Y+y))
		}
	}

	out := NewMonochrome(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			old := lum[i]

			var quantized float64
			if old > threshold {
				quantized = 255
			} else {
				out.Black[i] = true
			}

			qerr := old - quantized
			if x+1 < w {
				lum[i+1] += qerr * 7 / 16
			}
			if y+1 < h {
				if x > 0 {
					lum[i+w-1] += qerr * 3 / 16
				}
				lum[i+w] += qerr * 5 / 16
				if x+1 < w {
					lum[i+w+1] += qerr * 1 / 16
				}
			}
		}
	}

	return out
}

// Threshold converts img to 1 bit without diffusion. Used for symbols such
// as QR codes where dithering would blur module edges.
func Threshold(img image.Image) *Monochrome {
	gray := halfgone.ImageToGray(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	out := NewMonochrome(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y <= threshold {
				out.Black[y*w+x] = true
			}
		}
	}
	return out
}

// Frame wraps the bitmap in a GS v 0 raster command. The declared
// dimensions and the payload are derived from the same stride.
func Frame(m *Monochrome) ([]byte, error) {
	if m == nil || m.Width <= 0 || m.Height <= 0 {
		return nil, ErrEmptyImage
	}

	widthBytes := m.WidthBytes()
	if widthBytes > maxFrameDimension || m.Height > maxFrameDimension {
		return nil, fmt.Errorf("%w: %d bytes x %d dots", ErrImageTooLarge, widthBytes, m.Height)
	}

	data := m.pack(widthBytes)

	prefix := escpos.ESC_POS_COMMANDS.RASTER_IMAGE
	frame := make([]byte, 0, len(prefix)+5+len(data))
	frame = append(frame, prefix...)
	frame = append(frame,
		0x00, // normal density
		byte(widthBytes), byte(widthBytes>>8),
		byte(m.Height), byte(m.Height>>8),
	)
	return append(frame, data...), nil
}
